// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package config decodes the declarative configuration document
// (spec.md §6 "a validated document that enumerates matchers,
// predicates, metrics, alerts, activations...") and compiles it into a
// manager.Manager. The teacher's configuration layer is protobuf-based
// (internal/config/parser.go); no protoc toolchain is available here,
// so the document is a YAML tree decoded with gopkg.in/yaml.v3 instead
// (see DESIGN.md).
package config

import "github.com/antimetal/metricscore/atom"

// FieldPathDoc is the YAML shape of an atom.FieldPath reference.
type FieldPathDoc struct {
	AtomTag     uint32 `yaml:"atom_tag"`
	Depth       uint8  `yaml:"depth"`
	FieldNumber uint32 `yaml:"field_number"`
	Position    string `yaml:"position"` // "", "first", "last", "all", "any"
}

func (d FieldPathDoc) resolve() atom.FieldPath {
	p := atom.FieldPath{AtomTag: d.AtomTag, Depth: d.Depth, FieldNumber: d.FieldNumber}
	switch d.Position {
	case "first":
		return p.WithPosition(atom.PositionFirst)
	case "last":
		return p.WithPosition(atom.PositionLast)
	case "all":
		return p.WithPosition(atom.PositionAll)
	case "any":
		return p.WithPosition(atom.PositionAny)
	default:
		return p
	}
}

func resolvePaths(docs []FieldPathDoc) []atom.FieldPath {
	out := make([]atom.FieldPath, len(docs))
	for i, d := range docs {
		out[i] = d.resolve()
	}
	return out
}

// ValueDoc is the YAML shape of an atom.Value literal.
type ValueDoc struct {
	Type  string  `yaml:"type"` // int32, int64, float, double, string, bool, bytes
	Int   int64   `yaml:"int,omitempty"`
	Float float64 `yaml:"float,omitempty"`
	Str   string  `yaml:"str,omitempty"`
	Bool  bool    `yaml:"bool,omitempty"`
}

func (d ValueDoc) resolve() atom.Value {
	switch d.Type {
	case "int32":
		return atom.Int32Value(int32(d.Int))
	case "int64":
		return atom.Int64Value(d.Int)
	case "float":
		return atom.FloatValue(float32(d.Float))
	case "double":
		return atom.DoubleValue(d.Float)
	case "bool":
		return atom.BoolValue(d.Bool)
	case "bytes":
		return atom.BytesValue([]byte(d.Str))
	default:
		return atom.StringValue(d.Str)
	}
}

// PredicateDoc is one FieldPredicate.
type PredicateDoc struct {
	Path        FieldPathDoc `yaml:"path"`
	Op          string       `yaml:"op"` // equals, less, greater, in_range, equals_field
	Literal     ValueDoc     `yaml:"literal,omitempty"`
	LiteralHigh ValueDoc     `yaml:"literal_high,omitempty"`
	ComparePath FieldPathDoc `yaml:"compare_path,omitempty"`
}

// TransformDoc is one field Transform.
type TransformDoc struct {
	Path     FieldPathDoc `yaml:"path"`
	Kind     string       `yaml:"kind"` // replace_constant, collapse_repeated
	Constant ValueDoc     `yaml:"constant,omitempty"`
}

// MatcherDoc is one Matcher — simple or combination — addressed by its
// position in the document's matcher list (spec.md §9 "indices over
// owning pointers").
type MatcherDoc struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // simple, combination

	AtomID     uint32         `yaml:"atom_id,omitempty"`
	Predicates []PredicateDoc `yaml:"predicates,omitempty"`
	Transforms []TransformDoc `yaml:"transforms,omitempty"`

	Op       string `yaml:"op,omitempty"` // and, or, not
	Children []int  `yaml:"children,omitempty"`
}

// SimpleConditionDoc is one Simple condition body.
type SimpleConditionDoc struct {
	StartMatcher     int            `yaml:"start_matcher"`
	StopMatcher      int            `yaml:"stop_matcher"`
	StopAllMatcher   *int           `yaml:"stop_all_matcher,omitempty"` // nil if none configured
	InitialValue     bool           `yaml:"initial_value"`
	Nesting          bool           `yaml:"nesting"`
	DimensionsInWhat []FieldPathDoc `yaml:"dimensions_in_what,omitempty"`
}

// ConditionDoc is one Condition — simple or combination.
type ConditionDoc struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // simple, combination

	Simple *SimpleConditionDoc `yaml:"simple,omitempty"`

	Op       string `yaml:"op,omitempty"`
	Children []int  `yaml:"children,omitempty"`
}

// GuardrailsDoc mirrors metric.Guardrails.
type GuardrailsDoc struct {
	Soft int `yaml:"soft,omitempty"`
	Hard int `yaml:"hard,omitempty"`
}

// SamplingDoc mirrors metric.SamplingConfig.
type SamplingDoc struct {
	Percentage int            `yaml:"percentage,omitempty"`
	ShardField []FieldPathDoc `yaml:"shard_field,omitempty"`
	ShardCount int            `yaml:"shard_count,omitempty"`
}

// ConditionLinkDoc maps a metric to a condition it depends on.
type ConditionLinkDoc struct {
	ConditionIndex int            `yaml:"condition_index"`
	MetricFields   []FieldPathDoc `yaml:"metric_fields,omitempty"`
	TargetFields   []FieldPathDoc `yaml:"target_fields,omitempty"`
}

// ActivationDefDoc is one activation record definition attached to a
// metric.
type ActivationDefDoc struct {
	MatcherIndex int   `yaml:"matcher_index"`
	TTLNs        int64 `yaml:"ttl_ns,omitempty"`
}

// MetricDoc is one Metric — count, duration, value, gauge, or event —
// addressed by its position in the document's metric list.
type MetricDoc struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"` // count, duration, value, gauge, event

	WhatMatcher      *int           `yaml:"what_matcher,omitempty"` // nil for a purely pull-based gauge
	DimensionsInWhat []FieldPathDoc `yaml:"dimensions_in_what,omitempty"`
	BucketNs         int64          `yaml:"bucket_ns,omitempty"`

	Condition   *ConditionLinkDoc  `yaml:"condition,omitempty"`
	Sampling    *SamplingDoc       `yaml:"sampling,omitempty"`
	Activations []ActivationDefDoc `yaml:"activations,omitempty"`
	Guardrails  GuardrailsDoc      `yaml:"guardrails,omitempty"`

	// duration-only
	StartMatcher      int    `yaml:"start_matcher,omitempty"`
	StopMatcher       int    `yaml:"stop_matcher,omitempty"`
	StopAllMatcher    *int   `yaml:"stop_all_matcher,omitempty"`
	Nesting           bool   `yaml:"nesting,omitempty"`
	Variant           string `yaml:"variant,omitempty"` // summed, max_sparse
	UploadThresholdNs int64  `yaml:"upload_threshold_ns,omitempty"`

	// value-only
	ValueField  FieldPathDoc `yaml:"value_field,omitempty"`
	Aggregation string       `yaml:"aggregation,omitempty"` // sum, min, max, avg, diff

	// gauge-only
	GaugeSampling string         `yaml:"gauge_sampling,omitempty"` // first_n, random_one
	N             int            `yaml:"n,omitempty"`
	GaugeFields   []FieldPathDoc `yaml:"gauge_fields,omitempty"`
}

// ActivationEdgeDoc wires a matcher to a metric's activation record.
type ActivationEdgeDoc struct {
	Kind         string `yaml:"kind"` // activate, deactivate
	MatcherIndex int    `yaml:"matcher_index"`
	MetricIndex  int    `yaml:"metric_index"`
	RecordIndex  int    `yaml:"record_index"`
}

// AlertDoc is one anomaly threshold check over a metric.
type AlertDoc struct {
	ID           string  `yaml:"id"`
	MetricIndex  int     `yaml:"metric_index"`
	Threshold    float64 `yaml:"threshold"`
	RefractoryNs int64   `yaml:"refractory_ns"`
}

// Document is the top-level declarative configuration (spec.md §6).
type Document struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	TimeBaseNs        int64    `yaml:"time_base_ns"`
	MemoryCapBytes    int64    `yaml:"memory_cap_bytes,omitempty"`
	ShardOffset       int32    `yaml:"shard_offset,omitempty"`
	AllowedLogSources []int32  `yaml:"allowed_log_sources,omitempty"`
	AllowlistedTags   []uint32 `yaml:"allowlisted_tags,omitempty"`

	Matchers        []MatcherDoc        `yaml:"matchers,omitempty"`
	Conditions      []ConditionDoc      `yaml:"conditions,omitempty"`
	Metrics         []MetricDoc         `yaml:"metrics,omitempty"`
	ActivationEdges []ActivationEdgeDoc `yaml:"activation_edges,omitempty"`
	Alerts          []AlertDoc          `yaml:"alerts,omitempty"`
}
