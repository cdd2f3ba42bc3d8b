// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"github.com/go-logr/logr"

	"github.com/antimetal/metricscore/activation"
	"github.com/antimetal/metricscore/condition"
	"github.com/antimetal/metricscore/manager"
	"github.com/antimetal/metricscore/matcher"
	"github.com/antimetal/metricscore/metric"
)

// MaxMatchers, MaxConditions, MaxMetrics, and MaxAlerts are the
// per-configuration guardrails referenced by spec.md §7 "exceeded
// guardrails (too many matchers/conditions/metrics/alerts/log
// sources)". Zero disables the corresponding check.
type Limits struct {
	MaxMatchers   int
	MaxConditions int
	MaxMetrics    int
	MaxAlerts     int
}

// Compile validates and translates a Document into a manager.Manager.
// A Document that fails validation returns a *Error and no Manager;
// per spec.md §7 the caller must leave any previously running Manager
// in place.
func Compile(doc *Document, limits Limits, monitor manager.AlarmMonitor, logger logr.Logger) (*manager.Manager, error) {
	if limits.MaxMatchers > 0 && len(doc.Matchers) > limits.MaxMatchers {
		return nil, errGuardrailExceeded("matcher count %d exceeds limit %d", len(doc.Matchers), limits.MaxMatchers)
	}
	if limits.MaxConditions > 0 && len(doc.Conditions) > limits.MaxConditions {
		return nil, errGuardrailExceeded("condition count %d exceeds limit %d", len(doc.Conditions), limits.MaxConditions)
	}
	if limits.MaxMetrics > 0 && len(doc.Metrics) > limits.MaxMetrics {
		return nil, errGuardrailExceeded("metric count %d exceeds limit %d", len(doc.Metrics), limits.MaxMetrics)
	}
	if limits.MaxAlerts > 0 && len(doc.Alerts) > limits.MaxAlerts {
		return nil, errGuardrailExceeded("alert count %d exceeds limit %d", len(doc.Alerts), limits.MaxAlerts)
	}

	matchers, err := compileMatchers(doc.Matchers)
	if err != nil {
		return nil, err
	}

	conditions, err := compileConditions(doc.Conditions)
	if err != nil {
		return nil, err
	}
	condSet, err := condition.NewSet(conditions, matchers)
	if err != nil {
		return nil, errInvalidReference("%v", err)
	}
	wizard := condition.NewWizard(condSet)

	metrics, err := compileMetrics(doc.Metrics, len(matchers.Matchers), wizard, doc.ShardOffset, logger)
	if err != nil {
		return nil, err
	}

	edges, err := compileActivationEdges(doc.ActivationEdges, len(matchers.Matchers), metrics)
	if err != nil {
		return nil, err
	}

	alerts, err := compileAlerts(doc.Alerts, len(metrics), monitor, logger)
	if err != nil {
		return nil, err
	}

	return manager.New(matchers, condSet, metrics, edges, alerts,
		manager.WithLogger(logger),
		manager.WithAllowedLogSources(doc.AllowedLogSources),
		manager.WithAllowlistedTags(doc.AllowlistedTags))
}

func compileMatchers(docs []MatcherDoc) (matcher.Set, error) {
	out := make([]matcher.Matcher, len(docs))
	for i, d := range docs {
		m := matcher.Matcher{Name: d.Name}
		switch d.Kind {
		case "simple":
			m.Kind = matcher.KindSimple
			m.Simple = &matcher.Simple{
				AtomID:     d.AtomID,
				Predicates: compilePredicates(d.Predicates),
				Transforms: compileTransforms(d.Transforms),
			}
		case "combination":
			m.Kind = matcher.KindCombination
			m.Combination = &matcher.Combination{Op: resolveLogicalOp(d.Op), Children: d.Children}
		default:
			return matcher.Set{}, errMalformedField("matcher %q: unknown kind %q", d.Name, d.Kind)
		}
		out[i] = m
	}
	set := matcher.Set{Matchers: out}
	if err := set.Validate(); err != nil {
		return matcher.Set{}, errInvalidReference("%v", err)
	}
	return set, nil
}

func compilePredicates(docs []PredicateDoc) []matcher.FieldPredicate {
	out := make([]matcher.FieldPredicate, len(docs))
	for i, d := range docs {
		out[i] = matcher.FieldPredicate{
			Path:        d.Path.resolve(),
			Op:          resolvePredicateOp(d.Op),
			Literal:     d.Literal.resolve(),
			LiteralHigh: d.LiteralHigh.resolve(),
			ComparePath: d.ComparePath.resolve(),
		}
	}
	return out
}

func compileTransforms(docs []TransformDoc) []matcher.Transform {
	out := make([]matcher.Transform, len(docs))
	for i, d := range docs {
		kind := matcher.TransformReplaceConstant
		if d.Kind == "collapse_repeated" {
			kind = matcher.TransformCollapseRepeated
		}
		out[i] = matcher.Transform{Path: d.Path.resolve(), Kind: kind, Constant: d.Constant.resolve()}
	}
	return out
}

func resolvePredicateOp(op string) matcher.PredicateOp {
	switch op {
	case "less":
		return matcher.PredLess
	case "greater":
		return matcher.PredGreater
	case "in_range":
		return matcher.PredInRange
	case "equals_field":
		return matcher.PredEqualsField
	default:
		return matcher.PredEquals
	}
}

func resolveLogicalOp(op string) matcher.LogicalOp {
	switch op {
	case "or":
		return matcher.OpOr
	case "not":
		return matcher.OpNot
	default:
		return matcher.OpAnd
	}
}

func compileConditions(docs []ConditionDoc) ([]condition.Condition, error) {
	out := make([]condition.Condition, len(docs))
	for i, d := range docs {
		c := condition.Condition{Name: d.Name}
		switch d.Kind {
		case "simple":
			if d.Simple == nil {
				return nil, errMalformedField("condition %q: simple condition missing body", d.Name)
			}
			stopAll := -1
			if d.Simple.StopAllMatcher != nil {
				stopAll = *d.Simple.StopAllMatcher
			}
			c.Kind = condition.KindSimple
			c.Simple = &condition.Simple{
				StartMatcher:     d.Simple.StartMatcher,
				StopMatcher:      d.Simple.StopMatcher,
				StopAllMatcher:   stopAll,
				InitialValue:     d.Simple.InitialValue,
				Nesting:          d.Simple.Nesting,
				DimensionsInWhat: resolvePaths(d.Simple.DimensionsInWhat),
			}
		case "combination":
			c.Kind = condition.KindCombination
			var op condition.LogicalOp
			switch d.Op {
			case "or":
				op = condition.OpOr
			case "not":
				op = condition.OpNot
			default:
				op = condition.OpAnd
			}
			c.Combination = &condition.Combination{Op: op, Children: d.Children}
		default:
			return nil, errMalformedField("condition %q: unknown kind %q", d.Name, d.Kind)
		}
		out[i] = c
	}
	return out, nil
}

func compileMetrics(docs []MetricDoc, numMatchers int, wizard condition.Wizard, shardOffset int32, logger logr.Logger) ([]manager.MetricEntry, error) {
	out := make([]manager.MetricEntry, len(docs))
	for i, d := range docs {
		act, err := compileActivationSet(d.Activations)
		if err != nil {
			return nil, errInvalidReference("metric %q: %v", d.ID, err)
		}

		condLink := metric.ConditionLink{}
		if d.Condition != nil {
			condLink = metric.ConditionLink{
				Set:   true,
				Index: d.Condition.ConditionIndex,
				Link: metric.FieldLink{
					Target:         metric.LinkToCondition,
					ConditionIndex: d.Condition.ConditionIndex,
					MetricFields:   resolvePaths(d.Condition.MetricFields),
					TargetFields:   resolvePaths(d.Condition.TargetFields),
				},
			}
		}

		var sampler *metric.Sampler
		if d.Sampling != nil {
			sampler = metric.NewSampler(metric.SamplingConfig{
				Percentage: d.Sampling.Percentage,
				ShardField: resolvePaths(d.Sampling.ShardField),
				ShardCount: d.Sampling.ShardCount,
			}, shardOffset, int64(i)+1)
		}

		guardrails := metric.Guardrails{Soft: d.Guardrails.Soft, Hard: d.Guardrails.Hard}

		var producer manager.Producer
		switch d.Kind {
		case "count":
			what, err := requireIndex(d.WhatMatcher, numMatchers, d.ID, "what_matcher")
			if err != nil {
				return nil, err
			}
			gate := metric.NewGate(act, wizard, condLink, sampler)
			producer = metric.NewCountProducer(metric.CountDef{
				ID: d.ID, WhatMatcher: what, DimensionsInWhat: resolvePaths(d.DimensionsInWhat),
				BucketNs: d.BucketNs, Guardrails: guardrails,
			}, gate, logger)
		case "value":
			what, err := requireIndex(d.WhatMatcher, numMatchers, d.ID, "what_matcher")
			if err != nil {
				return nil, err
			}
			gate := metric.NewGate(act, wizard, condLink, sampler)
			producer = metric.NewValueProducer(metric.ValueDef{
				ID: d.ID, WhatMatcher: what, ValueField: d.ValueField.resolve(),
				DimensionsInWhat: resolvePaths(d.DimensionsInWhat), Aggregation: resolveAggregation(d.Aggregation),
				BucketNs: d.BucketNs, Guardrails: guardrails,
			}, gate, wizard, condLink, logger)
		case "event":
			what, err := requireIndex(d.WhatMatcher, numMatchers, d.ID, "what_matcher")
			if err != nil {
				return nil, err
			}
			gate := metric.NewGate(act, wizard, condLink, sampler)
			producer = metric.NewEventProducer(metric.EventDef{
				ID: d.ID, WhatMatcher: what, DimensionsInWhat: resolvePaths(d.DimensionsInWhat), Guardrails: guardrails,
			}, gate, logger)
		case "gauge":
			what := -1
			if d.WhatMatcher != nil {
				what = *d.WhatMatcher
			}
			gate := metric.NewGate(act, wizard, condLink, sampler)
			sampling := metric.GaugeFirstNSamples
			if d.GaugeSampling == "random_one" {
				sampling = metric.GaugeRandomOneSample
			}
			producer = metric.NewGaugeProducer(metric.GaugeDef{
				ID: d.ID, WhatMatcher: what, DimensionsInWhat: resolvePaths(d.DimensionsInWhat),
				Sampling: sampling, N: d.N, GaugeFields: resolvePaths(d.GaugeFields),
				BucketNs: d.BucketNs, Guardrails: guardrails,
			}, gate, nil, int64(i)+1, logger)
		case "duration":
			stopAll := -1
			if d.StopAllMatcher != nil {
				stopAll = *d.StopAllMatcher
			}
			variant := metric.DurationSummed
			if d.Variant == "max_sparse" {
				variant = metric.DurationMaxSparse
			}
			producer = metric.NewDurationProducer(metric.DurationDef{
				ID: d.ID, StartMatcher: d.StartMatcher, StopMatcher: d.StopMatcher, StopAllMatcher: stopAll,
				Nesting: d.Nesting, DimensionsInWhat: resolvePaths(d.DimensionsInWhat), Variant: variant,
				BucketNs: d.BucketNs, UploadThresholdNs: d.UploadThresholdNs, Guardrails: guardrails,
			}, act, wizard, condLink, sampler, logger)
		default:
			return nil, errMalformedField("metric %q: unknown kind %q", d.ID, d.Kind)
		}

		out[i] = manager.MetricEntry{ID: d.ID, Producer: producer, Activation: act}
	}
	return out, nil
}

func requireIndex(p *int, numMatchers int, metricID, field string) (int, error) {
	if p == nil {
		return 0, errMalformedField("metric %q: %s is required", metricID, field)
	}
	if *p < 0 || *p >= numMatchers {
		return 0, errInvalidReference("metric %q: %s index %d out of range", metricID, field, *p)
	}
	return *p, nil
}

func resolveAggregation(s string) metric.ValueAggregation {
	switch s {
	case "min":
		return metric.AggMin
	case "max":
		return metric.AggMax
	case "avg":
		return metric.AggAvg
	case "diff":
		return metric.AggDiff
	default:
		return metric.AggSum
	}
}

func compileActivationSet(docs []ActivationDefDoc) (*activation.Set, error) {
	if len(docs) == 0 {
		return activation.NewSet(nil), nil
	}
	defs := make([]activation.Def, len(docs))
	for i, d := range docs {
		defs[i] = activation.Def{MatcherIndex: d.MatcherIndex, TTLNs: d.TTLNs}
	}
	return activation.NewSet(defs), nil
}

func compileActivationEdges(docs []ActivationEdgeDoc, numMatchers int, metrics []manager.MetricEntry) ([]manager.ActivationEdge, error) {
	out := make([]manager.ActivationEdge, len(docs))
	for i, d := range docs {
		if d.MatcherIndex < 0 || d.MatcherIndex >= numMatchers {
			return nil, errInvalidReference("activation edge %d: matcher index %d out of range", i, d.MatcherIndex)
		}
		if d.MetricIndex < 0 || d.MetricIndex >= len(metrics) {
			return nil, errInvalidReference("activation edge %d: metric index %d out of range", i, d.MetricIndex)
		}
		if metrics[d.MetricIndex].Activation == nil || d.RecordIndex < 0 || d.RecordIndex >= metrics[d.MetricIndex].Activation.Len() {
			return nil, errInvalidReference("activation edge %d: record index %d out of range", i, d.RecordIndex)
		}
		kind := manager.EdgeActivate
		if d.Kind == "deactivate" {
			kind = manager.EdgeDeactivate
		}
		out[i] = manager.ActivationEdge{Kind: kind, MatcherIndex: d.MatcherIndex, MetricIndex: d.MetricIndex, RecordIndex: d.RecordIndex}
	}
	return out, nil
}

func compileAlerts(docs []AlertDoc, numMetrics int, monitor manager.AlarmMonitor, logger logr.Logger) ([]*manager.AlertTracker, error) {
	out := make([]*manager.AlertTracker, len(docs))
	for i, d := range docs {
		if d.MetricIndex < 0 || d.MetricIndex >= numMetrics {
			return nil, errInvalidReference("alert %q: metric index %d out of range", d.ID, d.MetricIndex)
		}
		out[i] = manager.NewAlertTracker(manager.AlertDef{
			ID: d.ID, MetricIndex: d.MetricIndex, Threshold: d.Threshold, RefractoryNs: d.RefractoryNs,
		}, monitor, logger)
	}
	return out, nil
}
