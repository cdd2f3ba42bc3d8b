// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package report renders a MetricsManager's bucket stores into the
// nested report record the core hands back to its caller (spec.md §6
// "Report output"). Serialization onto the wire is explicitly out of
// scope for the core (§1 "on-disk report serialization format"); this
// package only builds the in-memory tree and offers a JSON codec as a
// convenience encoding for tests and the demo binary.
package report

// DumpLatency selects how much optional work report generation may do
// before returning (spec.md §5 "report generation accepts a
// dump_latency ∈ {fast, slow} hint").
type DumpLatency uint8

const (
	// DumpSlow allows recomputation and blocking pulls before the
	// report is assembled.
	DumpSlow DumpLatency = iota
	// DumpFast avoids optional recomputation and pulls that would
	// block, favoring only the already-sealed buckets.
	DumpFast
)

// Dimension is one leaf field-value pair in a bucket's expanded key
// (spec.md §6 "dimensions may be expanded, leaf nodes only, the path
// sent once").
type Dimension struct {
	AtomTag     uint32 `json:"atom_tag"`
	FieldNumber uint32 `json:"field_number"`
	Value       string `json:"value"`
}

// Bucket is one closed or partial aggregation window for a single
// dimension key.
type Bucket struct {
	StartElapsedNs int64       `json:"start_elapsed_ns"`
	EndElapsedNs   int64       `json:"end_elapsed_ns"`
	BucketNum      int64       `json:"bucket_num,omitempty"`
	Partial        bool        `json:"partial,omitempty"`
	What           []Dimension `json:"what,omitempty"`
	State          []Dimension `json:"state,omitempty"`
	// Payload is the aggregated value for this bucket: a CountPayload,
	// ValuePayload, GaugePayload, EventPayload or DurationPayload — see
	// the Dump* builders in count.go, value.go, gauge.go, event.go and
	// duration.go.
	Payload any `json:"payload"`
	// ConditionTrueNs is set for duration metrics carrying a
	// condition timer (spec.md §4.4.2 "a condition timer tracks the
	// duration during which the metric's external condition was
	// true").
	ConditionTrueNs int64 `json:"condition_true_ns,omitempty"`
	// PullFailed marks a pull-based gauge bucket whose snapshot
	// request never completed.
	PullFailed bool `json:"pull_failed,omitempty"`
}

// MetricReport is one metric's full bucket history at dump time.
type MetricReport struct {
	ID           string   `json:"id"`
	Buckets      []Bucket `json:"buckets"`
	GuardrailHit bool     `json:"guardrail_hit,omitempty"`
}

// Report is the full dump across every metric in a MetricsManager.
type Report struct {
	Metrics   []MetricReport `json:"metrics"`
	Truncated bool           `json:"truncated,omitempty"`
}
