// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import "github.com/antimetal/metricscore/metric"

// EventCopyPayload is one deduplicated event copy's rendered
// field-value tuple and every elapsed timestamp it recurred at.
type EventCopyPayload struct {
	Fields        []Dimension `json:"fields"`
	ElapsedTimeNs []int64     `json:"elapsed_time_ns"`
}

// EventPayload is an event bucket's deduplicated copies.
type EventPayload struct {
	Copies []EventCopyPayload `json:"copies"`
}

// DumpEvent renders an event producer's store into a MetricReport.
// Event metrics have no bucket width (spec.md §4.4.5); every entry is
// treated as sealed until explicitly erased, so latency has no effect.
func DumpEvent(id string, p *metric.EventProducer, eraseData bool, nowNs int64) MetricReport {
	buckets := DumpStore(p.Store(), DumpSlow, eraseData, nowNs, func(v metric.EventAccum) any {
		copies := v.Copies()
		out := make([]EventCopyPayload, len(copies))
		for i, c := range copies {
			out[i] = EventCopyPayload{Fields: fieldValuesToDimensions(c.Fields), ElapsedTimeNs: c.ElapsedTimeNs}
		}
		return EventPayload{Copies: out}
	})
	return MetricReport{ID: id, Buckets: buckets, GuardrailHit: p.GuardrailHit()}
}
