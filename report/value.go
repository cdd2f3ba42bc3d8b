// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import "github.com/antimetal/metricscore/metric"

// ValuePayload is a value bucket's aggregated result under its
// configured aggregation type, the raw sample count, and the
// condition-gated time accounted alongside it (spec.md §4.4.3).
type ValuePayload struct {
	Result      float64 `json:"result"`
	Count       int64   `json:"count"`
	ConditionNs int64   `json:"condition_ns"`
}

// DumpValue renders a value producer's store into a MetricReport.
func DumpValue(id string, p *metric.ValueProducer, agg metric.ValueAggregation, latency DumpLatency, eraseData bool, nowNs int64) MetricReport {
	buckets := DumpStore(p.Store(), latency, eraseData, nowNs, func(v metric.ValueAccum) any {
		return ValuePayload{Result: v.Result(agg), Count: v.Count, ConditionNs: v.ConditionNs}
	})
	return MetricReport{ID: id, Buckets: buckets, GuardrailHit: p.GuardrailHit()}
}
