// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import "github.com/antimetal/metricscore/metric"

// CountPayload is a count bucket's aggregated value.
type CountPayload struct {
	Count int64 `json:"count"`
}

// DumpCount renders a count producer's store into a MetricReport.
func DumpCount(id string, p *metric.CountProducer, latency DumpLatency, eraseData bool, nowNs int64) MetricReport {
	buckets := DumpStore(p.Store(), latency, eraseData, nowNs, func(v int) any {
		return CountPayload{Count: int64(v)}
	})
	return MetricReport{ID: id, Buckets: buckets, GuardrailHit: p.GuardrailHit()}
}
