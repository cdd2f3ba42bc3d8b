// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/metric"
)

// GaugeSamplePayload is one retained snapshot's rendered fields.
type GaugeSamplePayload struct {
	ElapsedTimeNs int64       `json:"elapsed_time_ns"`
	Fields        []Dimension `json:"fields"`
}

// GaugePayload is a gauge bucket's retained samples.
type GaugePayload struct {
	Samples []GaugeSamplePayload `json:"samples"`
}

// DumpGauge renders a gauge producer's store into a MetricReport.
func DumpGauge(id string, p *metric.GaugeProducer, latency DumpLatency, eraseData bool, nowNs int64) MetricReport {
	buckets := DumpStore(p.Store(), latency, eraseData, nowNs, func(v metric.GaugeAccum) any {
		samples := make([]GaugeSamplePayload, len(v.Samples))
		for i, s := range v.Samples {
			samples[i] = GaugeSamplePayload{ElapsedTimeNs: s.ElapsedTimeNs, Fields: fieldValuesToDimensions(s.Fields)}
		}
		return GaugePayload{Samples: samples}
	})
	return MetricReport{ID: id, Buckets: buckets, GuardrailHit: p.GuardrailHit()}
}

func fieldValuesToDimensions(fields []atom.FieldValue) []Dimension {
	out := make([]Dimension, len(fields))
	for i, fv := range fields {
		out[i] = Dimension{AtomTag: fv.Path.AtomTag, FieldNumber: fv.Path.FieldNumber, Value: fv.Value.String()}
	}
	return out
}
