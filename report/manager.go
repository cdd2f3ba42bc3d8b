// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"github.com/antimetal/metricscore/manager"
	"github.com/antimetal/metricscore/metric"
)

// Dump renders every metric in mgr into a Report. Metrics whose
// producer kind is not one of the five handled here are left out of
// the Report; Dump neither logs nor reports that it skipped them.
func Dump(mgr *manager.Manager, latency DumpLatency, eraseData bool, nowNs int64) Report {
	var out Report
	for _, entry := range mgr.Metrics {
		mr, ok := dumpEntry(entry, latency, eraseData, nowNs)
		if !ok {
			continue
		}
		out.Metrics = append(out.Metrics, mr)
	}
	return out
}

func dumpEntry(entry manager.MetricEntry, latency DumpLatency, eraseData bool, nowNs int64) (MetricReport, bool) {
	switch p := entry.Producer.(type) {
	case *metric.CountProducer:
		return DumpCount(entry.ID, p, latency, eraseData, nowNs), true
	case *metric.ValueProducer:
		return DumpValue(entry.ID, p, p.Aggregation(), latency, eraseData, nowNs), true
	case *metric.EventProducer:
		return DumpEvent(entry.ID, p, eraseData, nowNs), true
	case *metric.GaugeProducer:
		return DumpGauge(entry.ID, p, latency, eraseData, nowNs), true
	case *metric.DurationProducer:
		return DumpDuration(entry.ID, p, latency, eraseData, nowNs), true
	default:
		return MetricReport{}, false
	}
}
