// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

// ApplyMemoryCap drops the oldest buckets (by start time) across every
// metric until the report's estimated encoded size fits within
// capBytes, setting Truncated when anything was dropped (spec.md §5
// "when exceeded during a report, the oldest bucket data is dropped or
// the report is truncated, and a guardrail flag is set"). capBytes <=
// 0 disables the cap.
func ApplyMemoryCap(r Report, capBytes int) Report {
	if capBytes <= 0 {
		return r
	}
	for estimateSize(r) > capBytes {
		if !dropOldestBucket(&r) {
			break
		}
		r.Truncated = true
	}
	return r
}

func estimateSize(r Report) int {
	n := 0
	for _, m := range r.Metrics {
		n += len(m.ID)
		for range m.Buckets {
			n += 64 // rough per-bucket overhead; exact wire size is a collaborator concern
		}
	}
	return n
}

func dropOldestBucket(r *Report) bool {
	oldestMetric, oldestBucket, oldestStart := -1, -1, int64(0)
	found := false
	for mi, m := range r.Metrics {
		for bi, b := range m.Buckets {
			if !found || b.StartElapsedNs < oldestStart {
				oldestMetric, oldestBucket, oldestStart = mi, bi, b.StartElapsedNs
				found = true
			}
		}
	}
	if !found {
		return false
	}
	buckets := r.Metrics[oldestMetric].Buckets
	r.Metrics[oldestMetric].Buckets = append(buckets[:oldestBucket], buckets[oldestBucket+1:]...)
	return true
}
