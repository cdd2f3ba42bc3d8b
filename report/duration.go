// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import "github.com/antimetal/metricscore/metric"

// DurationPayload is a duration bucket's aggregated value.
type DurationPayload struct {
	DurationNs int64 `json:"duration_ns"`
}

// DumpDuration renders a duration producer's store into a
// MetricReport, dropping buckets whose duration falls below the
// metric's configured upload threshold (spec.md §4.4.2) and carrying
// each bucket's condition-true nanoseconds separately from the
// duration payload itself (spec.md §6 "a condition-true nanoseconds
// field").
func DumpDuration(id string, p *metric.DurationProducer, latency DumpLatency, eraseData bool, nowNs int64) MetricReport {
	threshold := p.UploadThresholdNs()
	store := p.Store()
	store.Flush(nowNs)
	bucketNs := store.BucketNs()

	var buckets []Bucket
	for _, ser := range store.All() {
		for _, sealed := range ser.Sealed {
			if sealed.Payload.DurationNs < threshold {
				continue
			}
			num, partial := bucketFrame(sealed.Start, sealed.End, bucketNs, sealed.Partial)
			buckets = append(buckets, Bucket{
				StartElapsedNs:  sealed.Start,
				EndElapsedNs:    sealed.End,
				BucketNum:       num,
				Partial:         partial,
				What:            expandDimensions(ser.Key.What),
				Payload:         DurationPayload{DurationNs: sealed.Payload.DurationNs},
				ConditionTrueNs: sealed.Payload.ConditionTrueNs,
			})
		}
		if latency == DumpSlow && ser.Current.DurationNs >= threshold {
			buckets = append(buckets, Bucket{
				StartElapsedNs:  ser.Window.Start,
				EndElapsedNs:    ser.Window.End,
				Partial:         true,
				What:            expandDimensions(ser.Key.What),
				Payload:         DurationPayload{DurationNs: ser.Current.DurationNs},
				ConditionTrueNs: ser.Current.ConditionTrueNs,
			})
		}
	}

	if eraseData {
		store.DrainSealed(nowNs)
	}
	return MetricReport{ID: id, Buckets: buckets, GuardrailHit: p.GuardrailHit()}
}
