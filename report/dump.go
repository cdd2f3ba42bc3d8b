// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import "github.com/antimetal/metricscore/metric"

// Render converts one payload into the value that goes on Bucket.Payload.
type Render[V any] func(V) any

// DumpStore builds the bucket list for one producer's store. Sealed
// buckets are always included; DumpSlow additionally includes each
// key's still-open bucket as a partial snapshot (a read, not a seal —
// the accumulator keeps running). When eraseData is true, every sealed
// bucket included in this report is removed from the store afterward
// (spec.md §8 "with erase_data=true the second report omits those
// buckets").
func DumpStore[V any](store *metric.Store[V], latency DumpLatency, eraseData bool, nowNs int64, render Render[V]) []Bucket {
	store.Flush(nowNs)

	var out []Bucket
	bucketNs := store.BucketNs()

	for _, ser := range store.All() {
		for _, sealed := range ser.Sealed {
			out = append(out, sealedBucket(sealed, bucketNs, ser, render))
		}
		if latency == DumpSlow {
			out = append(out, Bucket{
				StartElapsedNs: ser.Window.Start,
				EndElapsedNs:   ser.Window.End,
				Partial:        true,
				What:           expandDimensions(ser.Key.What),
				State:          expandDimensions(ser.Key.State),
				Payload:        render(ser.Current),
			})
		}
	}

	if eraseData {
		store.DrainSealed(nowNs)
		// Infinite-bucket stores (event metrics) never seal their
		// current accumulator, so it is the only place erase_data has
		// anything to act on. Finite-bucket metrics only erase sealed
		// data — the still-accumulating bucket is not yet reportable
		// history (spec.md §5 "sealed buckets live until they are
		// reported and explicitly erased").
		if bucketNs <= 0 {
			store.ResetCurrent()
		}
	}
	return out
}

func sealedBucket[V any](sealed metric.Sealed[V], bucketNs int64, ser *metric.Series[V], render Render[V]) Bucket {
	num, partial := bucketFrame(sealed.Start, sealed.End, bucketNs, sealed.Partial)
	return Bucket{
		StartElapsedNs: sealed.Start,
		EndElapsedNs:   sealed.End,
		BucketNum:      num,
		Partial:        partial,
		What:           expandDimensions(ser.Key.What),
		State:          expandDimensions(ser.Key.State),
		Payload:        render(sealed.Payload),
	}
}
