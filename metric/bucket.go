// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import "math"

// Recognized bucket widths (spec.md §6). BucketNsInfinite marks a
// metric whose bucket never rolls (an "effectively infinite" width).
const (
	BucketNsInfinite int64 = 0
	OneMinuteNs      int64 = 60_000_000_000
	FiveMinutesNs    int64 = 5 * OneMinuteNs
	TenMinutesNs     int64 = 10 * OneMinuteNs
	FifteenMinutesNs int64 = 15 * OneMinuteNs
	ThirtyMinutesNs  int64 = 30 * OneMinuteNs
	OneHourNs        int64 = 60 * OneMinuteNs
)

// Window is one metric-key's current (possibly partial) bucket span.
// All buckets record [Start, End) in elapsed nanoseconds (spec.md §3).
type Window struct {
	Start   int64
	End     int64
	Partial bool // true for a mid-bucket split (config update, app upgrade)
}

// Boundary computes the end of the bucket containing ts, per spec.md
// §4.4.6: floor((ts-timeBase)/bucketNs + 1) * bucketNs + timeBase. A
// non-positive bucketNs is treated as an infinite bucket.
func Boundary(ts, timeBase, bucketNs int64) int64 {
	if bucketNs <= 0 {
		return math.MaxInt64
	}
	n := (ts-timeBase)/bucketNs + 1
	return n*bucketNs + timeBase
}

// NewWindow returns the bucket window that contains ts, anchored to
// timeBase.
func NewWindow(ts, timeBase, bucketNs int64) Window {
	if bucketNs <= 0 {
		return Window{Start: timeBase, End: math.MaxInt64}
	}
	n := (ts - timeBase) / bucketNs
	start := timeBase + n*bucketNs
	return Window{Start: start, End: start + bucketNs}
}

// Next returns the following full-sized bucket window.
func (w Window) Next(bucketNs int64) Window {
	if bucketNs <= 0 {
		return Window{Start: w.End, End: math.MaxInt64}
	}
	return Window{Start: w.End, End: w.End + bucketNs}
}

// SplitAt truncates the window's end at ts and marks it partial — used
// when a configuration update or app-upgrade notification forces a
// bucket to seal before its normalized boundary (spec.md §4.4.6,
// §9 "Partial-bucket splits").
func (w Window) SplitAt(ts int64) Window {
	return Window{Start: w.Start, End: ts, Partial: true}
}
