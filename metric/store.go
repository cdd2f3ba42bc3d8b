// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import "github.com/antimetal/metricscore/dimension"

// Sealed is one closed bucket for a metric key: the window it covers
// and its finalized payload.
type Sealed[V any] struct {
	Window
	Payload V
}

// Series is one metric key's bucket history: every sealed bucket plus
// the currently accumulating (possibly partial) one. Key is retained
// alongside the token-keyed map entry so reporting can expand
// dimension leaves back into labels (spec.md §6 "dimensions may be
// expanded... the path sent once") without re-deriving them from
// events.
type Series[V any] struct {
	Key     dimension.MetricKey
	Window  Window
	Current V
	Sealed  []Sealed[V]
}

// Store is a keyed collection of per-metric-key bucket series, shared
// by every producer kind. V is the producer's aggregate payload type
// (int for count, a struct for duration/value, a slice for
// gauge/event).
type Store[V any] struct {
	timeBase int64
	bucketNs int64
	zero     func() V
	series   map[string]*Series[V]
}

// NewStore builds an empty store. zero constructs a fresh accumulator
// for a new bucket.
func NewStore[V any](timeBase, bucketNs int64, zero func() V) *Store[V] {
	return &Store[V]{timeBase: timeBase, bucketNs: bucketNs, zero: zero, series: make(map[string]*Series[V])}
}

// Get returns the series for tok, creating it anchored at ts and
// tagged with key if absent.
func (s *Store[V]) Get(tok string, ts int64, key dimension.MetricKey) *Series[V] {
	ser, ok := s.series[tok]
	if !ok {
		ser = &Series[V]{Key: key, Window: NewWindow(ts, s.timeBase, s.bucketNs), Current: s.zero()}
		s.series[tok] = ser
	}
	return ser
}

// Lookup returns the series for tok without creating it.
func (s *Store[V]) Lookup(tok string) (*Series[V], bool) {
	ser, ok := s.series[tok]
	return ser, ok
}

// Len reports the number of distinct keys currently tracked.
func (s *Store[V]) Len() int { return len(s.series) }

// Delete drops a key's series entirely (used after erase_data, spec.md §7).
func (s *Store[V]) Delete(tok string) { delete(s.series, tok) }

// Roll advances ser's window forward until it contains ts, sealing
// every bucket boundary crossed along the way. onSeal is invoked once
// per sealed bucket in chronological order; carry, if non-nil,
// computes the next bucket's starting accumulator from the just-sealed
// one, otherwise the next bucket starts from zero(). The producers in
// this package all pass a nil carry.
func (s *Store[V]) Roll(ser *Series[V], ts int64, onSeal func(Sealed[V]), carry func(V) V) {
	for ts >= ser.Window.End {
		sealed := Sealed[V]{Window: ser.Window, Payload: ser.Current}
		if onSeal != nil {
			onSeal(sealed)
		}
		ser.Sealed = append(ser.Sealed, sealed)
		next := s.zero()
		if carry != nil {
			next = carry(ser.Current)
		}
		ser.Window = ser.Window.Next(s.bucketNs)
		ser.Current = next
	}
}

// Flush rolls every series' window forward to nowNs, sealing any bucket
// whose boundary has already elapsed even though no event has touched
// the series since. Without this, a metric that stops receiving
// matching events keeps its last bucket open indefinitely, invisible to
// a dump_latency=fast report (original_source/statsd
// DurationMetricProducer.cpp's flushIfNeededLocked/flushLocked, called
// unconditionally on dump). A no-op for infinite-bucket stores, whose
// window never reaches a boundary.
func (s *Store[V]) Flush(nowNs int64) {
	for _, ser := range s.series {
		s.Roll(ser, nowNs, nil, nil)
	}
}

// SplitPartial force-seals ser's current bucket at ts without it having
// reached its normalized boundary, marking it partial, and opens a new
// window that starts at ts and ends at the next normalized boundary,
// also marked partial because its start is not normalized (spec.md
// §4.4.6 "partial-bucket splits" — config updates, app-upgrade
// notifications).
func (s *Store[V]) SplitPartial(ser *Series[V], ts int64, onSeal func(Sealed[V])) {
	sealed := Sealed[V]{Window: ser.Window.SplitAt(ts), Payload: ser.Current}
	if onSeal != nil {
		onSeal(sealed)
	}
	ser.Sealed = append(ser.Sealed, sealed)
	next := NewWindow(ts, s.timeBase, s.bucketNs)
	ser.Window = Window{Start: ts, End: next.End, Partial: true}
	ser.Current = s.zero()
}

// ResetCurrent clears every key's still-accumulating bucket back to
// zero without sealing it, used to implement erase_data=true for
// infinite-bucket stores (event metrics, spec.md §4.4.5) whose data
// otherwise never passes through Sealed.
func (s *Store[V]) ResetCurrent() {
	for _, ser := range s.series {
		ser.Current = s.zero()
	}
}

// Keys returns every tracked key token, for guardrail admission checks
// and report iteration.
func (s *Store[V]) Keys() []string {
	out := make([]string, 0, len(s.series))
	for k := range s.series {
		out = append(out, k)
	}
	return out
}

// BucketNs reports the store's configured bucket width, used by
// reporting to render full-sized buckets as a bucket number instead
// of an explicit start/end pair.
func (s *Store[V]) BucketNs() int64 { return s.bucketNs }

// All returns every tracked series keyed by token, for report
// rendering. Callers must treat the result as read-only.
func (s *Store[V]) All() map[string]*Series[V] { return s.series }

// PeekSealed returns every sealed bucket across all keys without
// removing them, for erase_data=false reports (spec.md §8
// "reporting a bucket with erase_data=false twice produces identical
// bytes").
func (s *Store[V]) PeekSealed() map[string][]Sealed[V] {
	out := make(map[string][]Sealed[V])
	for tok, ser := range s.series {
		if len(ser.Sealed) > 0 {
			out[tok] = append([]Sealed[V](nil), ser.Sealed...)
		}
	}
	return out
}

// DrainSealed removes and returns every sealed bucket across all keys
// whose end is <= uptoNs, used by dump_latency=fast reporting
// (spec.md §7) to flush without waiting for the current bucket to
// close.
func (s *Store[V]) DrainSealed(uptoNs int64) map[string][]Sealed[V] {
	out := make(map[string][]Sealed[V])
	for tok, ser := range s.series {
		if len(ser.Sealed) == 0 {
			continue
		}
		var kept []Sealed[V]
		var drained []Sealed[V]
		for _, sl := range ser.Sealed {
			if sl.End <= uptoNs {
				drained = append(drained, sl)
			} else {
				kept = append(kept, sl)
			}
		}
		if len(drained) > 0 {
			out[tok] = drained
			ser.Sealed = kept
		}
	}
	return out
}
