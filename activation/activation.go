// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package activation implements the per-metric activation state
// machine: a set of matcher-triggered records, each with an optional
// TTL, whose disjunction gates whether a metric processes events.
package activation

// State is one activation record's lifecycle state.
type State uint8

const (
	NotSet State = iota
	Active
	Expired
)

// Def is the static definition of one activation edge: the matcher
// that triggers it and its time-to-live (0 means always-on once
// triggered — it never auto-expires, only explicit deactivation
// matchers cancel it).
type Def struct {
	MatcherIndex int
	TTLNs        int64
}

type record struct {
	def         Def
	state       State
	activatedAt int64
}

// Set is a metric's activation map (spec.md §3): one record per
// configured activation edge.
type Set struct {
	records []*record
}

// NewSet builds an activation set from its definitions. A metric with
// no activation defs is always active (spec.md "isActive() is ... true
// if it has none").
func NewSet(defs []Def) *Set {
	records := make([]*record, len(defs))
	for i, d := range defs {
		records[i] = &record{def: d}
	}
	return &Set{records: records}
}

// Len returns the number of activation records.
func (s *Set) Len() int { return len(s.records) }

// Activate triggers activation i at time nowNs. Deactivation of the
// same event is applied before activation by the caller (dispatcher),
// per spec.md §8 invariant 9.
func (s *Set) Activate(i int, nowNs int64) {
	r := s.records[i]
	r.state = Active
	r.activatedAt = nowNs
}

// Deactivate cancels activation i immediately, regardless of TTL.
func (s *Set) Deactivate(i int) {
	s.records[i].state = NotSet
}

// Flush expires any TTL'd active record whose deadline has passed as
// of nowNs. Must be called before processing an event (spec.md §4.1
// step 3).
func (s *Set) Flush(nowNs int64) {
	for _, r := range s.records {
		if r.state == Active && r.def.TTLNs > 0 && nowNs-r.activatedAt >= r.def.TTLNs {
			r.state = Expired
		}
	}
}

// IsActive reports the metric's overall activation state: the OR over
// every record, or true if there are no activation records at all.
func (s *Set) IsActive() bool {
	if len(s.records) == 0 {
		return true
	}
	for _, r := range s.records {
		if r.state == Active {
			return true
		}
	}
	return false
}

// State returns activation i's current lifecycle state.
func (s *Set) State(i int) State { return s.records[i].state }
