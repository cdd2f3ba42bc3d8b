// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package condition implements the stateful predicate layer: simple
// two-matcher state machines optionally sliced by dimension, and
// combination conditions that compose them with a boolean formula. The
// Wizard answers per-slice queries over the condition vector.
package condition

import (
	"fmt"

	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/dimension"
	"github.com/antimetal/metricscore/matcher"
)

// TriState is a condition slice's value: unknown (never observed),
// false, or true.
type TriState uint8

const (
	Unknown TriState = iota
	False
	True
)

// Bool widens a TriState to bool, treating Unknown as false — the
// simplification the wizard and combination formulas use throughout
// (spec.md §4.3 leaves this unspecified; see DESIGN.md).
func (t TriState) Bool() bool { return t == True }

func fromBool(b bool) TriState {
	if b {
		return True
	}
	return False
}

// Kind discriminates a condition's variant.
type Kind uint8

const (
	KindSimple Kind = iota
	KindCombination
)

// LogicalOp is the boolean connective a combination condition applies.
type LogicalOp uint8

const (
	OpAnd LogicalOp = iota
	OpOr
	OpNot
)

// Simple is a two-matcher predicate state machine, optionally sliced by
// dimension (spec.md §4.3).
type Simple struct {
	StartMatcher     int
	StopMatcher      int
	StopAllMatcher   int // -1 if none configured
	InitialValue     bool
	Nesting          bool
	DimensionsInWhat []atom.FieldPath // empty: unsliced, single implicit slice
}

// Combination composes child conditions (by index) with a logical
// operator. NOT takes exactly one child.
type Combination struct {
	Op       LogicalOp
	Children []int
}

// Condition is one node of the acyclic condition dependency graph.
// Combination conditions are topologically later than every condition
// they reference (spec.md §3 invariant).
type Condition struct {
	Name        string
	Kind        Kind
	Simple      *Simple
	Combination *Combination
}

func (c Condition) validate(idx, n int) error {
	switch c.Kind {
	case KindSimple:
		if c.Simple == nil {
			return fmt.Errorf("condition %q: simple condition missing body", c.Name)
		}
	case KindCombination:
		if c.Combination == nil {
			return fmt.Errorf("condition %q: combination condition missing body", c.Name)
		}
		if c.Combination.Op == OpNot && len(c.Combination.Children) != 1 {
			return fmt.Errorf("condition %q: NOT requires exactly one child", c.Name)
		}
		if len(c.Combination.Children) == 0 {
			return fmt.Errorf("condition %q: combination condition has no children", c.Name)
		}
		for _, child := range c.Combination.Children {
			if child < 0 || child >= n {
				return fmt.Errorf("condition %q: child index %d out of range", c.Name, child)
			}
			if child >= idx {
				return fmt.Errorf("condition %q: child index %d is not topologically earlier", c.Name, child)
			}
		}
	default:
		return fmt.Errorf("condition %q: unknown kind %d", c.Name, c.Kind)
	}
	return nil
}

// tracker is the runtime state backing one condition, regardless of
// kind.
type tracker interface {
	// evaluate is called only when at least one input (matcher, for
	// Simple; child condition, for Combination) changed on this event.
	// It returns whether the tracker's observable state changed.
	evaluate(event *atom.Event, ms matcher.Set, mc *matcher.Cache, set *Set) (bool, error)
	overall() TriState
	slice(key dimension.Key) TriState
	changedToTrue() []dimension.Key
	changedToFalse() []dimension.Key
	resetDeltas()
}

// Set is the ordered, topologically sorted condition vector for one
// configuration, plus its runtime trackers.
type Set struct {
	Conditions []Condition
	Matchers   matcher.Set

	trackers []tracker
}

// NewSet validates the condition vector and builds trackers, seeding
// every condition's initial state bottom-up against an empty history
// (spec.md §4.3 "initial condition cache"), so a metric created
// mid-stream computes its first bucket correctly.
func NewSet(conditions []Condition, matchers matcher.Set) (*Set, error) {
	for i, c := range conditions {
		if err := c.validate(i, len(conditions)); err != nil {
			return nil, err
		}
	}

	s := &Set{
		Conditions: conditions,
		Matchers:   matchers,
		trackers:   make([]tracker, len(conditions)),
	}
	for i, c := range conditions {
		switch c.Kind {
		case KindSimple:
			s.trackers[i] = newSimpleTracker(*c.Simple)
		case KindCombination:
			s.trackers[i] = newCombinationTracker(*c.Combination, s)
		}
	}
	return s, nil
}

// Overall returns condition idx's current overall state.
func (s *Set) Overall(idx int) TriState { return s.trackers[idx].overall() }

// Slice returns condition idx's state at dimension key.
func (s *Set) Slice(idx int, key dimension.Key) TriState { return s.trackers[idx].slice(key) }

// ChangedToTrue returns the slices of condition idx that flipped to
// true during the last OnEvent call.
func (s *Set) ChangedToTrue(idx int) []dimension.Key { return s.trackers[idx].changedToTrue() }

// ChangedToFalse returns the slices of condition idx that flipped to
// false during the last OnEvent call.
func (s *Set) ChangedToFalse(idx int) []dimension.Key { return s.trackers[idx].changedToFalse() }

// OnEvent re-evaluates every condition whose inputs changed on this
// event (matched matchers for Simple, changed children for
// Combination), in index order since dependencies are topological. It
// returns the set of condition indices whose observable state changed,
// in ascending order (spec.md §4.1 step 8).
func (s *Set) OnEvent(event *atom.Event, mc *matcher.Cache) ([]int, error) {
	for _, t := range s.trackers {
		t.resetDeltas()
	}

	changed := make([]bool, len(s.trackers))
	var order []int
	for i, c := range s.Conditions {
		var needsEval bool
		switch c.Kind {
		case KindSimple:
			needsEval = matcherMatched(mc, c.Simple.StartMatcher) ||
				matcherMatched(mc, c.Simple.StopMatcher) ||
				(c.Simple.StopAllMatcher >= 0 && matcherMatched(mc, c.Simple.StopAllMatcher))
		case KindCombination:
			for _, child := range c.Combination.Children {
				if changed[child] {
					needsEval = true
					break
				}
			}
		}
		if !needsEval {
			continue
		}
		did, err := s.trackers[i].evaluate(event, s.Matchers, mc, s)
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", c.Name, err)
		}
		if did {
			changed[i] = true
			order = append(order, i)
		}
	}
	return order, nil
}

func matcherMatched(mc *matcher.Cache, idx int) bool {
	return idx >= 0 && mc.State(idx) == matcher.Matched
}
