// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package matcher

import (
	"fmt"

	"github.com/antimetal/metricscore/atom"
)

// State is the memoized result of evaluating one matcher against one
// event (spec.md §4.1 step 5).
type State uint8

const (
	NotComputed State = iota
	Matched
	NotMatched
)

// Cache holds the per-event matcher_state and matcher_transform arrays.
// A fresh Cache is allocated by the dispatcher for every event so that
// each matcher index is evaluated at most once per event (spec.md §8
// invariant 3).
type Cache struct {
	state     []State
	transform []*atom.Event
}

// NewCache allocates a cache sized for n matchers.
func NewCache(n int) *Cache {
	return &Cache{
		state:     make([]State, n),
		transform: make([]*atom.Event, n),
	}
}

// State returns the memoized state for matcher idx, or NotComputed if
// it hasn't been evaluated yet this event.
func (c *Cache) State(idx int) State { return c.state[idx] }

// Transform returns the transformed event for matcher idx, if any.
func (c *Cache) Transform(idx int) *atom.Event { return c.transform[idx] }

// Set is the ordered, topologically sorted matcher vector for one
// configuration.
type Set struct {
	Matchers []Matcher
}

// Validate checks every matcher's structural invariants.
func (s Set) Validate() error {
	for i, m := range s.Matchers {
		if err := m.Validate(i, len(s.Matchers)); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate computes (and memoizes in cache) whether matcher idx matches
// event, recursively evaluating combination inputs as needed. Already
// computed slots are reused, satisfying the at-most-once invariant even
// when multiple parents share a child.
func (s Set) Evaluate(idx int, event *atom.Event, cache *Cache) (bool, *atom.Event, error) {
	if idx < 0 || idx >= len(s.Matchers) {
		return false, nil, fmt.Errorf("matcher: index %d out of range", idx)
	}
	if st := cache.state[idx]; st != NotComputed {
		return st == Matched, cache.transform[idx], nil
	}

	m := s.Matchers[idx]
	var matched bool
	var transformed *atom.Event
	var err error

	switch m.Kind {
	case KindSimple:
		matched, err = m.Simple.evaluate(event)
		if err == nil && matched {
			transformed = m.Simple.transform(event)
		}
	case KindCombination:
		matched, err = s.evaluateCombination(*m.Combination, event, cache)
	default:
		err = fmt.Errorf("matcher: unknown kind %d", m.Kind)
	}

	if err != nil {
		return false, nil, err
	}

	if matched {
		cache.state[idx] = Matched
	} else {
		cache.state[idx] = NotMatched
	}
	cache.transform[idx] = transformed
	return matched, transformed, nil
}

func (s Set) evaluateCombination(c Combination, event *atom.Event, cache *Cache) (bool, error) {
	switch c.Op {
	case OpAnd:
		for _, child := range c.Children {
			matched, _, err := s.Evaluate(child, event, cache)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil // short-circuit on first not_matched
			}
		}
		return true, nil
	case OpOr:
		for _, child := range c.Children {
			matched, _, err := s.Evaluate(child, event, cache)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil // short-circuit on first matched
			}
		}
		return false, nil
	case OpNot:
		matched, _, err := s.Evaluate(c.Children[0], event, cache)
		if err != nil {
			return false, err
		}
		return !matched, nil
	default:
		return false, fmt.Errorf("matcher: unknown logical op %d", c.Op)
	}
}
