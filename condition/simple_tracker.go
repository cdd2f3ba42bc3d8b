// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package condition

import (
	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/dimension"
	"github.com/antimetal/metricscore/matcher"
)

// slotState is one dimension slice's nesting-aware boolean state.
type slotState struct {
	key   dimension.Key
	value bool
	count int // outstanding starts; nesting disabled saturates at 1
}

// simpleTracker is the runtime state for a Simple condition.
type simpleTracker struct {
	def Simple

	slots map[string]*slotState

	toTrue  []dimension.Key
	toFalse []dimension.Key
}

func newSimpleTracker(def Simple) *simpleTracker {
	t := &simpleTracker{
		def:   def,
		slots: make(map[string]*slotState),
	}
	if def.InitialValue {
		// Seed the unsliced (or default) slot so Overall reflects the
		// configured initial value before any event arrives, per the
		// "initial condition cache" rule.
		s := t.slot(dimension.Empty)
		s.value = true
		if !def.Nesting {
			s.count = 1
		}
	}
	return t
}

func (t *simpleTracker) slot(key dimension.Key) *slotState {
	tok := key.Token()
	s, ok := t.slots[tok]
	if !ok {
		s = &slotState{key: key, value: t.def.InitialValue}
		t.slots[tok] = s
	}
	return s
}

func (t *simpleTracker) resetDeltas() {
	t.toTrue = nil
	t.toFalse = nil
}

func (t *simpleTracker) overall() TriState {
	if len(t.def.DimensionsInWhat) == 0 {
		return fromBool(t.slot(dimension.Empty).value)
	}
	// A sliced simple condition's "overall" state is true iff any slice
	// is currently true.
	for _, s := range t.slots {
		if s.value {
			return True
		}
	}
	return False
}

func (t *simpleTracker) slice(key dimension.Key) TriState {
	tok := key.Token()
	s, ok := t.slots[tok]
	if !ok {
		return Unknown
	}
	return fromBool(s.value)
}

func (t *simpleTracker) changedToTrue() []dimension.Key  { return t.toTrue }
func (t *simpleTracker) changedToFalse() []dimension.Key { return t.toFalse }

func (t *simpleTracker) evaluate(event *atom.Event, ms matcher.Set, mc *matcher.Cache, _ *Set) (bool, error) {
	stopAll := t.def.StopAllMatcher >= 0 && mc.State(t.def.StopAllMatcher) == matcher.Matched
	if stopAll {
		return t.applyStopAll(), nil
	}

	started := mc.State(t.def.StartMatcher) == matcher.Matched
	stopped := mc.State(t.def.StopMatcher) == matcher.Matched
	if !started && !stopped {
		return false, nil
	}

	key, err := t.sliceKey(event, started)
	if err != nil {
		return false, err
	}
	slot := t.slot(key)
	before := slot.value

	// Deactivation always precedes activation for the same event
	// (spec.md §8 invariant 9), so a stop is applied before a start.
	if stopped {
		if slot.count > 0 {
			slot.count--
		}
		if slot.count == 0 {
			slot.value = false
		}
	}
	if started {
		if t.def.Nesting {
			slot.count++
		} else if slot.count == 0 {
			slot.count = 1
		}
		slot.value = true
	}

	if slot.value != before {
		if slot.value {
			t.toTrue = append(t.toTrue, slot.key)
		} else {
			t.toFalse = append(t.toFalse, slot.key)
		}
		return true, nil
	}
	return false, nil
}

// applyStopAll forces every known slice to false regardless of nesting
// count, per spec.md §4.3.
func (t *simpleTracker) applyStopAll() bool {
	changed := false
	for _, s := range t.slots {
		if s.value {
			s.value = false
			s.count = 0
			t.toFalse = append(t.toFalse, s.key)
			changed = true
		}
	}
	return changed
}

func (t *simpleTracker) sliceKey(event *atom.Event, started bool) (dimension.Key, error) {
	if len(t.def.DimensionsInWhat) == 0 {
		return dimension.Empty, nil
	}
	return dimension.Build(event, t.def.DimensionsInWhat)
}
