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

// combinationTracker is the runtime state for a Combination condition:
// it has no slices of its own, only a formula recomputed over its
// children's overall state.
type combinationTracker struct {
	def combinationDef
	set *Set

	value   bool
	toTrue  []dimension.Key
	toFalse []dimension.Key
}

// combinationDef mirrors Combination; kept as a value type so the
// tracker doesn't hold a pointer back into the immutable config.
type combinationDef struct {
	Op       LogicalOp
	Children []int
}

func newCombinationTracker(def Combination, set *Set) *combinationTracker {
	t := &combinationTracker{
		def: combinationDef{Op: def.Op, Children: append([]int(nil), def.Children...)},
		set: set,
	}
	t.value = t.compute()
	return t
}

func (t *combinationTracker) compute() bool {
	switch t.def.Op {
	case OpAnd:
		for _, c := range t.def.Children {
			if !t.set.trackers[c].overall().Bool() {
				return false
			}
		}
		return true
	case OpOr:
		for _, c := range t.def.Children {
			if t.set.trackers[c].overall().Bool() {
				return true
			}
		}
		return false
	case OpNot:
		return !t.set.trackers[t.def.Children[0]].overall().Bool()
	default:
		return false
	}
}

// computeAt evaluates the formula substituting key into every child
// that has a slice at key, falling back to the child's overall state
// otherwise — this is the wizard's per-slice substitution query
// (spec.md §4.3).
func (t *combinationTracker) computeAt(key dimension.Key) TriState {
	values := make([]TriState, len(t.def.Children))
	for i, c := range t.def.Children {
		if s := t.set.trackers[c].slice(key); s != Unknown {
			values[i] = s
		} else {
			values[i] = t.set.trackers[c].overall()
		}
	}
	switch t.def.Op {
	case OpAnd:
		for _, v := range values {
			if !v.Bool() {
				return False
			}
		}
		return True
	case OpOr:
		for _, v := range values {
			if v.Bool() {
				return True
			}
		}
		return False
	case OpNot:
		return fromBool(!values[0].Bool())
	default:
		return Unknown
	}
}

func (t *combinationTracker) resetDeltas() {
	t.toTrue = nil
	t.toFalse = nil
}

func (t *combinationTracker) overall() TriState { return fromBool(t.value) }

// slice delegates to computeAt: a combination condition has no slices
// of its own, but the wizard can still ask "what would this formula
// evaluate to at key K" by substituting K into sliced children.
func (t *combinationTracker) slice(key dimension.Key) TriState { return t.computeAt(key) }

func (t *combinationTracker) changedToTrue() []dimension.Key  { return t.toTrue }
func (t *combinationTracker) changedToFalse() []dimension.Key { return t.toFalse }

func (t *combinationTracker) evaluate(_ *atom.Event, _ matcher.Set, _ *matcher.Cache, _ *Set) (bool, error) {
	before := t.value
	t.value = t.compute()
	if t.value == before {
		return false, nil
	}
	if t.value {
		t.toTrue = append(t.toTrue, dimension.Empty)
	} else {
		t.toFalse = append(t.toFalse, dimension.Empty)
	}
	return true, nil
}
