// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package condition

import "github.com/antimetal/metricscore/dimension"

// Wizard is a stateless helper over a Set answering the queries a
// sliced metric needs: overall state, per-slice state, and which
// slices changed to true/false during the last event (spec.md §4.3,
// §9). It holds no state of its own — it is a thin, allocation-free
// view over the condition vector's trackers.
type Wizard struct {
	set *Set
}

// NewWizard returns a wizard bound to set.
func NewWizard(set *Set) Wizard { return Wizard{set: set} }

// Overall returns condition idx's overall state.
func (w Wizard) Overall(idx int) TriState { return w.set.Overall(idx) }

// AtSlice answers "what is the state of condition idx at slice key",
// substituting key into idx's sliced descendants.
func (w Wizard) AtSlice(idx int, key dimension.Key) TriState { return w.set.Slice(idx, key) }

// ChangedToTrue returns the dimension keys of condition idx that
// flipped to true on the last event.
func (w Wizard) ChangedToTrue(idx int) []dimension.Key { return w.set.ChangedToTrue(idx) }

// ChangedToFalse returns the dimension keys of condition idx that
// flipped to false on the last event.
func (w Wizard) ChangedToFalse(idx int) []dimension.Key { return w.set.ChangedToFalse(idx) }

// SlicesCoverFully reports whether condition idx is a Simple condition
// whose DimensionsInWhat matches linkDims exactly (order-insensitive on
// field number), which is the precondition for the metric fan-out
// optimization in spec.md §4.5: the wizard can then hand the metric its
// dimension deltas directly instead of a full tracker sweep.
func (w Wizard) SlicesCoverFully(idx int, linkDims []int) bool {
	c := w.set.Conditions[idx]
	if c.Kind != KindSimple {
		return false
	}
	if len(c.Simple.DimensionsInWhat) != len(linkDims) {
		return false
	}
	have := make(map[uint32]int, len(linkDims))
	for _, p := range c.Simple.DimensionsInWhat {
		have[p.FieldNumber]++
	}
	for _, f := range linkDims {
		if have[uint32(f)] == 0 {
			return false
		}
		have[uint32(f)]--
	}
	return true
}
