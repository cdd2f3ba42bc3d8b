// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import (
	"github.com/antimetal/metricscore/activation"
	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/condition"
	"github.com/antimetal/metricscore/dimension"
)

// ConditionLink names the tracked condition and the field mapping used
// to resolve it at a given "what" dimension key, or reports that the
// metric is unconditional.
type ConditionLink struct {
	Set   bool
	Index int
	Link  FieldLink // Target must be LinkToCondition when Set
}

// Gate is the shared admission check every producer runs before it
// updates a bucket: is the metric active, is its condition true (at
// the event's slice, if sliced), and does the event survive sampling.
// Every producer holds exactly one of these instead of duplicating the
// three checks (spec.md §4.4: "activation, condition, sampling gate
// bucket updates, in that order conceptually — the dispatcher has
// already resolved condition state before the producer runs").
type Gate struct {
	activation *activation.Set
	wizard     condition.Wizard
	cond       ConditionLink
	sampler    *Sampler
}

// NewGate builds a gate. wizard and act may be zero-valued when the
// metric has no condition or activation configuration respectively;
// sampler may be nil to disable sampling.
func NewGate(act *activation.Set, wizard condition.Wizard, cond ConditionLink, sampler *Sampler) *Gate {
	return &Gate{activation: act, wizard: wizard, cond: cond, sampler: sampler}
}

// Passes reports whether event should update this metric's buckets,
// and if so, the condition-linked dimension key to fold into the
// metric's state-key (empty when the metric is unconditional).
func (g *Gate) Passes(event *atom.Event) (bool, dimension.Key, error) {
	if g.activation != nil && !g.activation.IsActive() {
		return false, dimension.Empty, nil
	}
	stateKey := dimension.Empty
	if g.cond.Set {
		ok, linkKey, err := EvalCondition(g.wizard, g.cond, event)
		if err != nil || !ok {
			return false, dimension.Empty, err
		}
		stateKey = linkKey
	}
	if g.sampler != nil {
		ok, err := g.sampler.Passes(event)
		if err != nil || !ok {
			return false, dimension.Empty, err
		}
	}
	return true, stateKey, nil
}

// EvalCondition resolves link's condition state for event, returning
// the resolved dimension key alongside the boolean result. It is used
// directly by Gate and standalone by producers (duration's condition
// timer, value's condition-gated time) that must observe condition
// state without it gating admission.
func EvalCondition(wizard condition.Wizard, link ConditionLink, event *atom.Event) (bool, dimension.Key, error) {
	linkKey, err := dimension.Build(event, link.Link.MetricFields)
	if err != nil {
		return false, dimension.Empty, err
	}
	var state condition.TriState
	if len(link.Link.MetricFields) == 0 {
		state = wizard.Overall(link.Index)
	} else {
		state = wizard.AtSlice(link.Index, linkKey)
	}
	return state.Bool(), linkKey, nil
}
