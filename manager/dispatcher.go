// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package manager

import (
	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/matcher"
)

// OnEvent is the dispatcher's public contract (spec.md §4.1): it
// returns nothing and must not fail. After it returns, every matcher,
// condition, metric, and activation reflects event, and any bucket
// boundary crossed has rolled. Per-metric or per-condition failures
// are logged, not propagated — a single bad component never aborts
// the tick (spec.md §7 "errors never abort the dispatcher").
func (m *Manager) OnEvent(event *atom.Event) {
	if m.invalid != nil {
		return
	}

	// Step 2: credential check.
	if !m.credentialed(event) {
		return
	}

	// Step 3: expiration flush for every metric with activations.
	for i := range m.Metrics {
		if act := m.Metrics[i].Activation; act != nil {
			act.Flush(event.ElapsedTimeNs)
		}
	}

	// Step 4: tag index short-circuit — property 2, "no matcher,
	// condition, or metric is mutated" for an uninteresting tag.
	if _, ok := m.allowedTagIDs[event.TagID]; !ok {
		return
	}

	// Step 5: evaluate every matcher against this event. Set.Evaluate
	// memoizes per index, so re-entrant lookups from conditions and
	// metrics below are free (spec.md §8 invariant 3).
	mc := matcher.NewCache(len(m.Matchers.Matchers))
	for i := range m.Matchers.Matchers {
		if _, _, err := m.Matchers.Evaluate(i, event, mc); err != nil {
			m.logger.Error(err, "matcher evaluation failed", "index", i)
		}
	}

	// Steps 6-7: deactivation precedes activation for the same event
	// (spec.md §8 invariant 9).
	for _, e := range m.activationEdges {
		if e.Kind != EdgeDeactivate {
			continue
		}
		if mc.State(e.MatcherIndex) == matcher.Matched {
			m.Metrics[e.MetricIndex].Activation.Deactivate(e.RecordIndex)
		}
	}
	for _, e := range m.activationEdges {
		if e.Kind != EdgeActivate {
			continue
		}
		if mc.State(e.MatcherIndex) == matcher.Matched {
			m.Metrics[e.MetricIndex].Activation.Activate(e.RecordIndex, event.ElapsedTimeNs)
		}
	}
	for i := range m.Metrics {
		if act := m.Metrics[i].Activation; act != nil {
			act.Flush(event.ElapsedTimeNs)
		}
	}

	// Step 8: condition evaluation, topological order, only for
	// conditions whose inputs changed.
	if m.Conditions != nil {
		if _, err := m.Conditions.OnEvent(event, mc); err != nil {
			m.logger.Error(err, "condition evaluation failed")
		}
	}

	// Steps 9-10: every producer observes the tick and decides for
	// itself, via its Gate, whether the event and current condition
	// state warrant a bucket update. This folds the condition- and
	// matcher-notification passes into one traversal: producers read
	// already-updated condition state (step 8 ran first) and their own
	// matcher's memoized cache slot, so an explicit edge table for
	// steps 9/10 is unnecessary — see DESIGN.md for the fan-out
	// optimization of spec.md §4.5 this trades away.
	for i := range m.Metrics {
		if err := m.Metrics[i].Producer.OnEvent(event, mc); err != nil {
			m.logger.Error(err, "metric producer failed", "metric", m.Metrics[i].ID)
		}
	}
}

// credentialed implements spec.md §4.1 step 2: accept if the atom id
// is allowlisted, or the source is system-privileged, or the source
// uid is in the configured allowed set.
func (m *Manager) credentialed(event *atom.Event) bool {
	if _, ok := m.allowlistedTags[event.TagID]; ok {
		return true
	}
	if event.SourceUID == atom.SystemUID {
		return true
	}
	return m.allowedSources.Allows(event.SourceUID)
}
