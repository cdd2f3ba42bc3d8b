// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/metricscore/activation"
	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/condition"
	"github.com/antimetal/metricscore/matcher"
)

// whatMatcherSet (one simple matcher on atom tag 1) is used by every producer test in this
// package that needs a real, evaluated matcher.Cache instead of a
// hand-built one (Cache's fields are unexported).
var whatMatcherSet = matcher.Set{Matchers: []matcher.Matcher{
	{Name: "what", Kind: matcher.KindSimple, Simple: &matcher.Simple{AtomID: 1}},
}}

func cacheFor(t *testing.T, ev *atom.Event) *matcher.Cache {
	t.Helper()
	require.NoError(t, whatMatcherSet.Validate())
	cache := matcher.NewCache(len(whatMatcherSet.Matchers))
	_, _, err := whatMatcherSet.Evaluate(0, ev, cache)
	require.NoError(t, err)
	return cache
}

func TestCountProducerIgnoresUnmatchedEvents(t *testing.T) {
	p := NewCountProducer(CountDef{ID: "c", WhatMatcher: 0, BucketNs: 60}, newUnconditionalGate(), logr.Discard())
	cache := cacheFor(t, &atom.Event{TagID: 2})
	require.NoError(t, p.OnEvent(&atom.Event{TagID: 2}, cache))
	assert.Equal(t, 0, p.Store().Len())
}

func TestCountProducerIncrementsOnMatch(t *testing.T) {
	p := NewCountProducer(CountDef{ID: "c", WhatMatcher: 0, BucketNs: 60}, newUnconditionalGate(), logr.Discard())

	for i := 0; i < 3; i++ {
		ev := &atom.Event{TagID: 1, ElapsedTimeNs: int64(i)}
		require.NoError(t, p.OnEvent(ev, cacheFor(t, ev)))
	}
	assert.Equal(t, 1, p.Store().Len())
	for _, ser := range p.Store().All() {
		assert.Equal(t, 3, ser.Current)
	}
}

func TestCountProducerBlockedByInactiveGate(t *testing.T) {
	act := activation.NewSet([]activation.Def{{MatcherIndex: 0}})
	gate := NewGate(act, condition.Wizard{}, ConditionLink{}, nil)
	p := NewCountProducer(CountDef{ID: "c", WhatMatcher: 0, BucketNs: 60}, gate, logr.Discard())
	ev := &atom.Event{TagID: 1}
	require.NoError(t, p.OnEvent(ev, cacheFor(t, ev)))
	assert.Equal(t, 0, p.Store().Len())
}

func TestCountProducerHardGuardrailDropsNewKeys(t *testing.T) {
	dim := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	p := NewCountProducer(CountDef{
		ID: "c", WhatMatcher: 0, BucketNs: 60,
		DimensionsInWhat: []atom.FieldPath{dim},
		Guardrails:       Guardrails{Hard: 1},
	}, newUnconditionalGate(), logr.Discard())

	ev1 := &atom.Event{TagID: 1, Fields: []atom.FieldValue{{Path: dim, Value: atom.Int32Value(1)}}}
	ev2 := &atom.Event{TagID: 1, Fields: []atom.FieldValue{{Path: dim, Value: atom.Int32Value(2)}}}
	require.NoError(t, p.OnEvent(ev1, cacheFor(t, ev1)))
	require.NoError(t, p.OnEvent(ev2, cacheFor(t, ev2)))

	assert.Equal(t, 1, p.Store().Len(), "second distinct key blocked by the hard limit")
	assert.True(t, p.GuardrailHit())
}
