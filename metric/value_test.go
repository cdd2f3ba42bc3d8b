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

	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/condition"
	"github.com/antimetal/metricscore/matcher"
)

func valueEvent(v int32) *atom.Event {
	return &atom.Event{TagID: 1, Fields: []atom.FieldValue{
		{Path: atom.FieldPath{AtomTag: 1, FieldNumber: 1}, Value: atom.Int32Value(v)},
	}}
}

func TestValueAccumResultByAggregation(t *testing.T) {
	v := ValueAccum{Sum: 10, Min: 1, Max: 5, Count: 3, First: 2, Last: 4}
	assert.Equal(t, 10.0, v.Result(AggSum))
	assert.Equal(t, 1.0, v.Result(AggMin))
	assert.Equal(t, 5.0, v.Result(AggMax))
	assert.InDelta(t, 10.0/3, v.Result(AggAvg), 1e-9)
	assert.Equal(t, 2.0, v.Result(AggDiff))
}

func TestValueAccumEmptyResultIsZero(t *testing.T) {
	var v ValueAccum
	assert.Equal(t, 0.0, v.Result(AggSum))
}

func TestValueProducerFoldsObservations(t *testing.T) {
	field := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	p := NewValueProducer(ValueDef{ID: "v", WhatMatcher: 0, ValueField: field, BucketNs: 60, Aggregation: AggAvg},
		newUnconditionalGate(), condition.Wizard{}, ConditionLink{}, logr.Discard())

	for _, val := range []int32{10, 20, 30} {
		ev := valueEvent(val)
		require.NoError(t, p.OnEvent(ev, cacheFor(t, ev)))
	}

	require.Equal(t, 1, p.Store().Len())
	for _, ser := range p.Store().All() {
		assert.Equal(t, int64(3), ser.Current.Count)
		assert.Equal(t, 20.0, ser.Current.Result(AggAvg))
		assert.Equal(t, 10.0, ser.Current.Min)
		assert.Equal(t, 30.0, ser.Current.Max)
	}
}

func TestValueProducerSkipsNonNumericField(t *testing.T) {
	field := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	p := NewValueProducer(ValueDef{ID: "v", WhatMatcher: 0, ValueField: field, BucketNs: 60}, newUnconditionalGate(), condition.Wizard{}, ConditionLink{}, logr.Discard())

	ev := &atom.Event{TagID: 1, Fields: []atom.FieldValue{{Path: field, Value: atom.StringValue("nope")}}}
	require.NoError(t, p.OnEvent(ev, cacheFor(t, ev)))
	assert.Equal(t, 0, p.Store().Len())
}

func TestValueProducerSkipsMissingField(t *testing.T) {
	field := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	p := NewValueProducer(ValueDef{ID: "v", WhatMatcher: 0, ValueField: field, BucketNs: 60}, newUnconditionalGate(), condition.Wizard{}, ConditionLink{}, logr.Discard())

	ev := &atom.Event{TagID: 1}
	require.NoError(t, p.OnEvent(ev, cacheFor(t, ev)))
	assert.Equal(t, 0, p.Store().Len())
}

func TestValueProducerConditionTimerTracksSeparateFromCount(t *testing.T) {
	field := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	ms := matcher.Set{Matchers: []matcher.Matcher{
		{Name: "what", Kind: matcher.KindSimple, Simple: &matcher.Simple{AtomID: 1}},
		{Name: "cond_start", Kind: matcher.KindSimple, Simple: &matcher.Simple{AtomID: 10}},
		{Name: "cond_stop", Kind: matcher.KindSimple, Simple: &matcher.Simple{AtomID: 11}},
	}}
	condSet, err := condition.NewSet([]condition.Condition{
		{Name: "cond", Kind: condition.KindSimple, Simple: &condition.Simple{StartMatcher: 1, StopMatcher: 2, StopAllMatcher: -1}},
	}, ms)
	require.NoError(t, err)
	wizard := condition.NewWizard(condSet)
	link := ConditionLink{Set: true, Index: 0, Link: FieldLink{Target: LinkToCondition}}

	p := NewValueProducer(ValueDef{ID: "v", WhatMatcher: 0, ValueField: field, BucketNs: 60, Aggregation: AggSum},
		newUnconditionalGate(), wizard, link, logr.Discard())

	cacheForAll := func(ev *atom.Event) *matcher.Cache {
		require.NoError(t, ms.Validate())
		cache := matcher.NewCache(len(ms.Matchers))
		for i := range ms.Matchers {
			_, _, err := ms.Evaluate(i, ev, cache)
			require.NoError(t, err)
		}
		return cache
	}

	condOn := &atom.Event{TagID: 10, ElapsedTimeNs: 5}
	require.NoError(t, evalAndAdvance(ms, condSet, condOn))
	require.NoError(t, p.OnEvent(condOn, cacheForAll(condOn)))

	condOff := &atom.Event{TagID: 11, ElapsedTimeNs: 25}
	require.NoError(t, evalAndAdvance(ms, condSet, condOff))
	require.NoError(t, p.OnEvent(condOff, cacheForAll(condOff)))

	require.Equal(t, 1, p.Store().Len())
	for _, ser := range p.Store().All() {
		assert.Equal(t, int64(20), ser.Current.ConditionNs)
		assert.Equal(t, int64(0), ser.Current.Count, "the what matcher never fired, so no value accumulates")
	}
}
