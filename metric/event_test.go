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
)

func TestEventProducerDeduplicatesIdenticalTuples(t *testing.T) {
	field := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	p := NewEventProducer(EventDef{ID: "e", WhatMatcher: 0}, newUnconditionalGate(), logr.Discard())

	for i := 0; i < 3; i++ {
		ev := &atom.Event{TagID: 1, ElapsedTimeNs: int64(i), Fields: []atom.FieldValue{
			{Path: field, Value: atom.StringValue("crash")},
		}}
		require.NoError(t, p.OnEvent(ev, cacheFor(t, ev)))
	}

	require.Equal(t, 1, p.Store().Len())
	for _, ser := range p.Store().All() {
		copies := ser.Current.Copies()
		require.Len(t, copies, 1, "identical field-value tuples fold into one copy")
		assert.Equal(t, []int64{0, 1, 2}, copies[0].ElapsedTimeNs)
	}
}

func TestEventProducerDistinctTuplesTracked(t *testing.T) {
	field := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	p := NewEventProducer(EventDef{ID: "e", WhatMatcher: 0}, newUnconditionalGate(), logr.Discard())

	for _, tag := range []string{"a", "b"} {
		ev := &atom.Event{TagID: 1, Fields: []atom.FieldValue{{Path: field, Value: atom.StringValue(tag)}}}
		require.NoError(t, p.OnEvent(ev, cacheFor(t, ev)))
	}
	for _, ser := range p.Store().All() {
		assert.Len(t, ser.Current.Copies(), 2)
	}
}

func TestEventProducerNeverSeals(t *testing.T) {
	field := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	p := NewEventProducer(EventDef{ID: "e", WhatMatcher: 0}, newUnconditionalGate(), logr.Discard())
	ev := &atom.Event{TagID: 1, ElapsedTimeNs: 1 << 40, Fields: []atom.FieldValue{{Path: field, Value: atom.StringValue("x")}}}
	require.NoError(t, p.OnEvent(ev, cacheFor(t, ev)))

	for _, ser := range p.Store().All() {
		assert.Empty(t, ser.Sealed, "event metrics use an infinite bucket, so nothing ever seals")
	}
}
