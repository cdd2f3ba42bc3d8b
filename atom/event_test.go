// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package atom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventFind(t *testing.T) {
	path := FieldPath{AtomTag: 10, FieldNumber: 1}
	ev := &Event{Fields: []FieldValue{{Path: path, Value: Int32Value(5)}}}

	v, ok := ev.Find(path)
	assert.True(t, ok)
	assert.Equal(t, Int32Value(5), v)

	_, ok = ev.Find(FieldPath{AtomTag: 10, FieldNumber: 2})
	assert.False(t, ok)
}

func TestEventFindAtDepth(t *testing.T) {
	pFirst := FieldPath{AtomTag: 10, Depth: 1, FieldNumber: 1}
	pLast := pFirst.WithPosition(PositionLast)
	ev := &Event{Fields: []FieldValue{
		{Path: pFirst, Value: StringValue("a")},
		{Path: pLast, Value: StringValue("b")},
	}}

	got := ev.FindAtDepth(FieldPath{AtomTag: 10, Depth: 1, FieldNumber: 1})
	assert.Len(t, got, 2)
}

func TestEventCloneIsIndependent(t *testing.T) {
	ev := &Event{Fields: []FieldValue{{Path: FieldPath{FieldNumber: 1}, Value: Int32Value(1)}}}
	clone := ev.Clone()
	clone.Fields[0].Value = Int32Value(2)
	assert.Equal(t, Int32Value(1), ev.Fields[0].Value)
}

func TestEventWithField(t *testing.T) {
	path := FieldPath{AtomTag: 1, FieldNumber: 1}
	ev := &Event{Fields: []FieldValue{{Path: path, Value: Int32Value(1)}}}

	replaced := ev.WithField(path, Int32Value(99))
	assert.Equal(t, Int32Value(99), replaced.Fields[0].Value)
	assert.Equal(t, Int32Value(1), ev.Fields[0].Value)

	appended := ev.WithField(FieldPath{AtomTag: 1, FieldNumber: 2}, StringValue("new"))
	assert.Len(t, appended.Fields, 2)
}
