// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package dimension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/metricscore/atom"
)

func TestBuildAndEqual(t *testing.T) {
	path := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	ev := &atom.Event{Fields: []atom.FieldValue{{Path: path, Value: atom.Int32Value(7)}}}

	k1, err := Build(ev, []atom.FieldPath{path})
	require.NoError(t, err)
	k2, err := Build(ev, []atom.FieldPath{path})
	require.NoError(t, err)

	assert.True(t, k1.Equal(k2))
	assert.Equal(t, k1.Token(), k2.Token())
}

func TestBuildMissingFieldErrors(t *testing.T) {
	path := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	ev := &atom.Event{}
	_, err := Build(ev, []atom.FieldPath{path})
	assert.Error(t, err)
}

func TestKeyTokenDistinguishesDistinctKeys(t *testing.T) {
	path := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	k1 := Key{Values: []atom.FieldValue{{Path: path, Value: atom.Int32Value(1)}}}
	k2 := Key{Values: []atom.FieldValue{{Path: path, Value: atom.Int32Value(2)}}}
	assert.NotEqual(t, k1.Token(), k2.Token())
	assert.False(t, k1.Equal(k2))
}

func TestHash64Deterministic(t *testing.T) {
	path := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	k := Key{Values: []atom.FieldValue{{Path: path, Value: atom.Int32Value(3)}}}
	assert.Equal(t, k.Hash64(), k.Hash64())
}

func TestMetricKeyToken(t *testing.T) {
	path := atom.FieldPath{AtomTag: 1, FieldNumber: 1}
	what := Key{Values: []atom.FieldValue{{Path: path, Value: atom.Int32Value(1)}}}
	state := Key{Values: []atom.FieldValue{{Path: path, Value: atom.Int32Value(2)}}}

	mk1 := MetricKey{What: what, State: state}
	mk2 := MetricKey{What: what, State: state}
	mk3 := MetricKey{What: what, State: Empty}

	assert.Equal(t, mk1.Token(), mk2.Token())
	assert.NotEqual(t, mk1.Token(), mk3.Token())
	assert.True(t, mk1.Equal(mk2))
}

func TestSortedLabels(t *testing.T) {
	k := Key{Values: []atom.FieldValue{
		{Path: atom.FieldPath{FieldNumber: 2}, Value: atom.StringValue("b")},
		{Path: atom.FieldPath{FieldNumber: 1}, Value: atom.StringValue("a")},
	}}
	labels := k.SortedLabels()
	require.Len(t, labels, 2)
	assert.Equal(t, "1=a", labels[0])
	assert.Equal(t, "2=b", labels[1])
}
