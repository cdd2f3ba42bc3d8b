// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/metricscore/dimension"
)

func zeroInt() int { return 0 }

func TestStoreGetCreatesAndReuses(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	require.NotNil(t, ser)
	assert.Equal(t, key, ser.Key)

	ser.Current = 5
	again := s.Get("tok", 20, key)
	assert.Same(t, ser, again)
	assert.Equal(t, 5, again.Current)
}

func TestStoreLookupMissing(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	_, ok := s.Lookup("missing")
	assert.False(t, ok)
}

func TestStoreRollSealsCrossedBuckets(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	ser.Current = 1

	var sealedCount int
	s.Roll(ser, 130, func(sl Sealed[int]) { sealedCount++ }, nil)

	assert.Equal(t, 2, sealedCount, "buckets [0,60) and [60,120) both crossed by ts=130")
	assert.Len(t, ser.Sealed, 2)
	assert.Equal(t, 1, ser.Sealed[0].Payload, "sealed payload came from Current before the roll seeded a fresh zero")
	assert.Equal(t, int64(120), ser.Window.Start)
	assert.Equal(t, int64(180), ser.Window.End)
	assert.Equal(t, 0, ser.Current)
}

func TestStoreRollWithCarry(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	ser.Current = 7

	s.Roll(ser, 61, nil, func(prev int) int { return prev })

	require.Len(t, ser.Sealed, 1)
	assert.Equal(t, 7, ser.Sealed[0].Payload)
	assert.Equal(t, 7, ser.Current, "carry propagates the sealed value into the new bucket")
}

func TestStoreSplitPartial(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	ser.Current = 3

	s.SplitPartial(ser, 30, nil)

	require.Len(t, ser.Sealed, 1)
	assert.True(t, ser.Sealed[0].Partial)
	assert.Equal(t, int64(30), ser.Sealed[0].End)
	assert.Equal(t, 0, ser.Current)
	assert.Equal(t, int64(30), ser.Window.Start)
}

func TestStoreDrainSealedOnlyBelowThreshold(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	s.Roll(ser, 200, nil, nil) // seals [0,60) [60,120) [120,180)

	drained := s.DrainSealed(120)
	assert.Len(t, drained["tok"], 2, "only buckets ending at or before 120 drain")
	assert.Len(t, ser.Sealed, 1, "the [120,180) bucket remains")
}

func TestStorePeekSealedDoesNotRemove(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	s.Roll(ser, 130, nil, nil)

	peeked := s.PeekSealed()
	assert.Len(t, peeked["tok"], 2)
	assert.Len(t, ser.Sealed, 2, "peek is non-destructive")
}

func TestStoreResetCurrentDoesNotTouchSealed(t *testing.T) {
	s := NewStore(0, 0, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	ser.Current = 9

	s.ResetCurrent()
	assert.Equal(t, 0, ser.Current)
}

func TestStoreDeleteRemovesKey(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	s.Get("tok", 10, key)
	require.Equal(t, 1, s.Len())

	s.Delete("tok")
	assert.Equal(t, 0, s.Len())
}

func TestStoreFlushSealsElapsedBucketWithNoNewEvent(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	ser.Current = 5

	s.Flush(200)

	require.Len(t, ser.Sealed, 3, "buckets [0,60), [60,120), [120,180) all elapsed by nowNs=200 though no event touched them")
	assert.Equal(t, 5, ser.Sealed[0].Payload, "the last accumulated value carries into the first sealed bucket")
	assert.Equal(t, int64(180), ser.Window.Start)
	assert.Equal(t, int64(240), ser.Window.End)
	assert.Equal(t, 0, ser.Current)
}

func TestStoreFlushIsNoopBeforeBoundary(t *testing.T) {
	s := NewStore(0, 60, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	ser.Current = 5

	s.Flush(40)

	assert.Empty(t, ser.Sealed)
	assert.Equal(t, 5, ser.Current)
}

func TestStoreFlushIsNoopForInfiniteBucket(t *testing.T) {
	s := NewStore(0, BucketNsInfinite, zeroInt)
	key := dimension.MetricKey{What: dimension.Empty}
	ser := s.Get("tok", 10, key)
	ser.Current = 5

	s.Flush(1_000_000_000_000)

	assert.Empty(t, ser.Sealed)
	assert.Equal(t, 5, ser.Current)
}
