// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/antimetal/metricscore/atom"
)

func TestStateManagerPublishDeliversToSubscribedTag(t *testing.T) {
	m := NewStateManager()
	var got *atom.Event
	m.Subscribe(1, func(event *atom.Event) { got = event })

	ev := &atom.Event{TagID: 1}
	m.Publish(ev)
	assert.Same(t, ev, got)
}

func TestStateManagerPublishIgnoresOtherTags(t *testing.T) {
	m := NewStateManager()
	called := false
	m.Subscribe(1, func(event *atom.Event) { called = true })

	m.Publish(&atom.Event{TagID: 2})
	assert.False(t, called)
}

func TestStateManagerUnsubscribeStopsDelivery(t *testing.T) {
	m := NewStateManager()
	called := false
	unsubscribe := m.Subscribe(1, func(event *atom.Event) { called = true })
	unsubscribe()

	m.Publish(&atom.Event{TagID: 1})
	assert.False(t, called)
}

func TestStateManagerMultipleListenersAllFire(t *testing.T) {
	m := NewStateManager()
	var calls int
	m.Subscribe(1, func(event *atom.Event) { calls++ })
	m.Subscribe(1, func(event *atom.Event) { calls++ })

	m.Publish(&atom.Event{TagID: 1})
	assert.Equal(t, 2, calls)
}

func TestStateManagerCloseStopsPublishAndSubscribe(t *testing.T) {
	m := NewStateManager()
	called := false
	m.Subscribe(1, func(event *atom.Event) { called = true })
	m.Close()

	unsubscribe := m.Subscribe(1, func(event *atom.Event) { called = true })
	unsubscribe()
	m.Publish(&atom.Event{TagID: 1})
	assert.False(t, called)
}
