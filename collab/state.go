// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collab

import (
	"sync"

	"github.com/antimetal/metricscore/atom"
)

// StateListener receives sliced-state atoms ahead of the log event
// that triggered them (spec.md §6 "listeners receive state-change
// events prior to the triggering log event").
type StateListener func(event *atom.Event)

// StateManager is a reference implementation of the sliced-state
// subscription collaborator (spec.md §6
// "StateManager.subscribe(atom_id, listener)"), grounded on the
// teacher's subscriptions type in internal/config/subscription.go.
type StateManager struct {
	mu        sync.RWMutex
	listeners map[uint32][]StateListener
	closed    bool
}

// NewStateManager returns an empty state manager.
func NewStateManager() *StateManager {
	return &StateManager{listeners: make(map[uint32][]StateListener)}
}

// Subscribe registers listener to receive every state-change event
// for atomID. Returns an unsubscribe function.
func (m *StateManager) Subscribe(atomID uint32, listener StateListener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}
	m.listeners[atomID] = append(m.listeners[atomID], listener)
	idx := len(m.listeners[atomID]) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		ls := m.listeners[atomID]
		if idx < len(ls) {
			ls[idx] = nil
		}
	}
}

// Publish delivers event to every listener subscribed to event.TagID,
// ahead of the caller feeding event itself into the dispatcher.
func (m *StateManager) Publish(event *atom.Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	for _, listener := range m.listeners[event.TagID] {
		if listener != nil {
			listener(event)
		}
	}
}

// Close detaches all listeners. Publish becomes a no-op afterward.
func (m *StateManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.listeners = make(map[uint32][]StateListener)
}
