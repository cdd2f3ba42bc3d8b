// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collab

import (
	"context"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"

	"github.com/antimetal/metricscore/atom"
)

// PullSource is implemented by whatever knows how to fetch a snapshot
// for one atom id from a specific set of uids (spec.md §6
// "StatsPullerManager.pull(atom_id, uids) → [event]"). Registered per
// atom id with StatsPullerManager.
type PullSource interface {
	Pull(ctx context.Context, atomID uint32, uids map[int32]struct{}) ([]*atom.Event, error)
}

// StatsPullerManager fans a pull request for one atom id out to its
// registered PullSource, retrying transient failures with an
// exponential backoff before giving up.
type StatsPullerManager struct {
	mu      sync.RWMutex
	sources map[uint32]PullSource
	logger  logr.Logger
}

// NewStatsPullerManager returns a manager with no sources registered.
func NewStatsPullerManager(logger logr.Logger) *StatsPullerManager {
	return &StatsPullerManager{sources: make(map[uint32]PullSource), logger: logger.WithName("collab.puller")}
}

// Register attaches source as the puller for atomID.
func (m *StatsPullerManager) Register(atomID uint32, source PullSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[atomID] = source
}

// Pull fetches a fresh snapshot for atomID from the uids in scope,
// retrying with exponential backoff until ctx is done. Per spec.md §5
// "a pull completion callback is allowed to be delivered
// asynchronously... but is serialized before it reaches the core",
// callers own delivering the result back into the dispatcher's single
// task; Pull itself only blocks the calling goroutine.
func (m *StatsPullerManager) Pull(ctx context.Context, atomID uint32, uids map[int32]struct{}) ([]*atom.Event, error) {
	m.mu.RLock()
	source, ok := m.sources[atomID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("collab: no puller registered for atom %d", atomID)
	}

	var events []*atom.Event
	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err := backoff.Retry(func() error {
		result, err := source.Pull(ctx, atomID, uids)
		if err != nil {
			m.logger.V(1).Info("pull failed, retrying", "atom_id", atomID, "error", err.Error())
			return err
		}
		events = result
		return nil
	}, b)
	if err != nil {
		return nil, fmt.Errorf("collab: pull atom %d: %w", atomID, err)
	}
	return events, nil
}

// BoundPuller adapts a StatsPullerManager plus a fixed atom id and uid
// set into the metric.Puller interface a single gauge producer holds
// (spec.md §4.4.4 "requests a snapshot from an external puller").
// Pull requests here are one-shot: only the first event returned by
// the underlying source is used, matching the gauge's
// one-sample-per-boundary pull protocol.
type BoundPuller struct {
	Manager *StatsPullerManager
	AtomID  uint32
	Uids    map[int32]struct{}
	Ctx     context.Context
}

// Pull implements metric.Puller.
func (p BoundPuller) Pull() (*atom.Event, error) {
	ctx := p.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	events, err := p.Manager.Pull(ctx, p.AtomID, p.Uids)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("collab: pull atom %d returned no events", p.AtomID)
	}
	return events[0], nil
}
