// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package manager owns the per-configuration component vectors — the
// matcher set, the condition set, the metric producers, and the
// activation/condition/matcher edge tables that connect them — and
// implements the per-event dispatcher that ties them together.
package manager

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/antimetal/metricscore/activation"
	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/condition"
	"github.com/antimetal/metricscore/matcher"
)

// Producer is the interface every metric producer kind satisfies
// (count, duration, value, gauge, event) — spec.md §9 "closed sum
// types dispatched on tag; behavior on a common interface".
type Producer interface {
	OnEvent(event *atom.Event, mc *matcher.Cache) error
}

// EdgeKind discriminates an activation edge.
type EdgeKind uint8

const (
	EdgeActivate EdgeKind = iota
	EdgeDeactivate
)

// ActivationEdge is one (matcher → metric activation record) wire from
// spec.md §4.1 steps 6-7.
type ActivationEdge struct {
	Kind         EdgeKind
	MatcherIndex int
	MetricIndex  int
	RecordIndex  int // index into that metric's activation.Set
}

// MetricEntry pairs a metric producer with its activation set (nil if
// the metric has no activation rules — always active).
type MetricEntry struct {
	ID         string
	Producer   Producer
	Activation *activation.Set
}

// AllowedLogSources is the copy-on-write credential set consulted on
// every event (spec.md §9 "shared-state boundaries"). The writer swaps
// the pointer under a lock; readers take a snapshot without blocking
// each other — mirrors the teacher's atomic-config-swap idiom.
type AllowedLogSources struct {
	mu  sync.RWMutex
	set map[int32]struct{}
}

// NewAllowedLogSources builds a credential set from a uid list.
func NewAllowedLogSources(uids []int32) *AllowedLogSources {
	m := make(map[int32]struct{}, len(uids))
	for _, u := range uids {
		m[u] = struct{}{}
	}
	return &AllowedLogSources{set: m}
}

// Allows reports whether uid is credentialed.
func (a *AllowedLogSources) Allows(uid int32) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.set[uid]
	return ok
}

// Replace atomically swaps the credential set, used on UID-map change.
func (a *AllowedLogSources) Replace(uids []int32) {
	m := make(map[int32]struct{}, len(uids))
	for _, u := range uids {
		m[u] = struct{}{}
	}
	a.mu.Lock()
	a.set = m
	a.mu.Unlock()
}

// Manager is one configuration's MetricsManager: the owning root over
// the matcher, condition, and metric vectors plus the edge tables that
// wire them together (spec.md §2).
type Manager struct {
	Matchers   matcher.Set
	Conditions *condition.Set
	Metrics    []MetricEntry
	Alerts     []*AlertTracker

	activationEdges []ActivationEdge
	allowedTagIDs   map[uint32]struct{} // atom ids present in any Simple matcher — spec.md §4.1 step 4
	allowedSources  *AllowedLogSources
	allowlistedTags map[uint32]struct{} // atom ids always admitted regardless of uid credential

	invalid error // set by MarkInvalid; a permanently invalid manager drops events

	logger logr.Logger
}

// Option configures a Manager at construction, following the
// functional-options idiom used throughout this codebase's teacher
// lineage (config.Manager, resource/store.Options).
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger logr.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithAllowedLogSources seeds the credential set.
func WithAllowedLogSources(uids []int32) Option {
	return func(m *Manager) { m.allowedSources = NewAllowedLogSources(uids) }
}

// WithAllowlistedTags marks atom ids that bypass the credential check
// entirely (spec.md §4.1 step 2 "atom id is allowlisted").
func WithAllowlistedTags(tags []uint32) Option {
	return func(m *Manager) {
		m.allowlistedTags = make(map[uint32]struct{}, len(tags))
		for _, t := range tags {
			m.allowlistedTags[t] = struct{}{}
		}
	}
}

// New builds a Manager from a fully-resolved component graph. Callers
// (typically config.Compile) are responsible for validating that every
// index reference is in range and topologically ordered before calling
// New; New itself only wires the dispatcher-facing edge tables.
func New(matchers matcher.Set, conditions *condition.Set, metrics []MetricEntry, edges []ActivationEdge, alerts []*AlertTracker, opts ...Option) (*Manager, error) {
	if err := matchers.Validate(); err != nil {
		return nil, fmt.Errorf("manager: %w", err)
	}
	for _, e := range edges {
		if e.MatcherIndex < 0 || e.MatcherIndex >= len(matchers.Matchers) {
			return nil, fmt.Errorf("manager: activation edge matcher index %d out of range", e.MatcherIndex)
		}
		if e.MetricIndex < 0 || e.MetricIndex >= len(metrics) {
			return nil, fmt.Errorf("manager: activation edge metric index %d out of range", e.MetricIndex)
		}
	}

	m := &Manager{
		Matchers:        matchers,
		Conditions:      conditions,
		Metrics:         metrics,
		Alerts:          alerts,
		activationEdges: edges,
		allowedTagIDs:   make(map[uint32]struct{}),
		allowedSources:  NewAllowedLogSources(nil),
		allowlistedTags: make(map[uint32]struct{}),
		logger:          logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, mt := range matchers.Matchers {
		if mt.Kind == matcher.KindSimple {
			m.allowedTagIDs[mt.Simple.AtomID] = struct{}{}
		}
	}
	return m, nil
}

// Invalid reports the configuration error that put this manager into a
// permanently invalid state, if any (spec.md §7).
func (m *Manager) Invalid() error { return m.invalid }

// MarkInvalid transitions the manager to a permanently invalid state:
// it drops all events and refuses reports until replaced.
func (m *Manager) MarkInvalid(err error) { m.invalid = err }
