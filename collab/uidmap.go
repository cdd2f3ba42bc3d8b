// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package collab holds reference implementations of the external
// collaborator interfaces the core calls out to (spec.md §6): the
// package/UID directory, the pull-based data source, the alarm
// scheduler, and sliced-state subscriptions. None of these are part
// of the core's semantics; the core only defines the shape it expects
// from them.
package collab

import "sync"

// UidMap translates allowed-log-source package names to the set of
// uids currently running under them (spec.md §6
// "UidMap.getAppUid(pkg) → set<uid>"). Real implementations refresh
// this from the platform's package manager; this one is a plain
// in-memory directory suitable for tests and for a demo binary.
type UidMap struct {
	mu    sync.RWMutex
	byPkg map[string]map[int32]struct{}
}

// NewUidMap returns an empty directory.
func NewUidMap() *UidMap {
	return &UidMap{byPkg: make(map[string]map[int32]struct{})}
}

// GetAppUid returns the set of uids currently registered under pkg.
func (m *UidMap) GetAppUid(pkg string) map[int32]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uids := m.byPkg[pkg]
	out := make(map[int32]struct{}, len(uids))
	for uid := range uids {
		out[uid] = struct{}{}
	}
	return out
}

// Update replaces the uid set registered under pkg, as delivered by a
// package-manager change notification.
func (m *UidMap) Update(pkg string, uids []int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[int32]struct{}, len(uids))
	for _, uid := range uids {
		set[uid] = struct{}{}
	}
	m.byPkg[pkg] = set
}

// Remove drops all uids registered under pkg, e.g. on uninstall.
func (m *UidMap) Remove(pkg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byPkg, pkg)
}

// ResolveAllowedSources flattens a list of allowed-log-source package
// names into the merged uid set the manager's AllowedLogSources
// should be replaced with.
func (m *UidMap) ResolveAllowedSources(pkgs []string) []int32 {
	merged := make(map[int32]struct{})
	for _, pkg := range pkgs {
		for uid := range m.GetAppUid(pkg) {
			merged[uid] = struct{}{}
		}
	}
	out := make([]int32, 0, len(merged))
	for uid := range merged {
		out = append(out, uid)
	}
	return out
}
