// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package manager

import (
	"fmt"

	"github.com/go-logr/logr"
)

// AlarmMonitor is the external alarm-scheduling collaborator (spec.md
// §6 "AlarmMonitor.schedule(ts, token) / cancel(token)"). Alarm
// scheduling itself is explicitly out of scope for the core (§1); the
// core only decides when to call it.
type AlarmMonitor interface {
	Schedule(tsNs int64, token string)
	Cancel(token string)
}

// AlertDef is the static configuration of one anomaly threshold check
// over a metric's current bucket value.
type AlertDef struct {
	ID           string
	MetricIndex  int
	Threshold    float64
	RefractoryNs int64
}

// AlertSnapshot is the opaque persisted metadata at the core boundary
// (spec.md §6 "an opaque metadata blob... containing alert refractory
// periods"). Round-tripping a snapshot must preserve the refractory
// end time to within one second (spec.md §8 "round-trip laws").
type AlertSnapshot struct {
	ID              string
	RefractoryEndNs int64
}

// AlertTracker watches one metric's current value against a threshold
// and schedules an alarm through AlarmMonitor when it fires, honoring
// a refractory period during which repeat firings are suppressed.
type AlertTracker struct {
	def         AlertDef
	monitor     AlarmMonitor
	lastFiredNs int64
	fired       bool
	logger      logr.Logger
}

// NewAlertTracker builds an alert tracker. monitor may be nil, in
// which case Check never schedules anything (useful for tests that
// only exercise threshold logic).
func NewAlertTracker(def AlertDef, monitor AlarmMonitor, logger logr.Logger) *AlertTracker {
	return &AlertTracker{def: def, monitor: monitor, logger: logger}
}

// Check evaluates the current bucket value at nowNs and schedules an
// alarm if the threshold is crossed and the refractory period has
// elapsed since the last firing.
func (t *AlertTracker) Check(nowNs int64, value float64) {
	if value < t.def.Threshold {
		return
	}
	if t.fired && nowNs-t.lastFiredNs < t.def.RefractoryNs {
		return
	}
	t.fired = true
	t.lastFiredNs = nowNs
	if t.monitor != nil {
		t.monitor.Schedule(nowNs, t.token())
	}
}

func (t *AlertTracker) token() string {
	return fmt.Sprintf("%s@%d", t.def.ID, t.lastFiredNs)
}

// Snapshot captures the tracker's refractory state for persistence.
func (t *AlertTracker) Snapshot() AlertSnapshot {
	if !t.fired {
		return AlertSnapshot{ID: t.def.ID}
	}
	return AlertSnapshot{ID: t.def.ID, RefractoryEndNs: t.lastFiredNs + t.def.RefractoryNs}
}

// Restore reinstates refractory state from a snapshot taken before a
// reboot or configuration reload.
func (t *AlertTracker) Restore(s AlertSnapshot) {
	if s.RefractoryEndNs == 0 {
		return
	}
	t.fired = true
	t.lastFiredNs = s.RefractoryEndNs - t.def.RefractoryNs
}
