// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collab

import (
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// AlarmFirer is invoked when a scheduled alarm's time has come. Real
// platforms wire this to a system alarm service; this reference
// implementation runs no timer of its own and invokes it only from
// FireDue.
type AlarmFirer func(token string)

// AlarmMonitor is a reference implementation of manager.AlarmMonitor
// (spec.md §6 "AlarmMonitor.schedule(ts, token) / cancel(token)").
// Tokens are opaque strings from the caller's perspective; this
// implementation additionally hands out a uuid-based correlation id
// per scheduled entry for logging and persistence, independent of the
// caller-supplied token.
type AlarmMonitor struct {
	mu      sync.Mutex
	entries map[string]alarmEntry
	fire    AlarmFirer
	logger  logr.Logger
}

type alarmEntry struct {
	correlationID string
	tsNs          int64
}

// NewAlarmMonitor returns a monitor that calls fire when a scheduled
// token's time is reached (fire delivery itself is left to the
// caller's platform timer; this type only tracks bookkeeping).
func NewAlarmMonitor(fire AlarmFirer, logger logr.Logger) *AlarmMonitor {
	return &AlarmMonitor{entries: make(map[string]alarmEntry), fire: fire, logger: logger.WithName("collab.alarm")}
}

// Schedule implements manager.AlarmMonitor.
func (m *AlarmMonitor) Schedule(tsNs int64, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.entries[token] = alarmEntry{correlationID: id, tsNs: tsNs}
	m.logger.V(1).Info("alarm scheduled", "token", token, "correlation_id", id, "ts_ns", tsNs)
}

// Cancel implements manager.AlarmMonitor.
func (m *AlarmMonitor) Cancel(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
}

// FireDue invokes AlarmFirer for every scheduled token whose ts has
// passed nowNs, in ascending schedule order, and removes them.
func (m *AlarmMonitor) FireDue(nowNs int64) {
	m.mu.Lock()
	type due struct {
		token string
		ts    int64
	}
	var pending []due
	for token, e := range m.entries {
		if e.tsNs <= nowNs {
			pending = append(pending, due{token: token, ts: e.tsNs})
			delete(m.entries, token)
		}
	}
	m.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool { return pending[i].ts < pending[j].ts })
	for _, p := range pending {
		if m.fire != nil {
			m.fire(p.token)
		}
	}
}

// AlertMetadata is the opaque persisted-state entry for one alert
// (spec.md §6 "an opaque metadata blob... containing alert refractory
// periods... for load-after-reboot").
type AlertMetadata struct {
	ID              string `json:"id"`
	RefractoryEndNs int64  `json:"refractory_end_ns"`
}
