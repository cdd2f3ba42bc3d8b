// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collab

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
)

func TestAlarmMonitorFiresDueTokensInOrder(t *testing.T) {
	var fired []string
	m := NewAlarmMonitor(func(token string) { fired = append(fired, token) }, logr.Discard())

	m.Schedule(200, "b")
	m.Schedule(100, "a")
	m.Schedule(300, "c")

	m.FireDue(250)
	assert.Equal(t, []string{"a", "b"}, fired)
}

func TestAlarmMonitorCancelPreventsFiring(t *testing.T) {
	var fired []string
	m := NewAlarmMonitor(func(token string) { fired = append(fired, token) }, logr.Discard())

	m.Schedule(100, "a")
	m.Cancel("a")
	m.FireDue(200)
	assert.Empty(t, fired)
}

func TestAlarmMonitorFireDueRemovesEntries(t *testing.T) {
	var fired []string
	m := NewAlarmMonitor(func(token string) { fired = append(fired, token) }, logr.Discard())

	m.Schedule(100, "a")
	m.FireDue(200)
	m.FireDue(200)
	assert.Equal(t, []string{"a"}, fired, "an already-fired token does not fire again")
}

func TestAlarmMonitorNotYetDueDoesNotFire(t *testing.T) {
	var fired []string
	m := NewAlarmMonitor(func(token string) { fired = append(fired, token) }, logr.Discard())

	m.Schedule(500, "a")
	m.FireDue(100)
	assert.Empty(t, fired)
}
