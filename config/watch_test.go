// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/metricscore/manager"
)

func writeDoc(t *testing.T, path, version string) {
	t.Helper()
	content := "version: \"" + version + "\"\nmatchers:\n  - name: a\n    kind: simple\n    atom_id: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileWatcherReloadLoadsInitialVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	writeDoc(t, path, "1")

	var got *manager.Manager
	w := NewFileWatcher(path, Limits{}, nil, func(m *manager.Manager) { got = m }, logr.Discard())
	require.NoError(t, w.reload())
	require.NotNil(t, got)
	assert.Equal(t, "1", w.lastVersion)
}

func TestFileWatcherReloadSkipsStaleVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	writeDoc(t, path, "2")

	calls := 0
	w := NewFileWatcher(path, Limits{}, nil, func(m *manager.Manager) { calls++ }, logr.Discard())
	require.NoError(t, w.reload())
	assert.Equal(t, 1, calls)

	writeDoc(t, path, "1")
	require.NoError(t, w.reload())
	assert.Equal(t, 1, calls, "version 1 is not newer than the already-loaded version 2")
}

func TestFileWatcherReloadPropagatesCompileError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\nmatchers:\n  - name: bad\n    kind: bogus\n"), 0o644))

	w := NewFileWatcher(path, Limits{}, nil, func(m *manager.Manager) {}, logr.Discard())
	assert.Error(t, w.reload())
}

func TestFileWatcherReloadPropagatesMissingFile(t *testing.T) {
	w := NewFileWatcher(filepath.Join(t.TempDir(), "missing.yaml"), Limits{}, nil, func(m *manager.Manager) {}, logr.Discard())
	assert.Error(t, w.reload())
}

func TestFileWatcherNeedLeaderElectionIsFalse(t *testing.T) {
	w := NewFileWatcher("x", Limits{}, nil, func(m *manager.Manager) {}, logr.Discard())
	assert.False(t, w.NeedLeaderElection())
}
