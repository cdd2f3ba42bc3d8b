// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"
	ctrlmanager "sigs.k8s.io/controller-runtime/pkg/manager"

	"github.com/antimetal/metricscore/manager"
)

// UpdateFunc receives a freshly compiled Manager whenever the watched
// document changes and compiles successfully.
type UpdateFunc func(*manager.Manager)

// FileWatcher hot-reloads a single YAML configuration document,
// grounded on the teacher's fsnotify-based internal/config/fs.go
// loader and internal/config/manager.go's manager.Runnable wiring.
type FileWatcher struct {
	path     string
	limits   Limits
	monitor  manager.AlarmMonitor
	onUpdate UpdateFunc
	logger   logr.Logger

	lastVersion string
}

// NewFileWatcher builds a FileWatcher for path.
func NewFileWatcher(path string, limits Limits, monitor manager.AlarmMonitor, onUpdate UpdateFunc, logger logr.Logger) *FileWatcher {
	return &FileWatcher{path: path, limits: limits, monitor: monitor, onUpdate: onUpdate, logger: logger.WithName("config.watcher")}
}

// Start implements controller-runtime's manager.Runnable: it loads and
// compiles the document once, then blocks watching for changes until
// ctx is cancelled.
func (w *FileWatcher) Start(ctx context.Context) error {
	if err := w.reload(); err != nil {
		w.logger.Error(err, "initial config load failed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: failed to create filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		return fmt.Errorf("config: failed to watch %s: %w", w.path, err)
	}

	w.logger.Info("watching config file", "path", w.path)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopping due to context cancellation")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				w.logger.Error(err, "config reload failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err, "config watcher error")
		}
	}
}

// NeedLeaderElection implements
// sigs.k8s.io/controller-runtime/pkg/manager.LeaderElectionRunnable.
// Config reload has no shared state to coordinate, so every replica
// runs its own watcher.
func (w *FileWatcher) NeedLeaderElection() bool { return false }

func (w *FileWatcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", w.path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", w.path, err)
	}

	cmp, err := CompareVersions(doc.Version, w.lastVersion)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cmp <= 0 && w.lastVersion != "" {
		w.logger.V(1).Info("skipping stale config version", "version", doc.Version, "last", w.lastVersion)
		return nil
	}

	mgr, err := Compile(&doc, w.limits, w.monitor, w.logger)
	if err != nil {
		return fmt.Errorf("config: compile %s: %w", w.path, err)
	}
	w.lastVersion = doc.Version
	w.onUpdate(mgr)
	return nil
}

var _ ctrlmanager.Runnable = (*FileWatcher)(nil)
var _ ctrlmanager.LeaderElectionRunnable = (*FileWatcher)(nil)
