// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Command metricscore-demo wires the config, manager, collab, and
// report packages together into a small standalone run: it hot-loads
// a YAML configuration document, feeds a stream of synthetic events
// through the compiled Manager, and dumps a JSON report on exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/collab"
	"github.com/antimetal/metricscore/config"
	"github.com/antimetal/metricscore/internal/telemetrylog"
	"github.com/antimetal/metricscore/manager"
	"github.com/antimetal/metricscore/report"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML metricscore configuration document")
	demoAtomID := flag.Uint("demo-atom-id", 0, "atom tag id to synthesize events for; 0 disables the event generator")
	demoUID := flag.Int("demo-uid", 1001, "source uid stamped on synthesized events")
	zapOpts := telemetrylog.BindFlags(flag.CommandLine)
	flag.Parse()

	logger := telemetrylog.Setup(zapOpts, "metricscore-demo")

	if *configPath == "" {
		logger.Info("no -config given, exiting")
		os.Exit(2)
	}

	ctx := ctrl.SetupSignalHandler()

	alarms := collab.NewAlarmMonitor(func(token string) {
		logger.Info("alarm fired", "token", token)
	}, logger)

	var mgr *manager.Manager
	watcher := config.NewFileWatcher(*configPath, config.Limits{
		MaxMatchers: 1024, MaxConditions: 512, MaxMetrics: 512, MaxAlerts: 256,
	}, alarms, func(m *manager.Manager) {
		logger.Info("configuration compiled")
		mgr = m
	}, logger)

	go func() {
		if err := watcher.Start(ctx); err != nil {
			logger.Error(err, "config watcher exited")
		}
	}()

	if *demoAtomID != 0 {
		go generateEvents(ctx, &mgr, uint32(*demoAtomID), int32(*demoUID))
	}

	<-ctx.Done()

	if mgr == nil {
		logger.Info("shutting down before any configuration loaded")
		return
	}

	r := report.Dump(mgr, report.DumpSlow, false, time.Now().UnixNano())
	out, err := report.MarshalIndent(r)
	if err != nil {
		logger.Error(err, "failed to render report")
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// generateEvents feeds one synthetic event into mgr every tick, once a
// configuration has been loaded, until ctx is cancelled. It exists so
// the demo produces a nonempty report without a live event source.
func generateEvents(ctx context.Context, mgr **manager.Manager, atomID uint32, uid int32) {
	start := time.Now()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if *mgr == nil {
				continue
			}
			(*mgr).OnEvent(&atom.Event{
				TagID:         atomID,
				SourceUID:     uid,
				ElapsedTimeNs: time.Since(start).Nanoseconds(),
			})
		}
	}
}
