// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package telemetrylog wires the process-wide logr.Logger every
// package in this module logs through, following the teacher's
// cmd/main.go convention of a single zap-backed logr.Logger installed
// at startup and handed out by name via WithName.
package telemetrylog

import (
	"flag"

	"github.com/go-logr/logr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// BindFlags registers the zap logging flags (level, encoder, stacktrace
// threshold) on fs, mirroring the teacher's zap.Options.BindFlags call
// in cmd/main.go's init.
func BindFlags(fs *flag.FlagSet) *zap.Options {
	opts := &zap.Options{}
	opts.BindFlags(fs)
	return opts
}

// Setup installs a zap-backed logr.Logger as the process-wide logger
// and returns it, named per component the way the teacher scopes
// setupLog to "setup".
func Setup(opts *zap.Options, name string) logr.Logger {
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(opts)))
	return ctrl.Log.WithName(name)
}

// Discard returns a no-op logger, used by package tests that construct
// producers or the manager without caring about log output.
func Discard() logr.Logger {
	return logr.Discard()
}
