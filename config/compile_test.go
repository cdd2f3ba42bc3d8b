// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/manager"
	"github.com/antimetal/metricscore/metric"
)

func TestCompileEndToEndCountMetric(t *testing.T) {
	doc := &Document{
		Matchers: []MatcherDoc{
			{Name: "what", Kind: "simple", AtomID: 1},
		},
		Metrics: []MetricDoc{
			{ID: "m", Kind: "count", WhatMatcher: intPtr(0), BucketNs: 60},
		},
	}

	mgr, err := Compile(doc, Limits{}, nil, logr.Discard())
	require.NoError(t, err)

	mgr.OnEvent(&atom.Event{TagID: 1, SourceUID: atom.SystemUID})
	mgr.OnEvent(&atom.Event{TagID: 1, SourceUID: atom.SystemUID})

	prod := mgr.Metrics[0].Producer.(*metric.CountProducer)
	assert.Equal(t, 1, prod.Store().Len())
}

func TestCompileEndToEndActivationEdgeAndCondition(t *testing.T) {
	doc := &Document{
		Matchers: []MatcherDoc{
			{Name: "activate", Kind: "simple", AtomID: 1},
			{Name: "target", Kind: "simple", AtomID: 2},
		},
		Metrics: []MetricDoc{
			{
				ID: "m", Kind: "count", WhatMatcher: intPtr(1), BucketNs: 60,
				Activations: []ActivationDefDoc{{MatcherIndex: 0}},
			},
		},
		ActivationEdges: []ActivationEdgeDoc{
			{Kind: "activate", MatcherIndex: 0, MetricIndex: 0, RecordIndex: 0},
		},
	}

	mgr, err := Compile(doc, Limits{}, nil, logr.Discard())
	require.NoError(t, err)

	mgr.OnEvent(&atom.Event{TagID: 2, SourceUID: atom.SystemUID})
	prod := mgr.Metrics[0].Producer.(*metric.CountProducer)
	assert.Equal(t, 0, prod.Store().Len(), "not yet activated")

	mgr.OnEvent(&atom.Event{TagID: 1, SourceUID: atom.SystemUID})
	mgr.OnEvent(&atom.Event{TagID: 2, SourceUID: atom.SystemUID})
	assert.Equal(t, 1, prod.Store().Len())
}

func TestCompileRejectsGuardrailExceeded(t *testing.T) {
	doc := &Document{
		Matchers: []MatcherDoc{
			{Name: "a", Kind: "simple", AtomID: 1},
			{Name: "b", Kind: "simple", AtomID: 2},
		},
	}
	_, err := Compile(doc, Limits{MaxMatchers: 1}, nil, logr.Discard())
	require.Error(t, err)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ReasonGuardrailExceeded, cfgErr.Reason)
}

func TestCompileRejectsUnknownMatcherKind(t *testing.T) {
	doc := &Document{Matchers: []MatcherDoc{{Name: "a", Kind: "bogus"}}}
	_, err := Compile(doc, Limits{}, nil, logr.Discard())
	require.Error(t, err)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ReasonMalformedField, cfgErr.Reason)
}

func TestCompileRejectsInvalidMatcherReference(t *testing.T) {
	doc := &Document{
		Matchers: []MatcherDoc{
			{Name: "bad", Kind: "combination", Op: "or", Children: []int{5}},
		},
	}
	_, err := Compile(doc, Limits{}, nil, logr.Discard())
	require.Error(t, err)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ReasonInvalidReference, cfgErr.Reason)
}

func TestCompileRejectsInvalidConditionReference(t *testing.T) {
	doc := &Document{
		Matchers: []MatcherDoc{
			{Name: "a", Kind: "simple", AtomID: 1},
		},
		Conditions: []ConditionDoc{
			{Name: "bad", Kind: "combination", Op: "and", Children: []int{9}},
		},
	}
	_, err := Compile(doc, Limits{}, nil, logr.Discard())
	require.Error(t, err)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ReasonInvalidReference, cfgErr.Reason)
}

func TestCompileRequiresWhatMatcherForCount(t *testing.T) {
	doc := &Document{
		Matchers: []MatcherDoc{{Name: "a", Kind: "simple", AtomID: 1}},
		Metrics:  []MetricDoc{{ID: "m", Kind: "count", BucketNs: 60}},
	}
	_, err := Compile(doc, Limits{}, nil, logr.Discard())
	require.Error(t, err)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ReasonMalformedField, cfgErr.Reason)
}

func TestCompileRejectsActivationEdgeOutOfRange(t *testing.T) {
	doc := &Document{
		Matchers: []MatcherDoc{{Name: "a", Kind: "simple", AtomID: 1}},
		Metrics:  []MetricDoc{{ID: "m", Kind: "count", WhatMatcher: intPtr(0), BucketNs: 60}},
		ActivationEdges: []ActivationEdgeDoc{
			{Kind: "activate", MatcherIndex: 0, MetricIndex: 0, RecordIndex: 0},
		},
	}
	_, err := Compile(doc, Limits{}, nil, logr.Discard())
	require.Error(t, err, "metric has no activation records, so record index 0 is out of range")
}

func TestCompileRejectsAlertMetricIndexOutOfRange(t *testing.T) {
	doc := &Document{
		Matchers: []MatcherDoc{{Name: "a", Kind: "simple", AtomID: 1}},
		Metrics:  []MetricDoc{{ID: "m", Kind: "count", WhatMatcher: intPtr(0), BucketNs: 60}},
		Alerts:   []AlertDoc{{ID: "alert", MetricIndex: 5, Threshold: 1}},
	}
	_, err := Compile(doc, Limits{}, nil, logr.Discard())
	require.Error(t, err)
}

func TestCompileGaugeAllowsNilWhatMatcher(t *testing.T) {
	doc := &Document{
		Metrics: []MetricDoc{{ID: "g", Kind: "gauge", BucketNs: 60, N: 1}},
	}
	mgr, err := Compile(doc, Limits{}, nil, logr.Discard())
	require.NoError(t, err)
	_, ok := mgr.Metrics[0].Producer.(*metric.GaugeProducer)
	assert.True(t, ok)
}

func TestCompileAlertFiresThroughMonitor(t *testing.T) {
	doc := &Document{
		Matchers: []MatcherDoc{{Name: "a", Kind: "simple", AtomID: 1}},
		Metrics: []MetricDoc{
			{ID: "m", Kind: "value", WhatMatcher: intPtr(0), BucketNs: 60,
				ValueField: FieldPathDoc{AtomTag: 1, FieldNumber: 1}},
		},
		Alerts: []AlertDoc{{ID: "alert", MetricIndex: 0, Threshold: 5, RefractoryNs: 1000}},
	}
	mon := &recordingCompileMonitor{}
	mgr, err := Compile(doc, Limits{}, mon, logr.Discard())
	require.NoError(t, err)
	require.Len(t, mgr.Alerts, 1)

	mgr.Alerts[0].Check(0, 10)
	assert.Len(t, mon.scheduled, 1)
}

type recordingCompileMonitor struct {
	scheduled []string
}

func (m *recordingCompileMonitor) Schedule(tsNs int64, token string) {
	m.scheduled = append(m.scheduled, token)
}
func (m *recordingCompileMonitor) Cancel(token string) {}

func intPtr(i int) *int { return &i }

var _ manager.AlarmMonitor = (*recordingCompileMonitor)(nil)
