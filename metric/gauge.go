// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import (
	"math/rand"

	"github.com/go-logr/logr"

	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/dimension"
	"github.com/antimetal/metricscore/matcher"
)

// GaugeSampling selects a gauge metric's per-bucket sample retention
// rule (spec.md §4.4.4).
type GaugeSampling uint8

const (
	GaugeFirstNSamples GaugeSampling = iota
	GaugeRandomOneSample
)

// Puller is the pull-based gauge collaborator (spec.md §6, §4.4.4):
// GaugeProducer.PullNow requests a fresh snapshot from it instead of
// relying on matched events. GaugeProducer does not pull on its own on
// bucket boundaries or condition true-edges.
type Puller interface {
	Pull() (*atom.Event, error)
}

// GaugeDef is a gauge metric's static configuration.
type GaugeDef struct {
	ID               string
	WhatMatcher      int // -1 for a purely pull-based gauge
	DimensionsInWhat []atom.FieldPath
	Sampling         GaugeSampling
	N                int              // FIRST_N_SAMPLES cap; ignored for RANDOM_ONE_SAMPLE
	GaugeFields      []atom.FieldPath // snapshot fields; empty snapshots every field
	BucketNs         int64
	TimeBaseNs       int64
	Guardrails       Guardrails
}

// GaugeSample is one retained snapshot.
type GaugeSample struct {
	ElapsedTimeNs int64
	Fields        []atom.FieldValue
}

// GaugeAccum is one bucket's retained samples for one key. Seen tracks
// reservoir-sampling candidate count and is meaningless outside
// RANDOM_ONE_SAMPLE mode.
type GaugeAccum struct {
	Samples []GaugeSample
	Seen    int
}

// GaugeProducer retains atom field snapshots per spec.md §4.4.4.
type GaugeProducer struct {
	def    GaugeDef
	gate   *Gate
	guard  *GuardrailState
	store  *Store[GaugeAccum]
	rng    *rand.Rand
	puller Puller
	logger logr.Logger
}

// NewGaugeProducer builds a gauge producer. puller may be nil for an
// event-triggered (non-pull-based) gauge; seed controls the reservoir
// RNG stream for deterministic tests.
func NewGaugeProducer(def GaugeDef, gate *Gate, puller Puller, seed int64, logger logr.Logger) *GaugeProducer {
	return &GaugeProducer{
		def:    def,
		gate:   gate,
		guard:  NewGuardrailState(def.Guardrails, logger),
		store:  NewStore[GaugeAccum](def.TimeBaseNs, def.BucketNs, func() GaugeAccum { return GaugeAccum{} }),
		rng:    rand.New(rand.NewSource(seed)),
		puller: puller,
		logger: logger,
	}
}

// OnEvent processes one dispatcher tick for an event-triggered gauge.
func (p *GaugeProducer) OnEvent(event *atom.Event, mc *matcher.Cache) error {
	if p.def.WhatMatcher < 0 || mc.State(p.def.WhatMatcher) != matcher.Matched {
		return nil
	}
	whatKey, err := dimension.Build(event, p.def.DimensionsInWhat)
	if err != nil {
		return err
	}
	ok, stateKey, err := p.gate.Passes(event)
	if err != nil || !ok {
		return err
	}
	return p.record(whatKey, stateKey, event)
}

// PullNow requests a fresh snapshot from the puller and records it
// under whatKey and stateKey. Nothing in this module calls it; bucket
// rolls and condition true-edges do not trigger a pull.
func (p *GaugeProducer) PullNow(whatKey, stateKey dimension.Key) error {
	if p.puller == nil {
		return nil
	}
	event, err := p.puller.Pull()
	if err != nil {
		return err
	}
	return p.record(whatKey, stateKey, event)
}

func (p *GaugeProducer) record(whatKey, stateKey dimension.Key, event *atom.Event) error {
	mk := dimension.MetricKey{What: whatKey, State: stateKey}
	tok := mk.Token()
	if _, exists := p.store.Lookup(tok); !exists {
		if !p.guard.Admit(p.def.ID, p.store.Len()) {
			return nil
		}
	}

	ts := event.ElapsedTimeNs
	ser := p.store.Get(tok, ts, mk)
	p.store.Roll(ser, ts, nil, nil)

	sample := GaugeSample{ElapsedTimeNs: ts, Fields: p.snapshotFields(event)}
	cur := ser.Current
	switch p.def.Sampling {
	case GaugeRandomOneSample:
		cur.Seen++
		if len(cur.Samples) == 0 {
			cur.Samples = []GaugeSample{sample}
		} else if p.rng.Intn(cur.Seen) == 0 {
			cur.Samples[0] = sample
		}
	default: // GaugeFirstNSamples
		n := p.def.N
		if n <= 0 {
			n = 1
		}
		if len(cur.Samples) < n {
			cur.Samples = append(cur.Samples, sample)
		}
	}
	ser.Current = cur
	return nil
}

func (p *GaugeProducer) snapshotFields(event *atom.Event) []atom.FieldValue {
	if len(p.def.GaugeFields) == 0 {
		out := make([]atom.FieldValue, len(event.Fields))
		copy(out, event.Fields)
		return out
	}
	out := make([]atom.FieldValue, 0, len(p.def.GaugeFields))
	for _, path := range p.def.GaugeFields {
		if v, ok := event.Find(path); ok {
			out = append(out, atom.FieldValue{Path: path, Value: v})
		}
	}
	return out
}

// Store exposes the bucket store for reporting.
func (p *GaugeProducer) Store() *Store[GaugeAccum] { return p.store }

func (p *GaugeProducer) GuardrailHit() bool { return p.guard.Hit() }
