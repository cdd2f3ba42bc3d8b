// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import (
	"github.com/go-logr/logr"

	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/dimension"
	"github.com/antimetal/metricscore/matcher"
)

// CountDef is a count metric's static configuration (spec.md §4.4.1).
type CountDef struct {
	ID               string
	WhatMatcher      int
	DimensionsInWhat []atom.FieldPath
	BucketNs         int64
	TimeBaseNs       int64
	Guardrails       Guardrails
}

// CountProducer increments a per-key counter for every event that
// matches its "what" matcher, is active, condition-true, and sampled.
type CountProducer struct {
	def    CountDef
	gate   *Gate
	guard  *GuardrailState
	store  *Store[int]
	logger logr.Logger
}

// NewCountProducer builds a count producer.
func NewCountProducer(def CountDef, gate *Gate, logger logr.Logger) *CountProducer {
	return &CountProducer{
		def:    def,
		gate:   gate,
		guard:  NewGuardrailState(def.Guardrails, logger),
		store:  NewStore[int](def.TimeBaseNs, def.BucketNs, func() int { return 0 }),
		logger: logger,
	}
}

// OnEvent processes one dispatcher tick. It is a no-op unless the
// event matched this metric's "what" matcher.
func (p *CountProducer) OnEvent(event *atom.Event, mc *matcher.Cache) error {
	if mc.State(p.def.WhatMatcher) != matcher.Matched {
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
	ser.Current++
	return nil
}

// Store exposes the bucket store for reporting.
func (p *CountProducer) Store() *Store[int] { return p.store }

// GuardrailHit reports whether the hard dimension limit ever fired.
func (p *CountProducer) GuardrailHit() bool { return p.guard.Hit() }
