// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/dimension"
	"github.com/antimetal/metricscore/matcher"
)

// EventDef is an event metric's static configuration.
type EventDef struct {
	ID               string
	WhatMatcher      int
	DimensionsInWhat []atom.FieldPath
	Guardrails       Guardrails
}

// EventCopy is one distinct field-value tuple retained by an event
// metric, with every elapsed timestamp it was observed at (spec.md
// §4.4.5 "deduplication maps identical field-value tuples to a single
// entry with a list of timestamps").
type EventCopy struct {
	Fields        []atom.FieldValue
	ElapsedTimeNs []int64
}

// EventAccum is one bucket's deduplicated event copies, keyed
// internally by a token of the copy's field-values to fold in O(1).
type EventAccum struct {
	copies map[string]*EventCopy
}

func newEventAccum() EventAccum { return EventAccum{copies: make(map[string]*EventCopy)} }

// Copies returns the retained copies in no particular order.
func (a EventAccum) Copies() []EventCopy {
	out := make([]EventCopy, 0, len(a.copies))
	for _, c := range a.copies {
		out = append(out, *c)
	}
	return out
}

// EventProducer retains every matched event (subject to sampling and
// deduplication), per spec.md §4.4.5.
type EventProducer struct {
	def    EventDef
	gate   *Gate
	guard  *GuardrailState
	store  *Store[EventAccum]
	logger logr.Logger
}

// NewEventProducer builds an event producer.
func NewEventProducer(def EventDef, gate *Gate, logger logr.Logger) *EventProducer {
	return &EventProducer{
		def:    def,
		gate:   gate,
		guard:  NewGuardrailState(def.Guardrails, logger),
		store:  NewStore[EventAccum](0, BucketNsInfinite, newEventAccum),
		logger: logger,
	}
}

// OnEvent processes one dispatcher tick.
func (p *EventProducer) OnEvent(event *atom.Event, mc *matcher.Cache) error {
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

	dedupTok := eventTupleToken(event.Fields)
	c, ok := ser.Current.copies[dedupTok]
	if !ok {
		c = &EventCopy{Fields: append([]atom.FieldValue(nil), event.Fields...)}
		ser.Current.copies[dedupTok] = c
	}
	c.ElapsedTimeNs = append(c.ElapsedTimeNs, ts)
	return nil
}

func eventTupleToken(fields []atom.FieldValue) string {
	var b strings.Builder
	for _, fv := range fields {
		fmt.Fprintf(&b, "%d.%d.%d=%s;", fv.Path.AtomTag, fv.Path.FieldNumber, fv.Path.Depth, fv.Value.String())
	}
	return b.String()
}

// Store exposes the bucket store for reporting.
func (p *EventProducer) Store() *Store[EventAccum] { return p.store }

func (p *EventProducer) GuardrailHit() bool { return p.guard.Hit() }
