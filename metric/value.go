// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import (
	"github.com/go-logr/logr"

	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/condition"
	"github.com/antimetal/metricscore/dimension"
	"github.com/antimetal/metricscore/matcher"
)

// ValueAggregation selects how a value metric folds multiple
// observations within a bucket (spec.md §4.4.3).
type ValueAggregation uint8

const (
	AggSum ValueAggregation = iota
	AggMin
	AggMax
	AggAvg
	AggDiff // last - first observed value in the bucket
)

// ValueDef is a value metric's static configuration.
type ValueDef struct {
	ID               string
	WhatMatcher      int
	ValueField       atom.FieldPath
	DimensionsInWhat []atom.FieldPath
	Aggregation      ValueAggregation
	BucketNs         int64
	TimeBaseNs       int64
	Guardrails       Guardrails
}

// ValueAccum is one bucket's accumulated aggregate.
type ValueAccum struct {
	Sum         float64
	Min         float64
	Max         float64
	Count       int64
	First       float64
	Last        float64
	ConditionNs int64 // condition-gated time accounted alongside the value, spec.md §4.4.3
}

// Result returns the aggregated scalar per the configured aggregation.
func (v ValueAccum) Result(agg ValueAggregation) float64 {
	if v.Count == 0 {
		return 0
	}
	switch agg {
	case AggMin:
		return v.Min
	case AggMax:
		return v.Max
	case AggAvg:
		return v.Sum / float64(v.Count)
	case AggDiff:
		return v.Last - v.First
	default: // AggSum
		return v.Sum
	}
}

// valueConditionSlot tracks the auxiliary condition timer's open/close
// state per condition-linked dimension, independent of the value
// store's own admission (mirrors DurationProducer's condition timer).
type valueConditionSlot struct {
	active  bool
	startNs int64
}

// ValueProducer extracts a numeric field from matched events and folds
// it into the current bucket's aggregate.
type ValueProducer struct {
	def      ValueDef
	gate     *Gate
	condLink ConditionLink
	wizard   condition.Wizard

	guard  *GuardrailState
	store  *Store[ValueAccum]
	slots  map[string]*valueConditionSlot
	logger logr.Logger
}

// NewValueProducer builds a value producer. condLink.Set may be false
// when the metric has no external condition — ConditionNs then always
// stays zero.
func NewValueProducer(def ValueDef, gate *Gate, wizard condition.Wizard, condLink ConditionLink, logger logr.Logger) *ValueProducer {
	return &ValueProducer{
		def:      def,
		gate:     gate,
		condLink: condLink,
		wizard:   wizard,
		guard:    NewGuardrailState(def.Guardrails, logger),
		store:    NewStore[ValueAccum](def.TimeBaseNs, def.BucketNs, func() ValueAccum { return ValueAccum{} }),
		slots:    make(map[string]*valueConditionSlot),
		logger:   logger,
	}
}

// OnEvent processes one dispatcher tick.
func (p *ValueProducer) OnEvent(event *atom.Event, mc *matcher.Cache) error {
	if p.condLink.Set {
		condTrue, key, err := EvalCondition(p.wizard, p.condLink, event)
		if err != nil {
			return err
		}
		if err := p.updateConditionTimer(key, event.ElapsedTimeNs, condTrue); err != nil {
			return err
		}
	}

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

	fv, found := event.Find(p.def.ValueField)
	if !found {
		return nil
	}
	val, numeric := fv.AsFloat64()
	if !numeric {
		return nil
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

	cur := ser.Current
	if cur.Count == 0 {
		cur.Min = val
		cur.Max = val
		cur.First = val
	}
	cur.Sum += val
	cur.Last = val
	if val < cur.Min {
		cur.Min = val
	}
	if val > cur.Max {
		cur.Max = val
	}
	cur.Count++
	ser.Current = cur
	return nil
}

// updateConditionTimer folds the just-elapsed span into ConditionNs if
// the linked condition was true throughout it, mirroring
// DurationProducer's updateConditionTimer.
func (p *ValueProducer) updateConditionTimer(key dimension.Key, ts int64, nowTrue bool) error {
	tok := key.Token()
	s, ok := p.slots[tok]
	if !ok {
		s = &valueConditionSlot{}
		p.slots[tok] = s
	}
	if s.active && !nowTrue {
		p.accumulateCondition(key, s.startNs, ts)
		s.active = false
	} else if !s.active && nowTrue {
		s.active = true
		s.startNs = ts
	}
	return nil
}

func (p *ValueProducer) accumulateCondition(key dimension.Key, startNs, endNs int64) {
	mk := dimension.MetricKey{What: key}
	tok := mk.Token()
	cursor := startNs
	for cursor < endNs {
		ser := p.store.Get(tok, cursor, mk)
		segEnd := endNs
		if segEnd > ser.Window.End {
			segEnd = ser.Window.End
		}
		cur := ser.Current
		cur.ConditionNs += segEnd - cursor
		ser.Current = cur
		if segEnd >= ser.Window.End {
			p.store.Roll(ser, segEnd, nil, nil)
		}
		cursor = segEnd
	}
}

// Store exposes the bucket store for reporting.
func (p *ValueProducer) Store() *Store[ValueAccum] { return p.store }

func (p *ValueProducer) GuardrailHit() bool { return p.guard.Hit() }

// Aggregation exposes the configured aggregation type for reporting.
func (p *ValueProducer) Aggregation() ValueAggregation { return p.def.Aggregation }
