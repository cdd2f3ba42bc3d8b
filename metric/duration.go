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

// DurationVariant selects how a duration metric folds overlapping
// active intervals within one bucket (spec.md §4.4.2).
type DurationVariant uint8

const (
	DurationSummed DurationVariant = iota
	DurationMaxSparse
)

// DurationDef is a duration metric's static configuration, derived
// from a simple start/stop/stop-all predicate exactly like
// condition.Simple.
type DurationDef struct {
	ID                string
	StartMatcher      int
	StopMatcher       int
	StopAllMatcher    int // -1 if none configured
	Nesting           bool
	DimensionsInWhat  []atom.FieldPath
	Variant           DurationVariant
	BucketNs          int64
	TimeBaseNs        int64
	UploadThresholdNs int64
	Guardrails        Guardrails
}

// DurationAccum is one bucket's accumulated payload.
type DurationAccum struct {
	DurationNs      int64
	ConditionTrueNs int64
}

type durationSlot struct {
	key             dimension.Key
	active          bool
	count           int
	intervalStartNs int64

	// conditionActive/conditionStartNs track the condition timer
	// independent of the interval's own open/close state.
	conditionActive  bool
	conditionStartNs int64
}

// DurationProducer maintains, per dimension slice, a nesting-aware
// active interval alongside an auxiliary condition timer, folding
// closed and boundary-crossing intervals into the bucket store
// (spec.md §4.4.2, grounded on original_source/statsd
// DurationMetricProducer.cpp's mDuration/mConditionTimer split).
type DurationProducer struct {
	def      DurationDef
	sampler  *Sampler
	act      activeChecker
	condLink ConditionLink
	wizard   condition.Wizard

	guard *GuardrailState
	store *Store[DurationAccum]
	slots map[string]*durationSlot

	logger logr.Logger
}

// activeChecker abstracts activation.Set.IsActive to avoid an import
// cycle concern and to let tests stub it trivially.
type activeChecker interface {
	IsActive() bool
}

// NewDurationProducer builds a duration producer. condLink.Set may be
// false when the metric has no external condition — the condition
// timer then always reads zero.
func NewDurationProducer(def DurationDef, act activeChecker, wizard condition.Wizard, condLink ConditionLink, sampler *Sampler, logger logr.Logger) *DurationProducer {
	return &DurationProducer{
		def:      def,
		sampler:  sampler,
		act:      act,
		condLink: condLink,
		wizard:   wizard,
		guard:    NewGuardrailState(def.Guardrails, logger),
		store:    NewStore[DurationAccum](def.TimeBaseNs, def.BucketNs, func() DurationAccum { return DurationAccum{} }),
		slots:    make(map[string]*durationSlot),
		logger:   logger,
	}
}

func (p *DurationProducer) slot(key dimension.Key) *durationSlot {
	tok := key.Token()
	s, ok := p.slots[tok]
	if !ok {
		s = &durationSlot{key: key}
		p.slots[tok] = s
	}
	return s
}

// OnEvent processes one dispatcher tick.
func (p *DurationProducer) OnEvent(event *atom.Event, mc *matcher.Cache) error {
	ts := event.ElapsedTimeNs

	if p.condLink.Set {
		condTrue, key, err := EvalCondition(p.wizard, p.condLink, event)
		if err != nil {
			return err
		}
		if err := p.updateConditionTimer(key, ts, condTrue); err != nil {
			return err
		}
	}

	stopAll := p.def.StopAllMatcher >= 0 && mc.State(p.def.StopAllMatcher) == matcher.Matched
	started := mc.State(p.def.StartMatcher) == matcher.Matched
	stopped := mc.State(p.def.StopMatcher) == matcher.Matched
	if !stopAll && !started && !stopped {
		return nil
	}
	if p.act != nil && !p.act.IsActive() {
		return nil
	}
	if p.sampler != nil {
		ok, err := p.sampler.Passes(event)
		if err != nil || !ok {
			return err
		}
	}

	key, err := p.sliceKey(event)
	if err != nil {
		return err
	}

	if stopAll {
		p.closeAllIntervals(ts)
		return nil
	}

	if _, exists := p.slots[key.Token()]; !exists {
		if !p.guard.Admit(p.def.ID, len(p.slots)) {
			return nil
		}
	}
	s := p.slot(key)

	// Deactivation precedes activation for the same event (spec.md §8
	// invariant 9).
	if stopped {
		if s.count > 0 {
			s.count--
		}
		if s.count == 0 && s.active {
			p.closeInterval(s, ts)
		}
	}
	if started {
		if !s.active {
			s.active = true
			s.intervalStartNs = ts
		}
		if p.def.Nesting {
			s.count++
		} else if s.count == 0 {
			s.count = 1
		}
	}
	return nil
}

func (p *DurationProducer) sliceKey(event *atom.Event) (dimension.Key, error) {
	if len(p.def.DimensionsInWhat) == 0 {
		return dimension.Empty, nil
	}
	return dimension.Build(event, p.def.DimensionsInWhat)
}

// closeInterval folds [intervalStartNs, closeNs) into the bucket
// store, rolling boundaries and splitting the interval across them.
func (p *DurationProducer) closeInterval(s *durationSlot, closeNs int64) {
	p.accumulate(s.key, s.intervalStartNs, closeNs)
	s.active = false
}

func (p *DurationProducer) closeAllIntervals(ts int64) {
	for _, s := range p.slots {
		if s.active {
			p.closeInterval(s, ts)
		}
		s.count = 0
	}
}

// accumulate folds an active interval into the duration store,
// splitting it at every bucket boundary it crosses so each bucket
// records only the portion of the interval that falls within it.
func (p *DurationProducer) accumulate(key dimension.Key, startNs, endNs int64) {
	mk := dimension.MetricKey{What: key}
	tok := mk.Token()
	cursor := startNs
	for cursor < endNs {
		ser := p.store.Get(tok, cursor, mk)
		segEnd := endNs
		if segEnd > ser.Window.End {
			segEnd = ser.Window.End
		}
		dur := segEnd - cursor
		switch p.def.Variant {
		case DurationMaxSparse:
			cur := ser.Current
			if dur > cur.DurationNs {
				cur.DurationNs = dur
			}
			ser.Current = cur
		default: // DurationSummed
			cur := ser.Current
			cur.DurationNs += dur
			ser.Current = cur
		}
		if segEnd >= ser.Window.End {
			p.store.Roll(ser, segEnd, nil, nil)
		}
		cursor = segEnd
	}
}

// updateConditionTimer folds the just-elapsed span into
// ConditionTrueNs if the condition was true throughout it, mirroring
// original_source/statsd DurationMetricProducer.cpp's mConditionTimer.
func (p *DurationProducer) updateConditionTimer(key dimension.Key, ts int64, nowTrue bool) error {
	tok := key.Token()
	s, ok := p.slots[tok]
	if !ok {
		s = p.slot(key)
	}
	if s.conditionActive && !nowTrue {
		p.accumulateCondition(key, s.conditionStartNs, ts)
		s.conditionActive = false
	} else if !s.conditionActive && nowTrue {
		s.conditionActive = true
		s.conditionStartNs = ts
	}
	return nil
}

func (p *DurationProducer) accumulateCondition(key dimension.Key, startNs, endNs int64) {
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
		cur.ConditionTrueNs += segEnd - cursor
		ser.Current = cur
		if segEnd >= ser.Window.End {
			p.store.Roll(ser, segEnd, nil, nil)
		}
		cursor = segEnd
	}
}

// Store exposes the bucket store for reporting. Buckets whose
// DurationNs falls below UploadThresholdNs are dropped by the caller
// at report time (spec.md §4.4.2 "upload threshold").
func (p *DurationProducer) Store() *Store[DurationAccum] { return p.store }

func (p *DurationProducer) GuardrailHit() bool { return p.guard.Hit() }

// UploadThresholdNs exposes the configured upload threshold for
// report-time bucket filtering (spec.md §4.4.2 "buckets whose duration
// falls below a threshold are dropped").
func (p *DurationProducer) UploadThresholdNs() int64 { return p.def.UploadThresholdNs }
