// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import "github.com/go-logr/logr"

// Guardrails is a metric's soft (logged warning) and hard (drop +
// flag) per-dimension limits (spec.md §4.4.6).
type Guardrails struct {
	Soft int // 0 disables
	Hard int // 0 disables
}

// GuardrailState tracks whether the hard limit has been hit for a
// metric, so the report can surface the "dimension guardrail hit" flag
// (spec.md §7).
type GuardrailState struct {
	cfg    Guardrails
	logger logr.Logger
	hit    bool
}

// NewGuardrailState builds guardrail tracking state for a metric.
func NewGuardrailState(cfg Guardrails, logger logr.Logger) *GuardrailState {
	return &GuardrailState{cfg: cfg, logger: logger}
}

// Admit reports whether a new dimension key may be created given the
// metric currently tracks existingKeyCount keys. Existing keys are
// always admitted (guardrails only gate new key creation).
func (g *GuardrailState) Admit(metricID string, existingKeyCount int) bool {
	if g.cfg.Hard > 0 && existingKeyCount >= g.cfg.Hard {
		g.hit = true
		g.logger.Info("dimension guardrail hit, dropping new key",
			"metric", metricID, "hard_limit", g.cfg.Hard)
		return false
	}
	if g.cfg.Soft > 0 && existingKeyCount >= g.cfg.Soft {
		g.logger.Info("dimension guardrail soft limit exceeded",
			"metric", metricID, "soft_limit", g.cfg.Soft, "count", existingKeyCount)
	}
	return true
}

// Hit reports whether the hard guardrail has ever fired for this
// metric since it was constructed or last reset.
func (g *GuardrailState) Hit() bool { return g.hit }

// Reset clears the hit flag, called after a report has surfaced it.
func (g *GuardrailState) Reset() { g.hit = false }
