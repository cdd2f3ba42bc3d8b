// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package metric implements the five metric producers (count, duration,
// value, gauge, event) and the bucket, guardrail, and sampling
// machinery they share.
package metric

import "github.com/antimetal/metricscore/atom"

// LinkTarget discriminates what a FieldLink maps into — a condition's
// sliced dimensions, or an externally tracked state atom's fields.
// spec.md §9 design note: "a single FieldLink type with an X ∈
// {condition, state} discriminator suffices."
type LinkTarget uint8

const (
	LinkToCondition LinkTarget = iota
	LinkToState
)

// FieldLink maps fields-in-the-metric's-what to fields-in-X, where X is
// either a condition's dimensions_in_what or a state atom's fields.
type FieldLink struct {
	Target LinkTarget

	ConditionIndex int    // valid when Target == LinkToCondition
	StateAtomID    uint32 // valid when Target == LinkToState

	MetricFields []atom.FieldPath
	TargetFields []atom.FieldPath
}
