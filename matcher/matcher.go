// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package matcher implements the atom matcher layer: simple matchers
// that filter and optionally transform events, and combination matchers
// that compose other matchers with AND/OR/NOT.
package matcher

import (
	"fmt"

	"github.com/antimetal/metricscore/atom"
)

// Kind discriminates the matcher's variant. Matchers are a closed sum
// type dispatched on Kind, not an open interface hierarchy — spec.md §9
// "Polymorphism over inheritance".
type Kind uint8

const (
	KindSimple Kind = iota
	KindCombination
)

// LogicalOp is the boolean connective a combination matcher applies
// over its children.
type LogicalOp uint8

const (
	OpAnd LogicalOp = iota
	OpOr
	OpNot
)

// PredicateOp compares a field's value to a literal or to another
// field's value.
type PredicateOp uint8

const (
	PredEquals PredicateOp = iota
	PredLess
	PredGreater
	PredInRange
	PredEqualsField
)

// FieldPredicate is one field-value condition a simple matcher requires
// to hold for a match.
type FieldPredicate struct {
	Path        atom.FieldPath
	Op          PredicateOp
	Literal     atom.Value
	LiteralHigh atom.Value     // used only by PredInRange (inclusive upper bound)
	ComparePath atom.FieldPath // used only by PredEqualsField
}

// TransformKind selects how a transform rewrites a field.
type TransformKind uint8

const (
	TransformReplaceConstant TransformKind = iota
	TransformCollapseRepeated
)

// Transform describes a field rewrite applied to produce the
// transformed event a matcher exposes downstream.
type Transform struct {
	Path     atom.FieldPath
	Kind     TransformKind
	Constant atom.Value // used only by TransformReplaceConstant
}

// Simple is a matcher over one atom id plus field-value predicates and
// optional transforms.
type Simple struct {
	AtomID     uint32
	Predicates []FieldPredicate
	Transforms []Transform
}

// Combination composes other matchers (by index) with a logical
// operator. NOT takes exactly one child; AND/OR take one or more.
type Combination struct {
	Op       LogicalOp
	Children []int
}

// Matcher is one node of the acyclic matcher dependency graph. Indices
// are topologically ordered: a combination matcher's Children are
// always indices less than its own (spec.md §3 invariant).
type Matcher struct {
	Name        string
	Kind        Kind
	Simple      *Simple
	Combination *Combination
}

// Validate checks structural invariants for a matcher at position idx
// within a Set of size n: combination children must reference earlier
// indices, and NOT must have exactly one child.
func (m Matcher) Validate(idx, n int) error {
	switch m.Kind {
	case KindSimple:
		if m.Simple == nil {
			return fmt.Errorf("matcher %q: simple matcher missing body", m.Name)
		}
	case KindCombination:
		if m.Combination == nil {
			return fmt.Errorf("matcher %q: combination matcher missing body", m.Name)
		}
		if m.Combination.Op == OpNot && len(m.Combination.Children) != 1 {
			return fmt.Errorf("matcher %q: NOT requires exactly one child", m.Name)
		}
		if len(m.Combination.Children) == 0 {
			return fmt.Errorf("matcher %q: combination matcher has no children", m.Name)
		}
		for _, c := range m.Combination.Children {
			if c < 0 || c >= n {
				return fmt.Errorf("matcher %q: child index %d out of range", m.Name, c)
			}
			if c >= idx {
				return fmt.Errorf("matcher %q: child index %d is not topologically earlier", m.Name, c)
			}
		}
	default:
		return fmt.Errorf("matcher %q: unknown kind %d", m.Name, m.Kind)
	}
	return nil
}
