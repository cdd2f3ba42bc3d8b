// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package matcher

import (
	"fmt"

	"github.com/antimetal/metricscore/atom"
)

// evaluate reports whether predicate p holds against event. A path built
// with Position ANY is an existential wildcard: it holds if any populated
// occurrence of the field satisfies the predicate (spec.md §9).
func (p FieldPredicate) evaluate(event *atom.Event) (bool, error) {
	if p.Path.Any {
		for _, fv := range event.FindAtDepth(p.Path) {
			ok, err := p.evaluateAgainst(fv.Value, event)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	v, ok := event.Find(p.Path)
	if !ok {
		return false, nil
	}
	return p.evaluateAgainst(v, event)
}

// evaluateAgainst applies the predicate's op to v, resolving the
// second operand (literal or compared field) as needed.
func (p FieldPredicate) evaluateAgainst(v atom.Value, event *atom.Event) (bool, error) {
	switch p.Op {
	case PredEquals:
		return v.Equal(p.Literal), nil
	case PredLess:
		cmp, err := v.Compare(p.Literal)
		if err != nil {
			return false, fmt.Errorf("matcher: predicate less: %w", err)
		}
		return cmp < 0, nil
	case PredGreater:
		cmp, err := v.Compare(p.Literal)
		if err != nil {
			return false, fmt.Errorf("matcher: predicate greater: %w", err)
		}
		return cmp > 0, nil
	case PredInRange:
		lo, err := v.Compare(p.Literal)
		if err != nil {
			return false, fmt.Errorf("matcher: predicate in-range: %w", err)
		}
		hi, err := v.Compare(p.LiteralHigh)
		if err != nil {
			return false, fmt.Errorf("matcher: predicate in-range: %w", err)
		}
		return lo >= 0 && hi <= 0, nil
	case PredEqualsField:
		other, ok := event.Find(p.ComparePath)
		if !ok {
			return false, nil
		}
		return v.Equal(other), nil
	default:
		return false, fmt.Errorf("matcher: unknown predicate op %d", p.Op)
	}
}

// evaluate reports whether the simple matcher holds against event: the
// atom id matches and every field predicate holds (spec.md §4.2).
func (s Simple) evaluate(event *atom.Event) (bool, error) {
	if event.TagID != s.AtomID {
		return false, nil
	}
	for _, p := range s.Predicates {
		ok, err := p.evaluate(event)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// transform applies the matcher's transforms in order, returning nil if
// none apply (meaning: downstream should use the original event).
func (s Simple) transform(event *atom.Event) *atom.Event {
	if len(s.Transforms) == 0 {
		return nil
	}
	out := event
	changed := false
	for _, t := range s.Transforms {
		switch t.Kind {
		case TransformReplaceConstant:
			out = out.WithField(t.Path, t.Constant)
			changed = true
		case TransformCollapseRepeated:
			out = out.WithoutRepeated(t.Path)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return out
}
