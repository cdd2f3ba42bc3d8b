// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import "fmt"

// InvalidConfigReason classifies why a Document failed to compile
// (spec.md §7 "configuration errors ... rendered as an
// InvalidConfigReason").
type InvalidConfigReason uint8

const (
	ReasonUnknown InvalidConfigReason = iota
	ReasonInvalidReference
	ReasonCycle
	ReasonUnsupportedPosition
	ReasonGuardrailExceeded
	ReasonMalformedField
)

func (r InvalidConfigReason) String() string {
	switch r {
	case ReasonInvalidReference:
		return "invalid_reference"
	case ReasonCycle:
		return "cycle"
	case ReasonUnsupportedPosition:
		return "unsupported_position"
	case ReasonGuardrailExceeded:
		return "guardrail_exceeded"
	case ReasonMalformedField:
		return "malformed_field"
	default:
		return "unknown"
	}
}

// Error wraps a compile-time configuration failure. A Document that
// fails to compile leaves any previously running Manager in place
// (spec.md §7 "configuration errors abort the update").
type Error struct {
	Reason InvalidConfigReason
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Reason, e.Detail)
}

func errInvalidReference(format string, args ...any) error {
	return &Error{Reason: ReasonInvalidReference, Detail: fmt.Sprintf(format, args...)}
}

func errGuardrailExceeded(format string, args ...any) error {
	return &Error{Reason: ReasonGuardrailExceeded, Detail: fmt.Sprintf(format, args...)}
}

func errMalformedField(format string, args ...any) error {
	return &Error{Reason: ReasonMalformedField, Detail: fmt.Sprintf(format, args...)}
}
