// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package atom defines the immutable event record ingested by the metrics
// core and the typed field-value payloads it carries.
package atom

import (
	"bytes"
	"fmt"
)

// ValueType is the payload kind carried by a Value.
type ValueType uint8

const (
	ValueTypeInt32 ValueType = iota
	ValueTypeInt64
	ValueTypeFloat
	ValueTypeDouble
	ValueTypeString
	ValueTypeBool
	ValueTypeBytes
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeInt32:
		return "int32"
	case ValueTypeInt64:
		return "int64"
	case ValueTypeFloat:
		return "float"
	case ValueTypeDouble:
		return "double"
	case ValueTypeString:
		return "string"
	case ValueTypeBool:
		return "bool"
	case ValueTypeBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is a typed field payload. Only the field matching Type is
// meaningful; the rest are zero. Value is comparable with ==, which
// Equal and predicate evaluation rely on for equality.
type Value struct {
	Type    ValueType
	Int32   int32
	Int64   int64
	Float32 float32
	Float64 float64
	Str     string
	Bool    bool
	Bytes   string // immutable payload; string avoids slice aliasing in map keys
}

func Int32Value(v int32) Value    { return Value{Type: ValueTypeInt32, Int32: v} }
func Int64Value(v int64) Value    { return Value{Type: ValueTypeInt64, Int64: v} }
func FloatValue(v float32) Value  { return Value{Type: ValueTypeFloat, Float32: v} }
func DoubleValue(v float64) Value { return Value{Type: ValueTypeDouble, Float64: v} }
func StringValue(v string) Value  { return Value{Type: ValueTypeString, Str: v} }
func BoolValue(v bool) Value      { return Value{Type: ValueTypeBool, Bool: v} }
func BytesValue(v []byte) Value   { return Value{Type: ValueTypeBytes, Bytes: string(v)} }

// AsFloat64 returns a numeric widening of the value, used by value-metric
// aggregation and range predicates. ok is false for non-numeric types.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Type {
	case ValueTypeInt32:
		return float64(v.Int32), true
	case ValueTypeInt64:
		return float64(v.Int64), true
	case ValueTypeFloat:
		return float64(v.Float32), true
	case ValueTypeDouble:
		return v.Float64, true
	default:
		return 0, false
	}
}

// Compare orders two values. Values of different numeric types are
// compared after widening both to float64. It returns an error for a
// non-numeric type mismatch or for non-orderable types (bytes, bool).
func (v Value) Compare(other Value) (int, error) {
	if v.Type != other.Type {
		vf, vok := v.AsFloat64()
		of, ook := other.AsFloat64()
		if vok && ook {
			return compareFloat(vf, of), nil
		}
		return 0, fmt.Errorf("atom: cannot compare %s to %s", v.Type, other.Type)
	}
	switch v.Type {
	case ValueTypeInt32:
		return compareFloat(float64(v.Int32), float64(other.Int32)), nil
	case ValueTypeInt64:
		return compareFloat(float64(v.Int64), float64(other.Int64)), nil
	case ValueTypeFloat:
		return compareFloat(float64(v.Float32), float64(other.Float32)), nil
	case ValueTypeDouble:
		return compareFloat(v.Float64, other.Float64), nil
	case ValueTypeString:
		switch {
		case v.Str < other.Str:
			return -1, nil
		case v.Str > other.Str:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("atom: type %s is not orderable", v.Type)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports value equality, including for bytes payloads.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	if v.Type == ValueTypeBytes {
		return bytes.Equal([]byte(v.Bytes), []byte(other.Bytes))
	}
	return v == other
}

func (v Value) String() string {
	switch v.Type {
	case ValueTypeInt32:
		return fmt.Sprintf("%d", v.Int32)
	case ValueTypeInt64:
		return fmt.Sprintf("%d", v.Int64)
	case ValueTypeFloat:
		return fmt.Sprintf("%g", v.Float32)
	case ValueTypeDouble:
		return fmt.Sprintf("%g", v.Float64)
	case ValueTypeString:
		return v.Str
	case ValueTypeBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueTypeBytes:
		return fmt.Sprintf("%x", v.Bytes)
	default:
		return "<invalid>"
	}
}
