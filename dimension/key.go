// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package dimension builds and hashes the ordered field-value tuples
// ("dimension keys") that metric buckets and condition slices are keyed
// on.
package dimension

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/antimetal/metricscore/atom"
)

// Key is an ordered sequence of field-values used as a map key. Two
// keys are equal iff they carry the same field-values in the same
// order, including field path — spec.md §3 "equality is value-wise
// including field path". Key is not itself comparable (it embeds a
// slice); use Token() for map storage and Equal() for value comparison.
type Key struct {
	Values []atom.FieldValue
}

// Empty is the unsliced dimension key: no dimensions, one slice.
var Empty = Key{}

// Build derives a dimension key from event by reading the field
// addressed by each path. Paths with Position ALL are not expanded
// here — callers that need cross-product expansion over a repeated
// field must supply one path per concrete occurrence (see
// atom.Event.FindAtDepth). Every path is normalized (§9 design note)
// before being stored, so keys collapse across equivalent positions.
func Build(event *atom.Event, paths []atom.FieldPath) (Key, error) {
	values := make([]atom.FieldValue, 0, len(paths))
	for _, p := range paths {
		normalized, err := p.Normalized()
		if err != nil {
			return Key{}, fmt.Errorf("dimension: field %d.%d: %w", p.AtomTag, p.FieldNumber, err)
		}
		v, ok := event.Find(p)
		if !ok {
			return Key{}, fmt.Errorf("dimension: field %d.%d not present in event", p.AtomTag, p.FieldNumber)
		}
		values = append(values, atom.FieldValue{Path: normalized, Value: v})
	}
	return Key{Values: values}, nil
}

// Equal reports value-wise equality including field path.
func (k Key) Equal(other Key) bool {
	if len(k.Values) != len(other.Values) {
		return false
	}
	for i := range k.Values {
		if k.Values[i].Path != other.Values[i].Path {
			return false
		}
		if !k.Values[i].Value.Equal(other.Values[i].Value) {
			return false
		}
	}
	return true
}

// Token returns a comparable, hashable string encoding of the key
// suitable for use as a Go map key. Encoding is structural: distinct
// keys never collide by construction (lengths are length-prefixed).
func (k Key) Token() string {
	var b strings.Builder
	for _, fv := range k.Values {
		fmt.Fprintf(&b, "%d|%d|%v|%d|%v|%v|%v|%d=%d:%s;",
			fv.Path.AtomTag, fv.Path.Depth, fv.Path.Positions, fv.Path.FieldNumber,
			fv.Path.Last, fv.Path.All, fv.Path.Any,
			int(fv.Value.Type), len(fv.Value.String()), fv.Value.String())
	}
	return b.String()
}

// Hash64 computes a stable 64-bit structural hash of the key, used by
// dimensional sampling (spec.md §4.6) to shard consistently across
// process restarts given the same shard offset.
func (k Key) Hash64() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(k.Token())
	return h.Sum64()
}

// MetricKey is the pair (what-key, state-values-key) that a metric's
// bucket store is keyed on (spec.md §3).
type MetricKey struct {
	What  Key
	State Key
}

// Token returns a comparable encoding suitable for map storage.
func (mk MetricKey) Token() string {
	return mk.What.Token() + "||" + mk.State.Token()
}

// Equal reports value-wise equality of both components.
func (mk MetricKey) Equal(other MetricKey) bool {
	return mk.What.Equal(other.What) && mk.State.Equal(other.State)
}

// SortedLabels renders the key as label=value pairs sorted by field
// number, used by report rendering to expand dimension leaves.
func (k Key) SortedLabels() []string {
	values := append([]atom.FieldValue(nil), k.Values...)
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Path.FieldNumber < values[j].Path.FieldNumber
	})
	out := make([]string, len(values))
	for i, fv := range values {
		out[i] = fmt.Sprintf("%d=%s", fv.Path.FieldNumber, fv.Value.String())
	}
	return out
}
