// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package atom

// FieldValue pairs a field path with the typed payload found there.
type FieldValue struct {
	Path  FieldPath
	Value Value
}

// Event is an immutable atom emitted by a system component: a tag id
// (atom type), the source that emitted it, an elapsed-time timestamp,
// and its ordered field-values. Events are never mutated in place —
// matchers that transform an event produce a copy (see Clone).
type Event struct {
	TagID         uint32
	SourceUID     int32
	ElapsedTimeNs int64
	Fields        []FieldValue
}

// SystemUID marks events from a privileged source, which the dispatcher's
// credential check always admits regardless of the allowed-log-sources set.
const SystemUID int32 = 1000

// Find returns the first field-value whose path equals path exactly.
func (e *Event) Find(path FieldPath) (Value, bool) {
	for _, fv := range e.Fields {
		if fv.Path.Equal(path) {
			return fv.Value, true
		}
	}
	return Value{}, false
}

// FindAtDepth returns every field-value sharing path's AtomTag,
// FieldNumber, and Depth — the candidate set a positional matcher
// (FIRST/LAST/ALL/ANY) selects from among repeated occurrences.
func (e *Event) FindAtDepth(path FieldPath) []FieldValue {
	var out []FieldValue
	for _, fv := range e.Fields {
		if fv.Path.AtomTag == path.AtomTag &&
			fv.Path.FieldNumber == path.FieldNumber &&
			fv.Path.Depth == path.Depth {
			out = append(out, fv)
		}
	}
	return out
}

// Clone returns a deep copy of the event, used as the basis for a
// matcher's transformed-event output.
func (e *Event) Clone() *Event {
	out := &Event{
		TagID:         e.TagID,
		SourceUID:     e.SourceUID,
		ElapsedTimeNs: e.ElapsedTimeNs,
		Fields:        make([]FieldValue, len(e.Fields)),
	}
	copy(out.Fields, e.Fields)
	return out
}

// WithField returns a copy of the event with the field at path replaced
// by (or appended as) value — the "replace field by a constant"
// transformation from spec.md §3.
func (e *Event) WithField(path FieldPath, value Value) *Event {
	out := e.Clone()
	for i, fv := range out.Fields {
		if fv.Path.Equal(path) {
			out.Fields[i].Value = value
			return out
		}
	}
	out.Fields = append(out.Fields, FieldValue{Path: path, Value: value})
	return out
}

// WithoutRepeated collapses every field-value sharing path's AtomTag,
// FieldNumber, and Depth into a single normalized entry, keeping only
// the first occurrence's value — the "collapse a repeated field"
// transformation from spec.md §3.
func (e *Event) WithoutRepeated(path FieldPath) *Event {
	out := &Event{
		TagID:         e.TagID,
		SourceUID:     e.SourceUID,
		ElapsedTimeNs: e.ElapsedTimeNs,
		Fields:        make([]FieldValue, 0, len(e.Fields)),
	}
	collapsed := false
	for _, fv := range e.Fields {
		if fv.Path.AtomTag == path.AtomTag &&
			fv.Path.FieldNumber == path.FieldNumber &&
			fv.Path.Depth == path.Depth {
			if collapsed {
				continue
			}
			normalized, err := fv.Path.Normalized()
			if err != nil {
				normalized = fv.Path
			}
			out.Fields = append(out.Fields, FieldValue{Path: normalized, Value: fv.Value})
			collapsed = true
			continue
		}
		out.Fields = append(out.Fields, fv)
	}
	return out
}
