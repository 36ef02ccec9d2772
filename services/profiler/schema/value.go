// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMismatch reports stored data that no longer decodes against the
// current schema. Callers treat it as fatal rather than degradable.
var ErrMismatch = errors.New("schema: record mismatch")

// =============================================================================
// Value — tagged variant for field payloads
// =============================================================================
//
// Extraction output arrives as arbitrary JSON: a field may be a string, a
// number, a list, or a nested object depending on what the model emitted.
// Value pins that polymorphism down once, at the extractor boundary, so the
// rest of the pipeline never touches interface{} shapes.

// Kind discriminates the Value variant.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindList
	KindRecord
)

// Value is an immutable tagged variant: Null | Text | Number | List | Record.
// The zero Value is Null.
type Value struct {
	kind Kind
	text string
	num  float64
	list []Value
	rec  map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number wraps a float.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// List wraps a list of values.
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// TextList wraps a list of strings.
func TextList(ss ...string) Value {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = Text(s)
	}
	return List(vs...)
}

// Object wraps a nested record.
func Object(m map[string]Value) Value { return Value{kind: KindRecord, rec: m} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// AsText returns the string payload when the value is Text.
func (v Value) AsText() (string, bool) { return v.text, v.kind == KindText }

// AsNumber returns the numeric payload when the value is Number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsList returns the list payload when the value is List.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsRecord returns the nested record payload when the value is Record.
func (v Value) AsRecord() (map[string]Value, bool) { return v.rec, v.kind == KindRecord }

// placeholderText holds string payloads that count as absent. The extractor
// is told to omit unknown fields but models still emit these.
var placeholderText = map[string]struct{}{
	"":              {},
	"unknown":       {},
	"n/a":           {},
	"not available": {},
	"none":          {},
}

// Populated reports whether the value carries real information: a non-empty,
// non-placeholder string, a non-zero number, or a non-empty list or record.
func (v Value) Populated() bool {
	switch v.kind {
	case KindText:
		_, placeholder := placeholderText[strings.ToLower(strings.TrimSpace(v.text))]
		return !placeholder
	case KindNumber:
		return v.num != 0
	case KindList:
		return len(v.list) > 0
	case KindRecord:
		return len(v.rec) > 0
	}
	return false
}

// MarshalJSON renders the variant as plain JSON (no tag wrapper).
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		return json.Marshal(v.num)
	case KindList:
		return json.Marshal(v.list)
	case KindRecord:
		return json.Marshal(v.rec)
	}
	return []byte("null"), nil
}

// UnmarshalJSON parses plain JSON into the variant.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts a json.Unmarshal-produced any into a Value.
//
// Outputs:
//   - Value: the converted variant.
//   - error: when the input holds a Go type JSON decoding cannot produce.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return Text(x), nil
	case float64:
		return Number(x), nil
	case bool:
		// Rare model output; preserved as text rather than widening the variant.
		return Text(fmt.Sprintf("%t", x)), nil
	case []any:
		vs := make([]Value, 0, len(x))
		for _, e := range x {
			v, err := FromAny(e)
			if err != nil {
				return Null(), err
			}
			vs = append(vs, v)
		}
		return List(vs...), nil
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := FromAny(e)
			if err != nil {
				return Null(), err
			}
			m[k] = v
		}
		return Object(m), nil
	}
	return Null(), fmt.Errorf("unsupported value type %T", raw)
}

// =============================================================================
// Record
// =============================================================================

// Record is an institution profile: schema field name to value. Absent
// fields are absent keys, never nulls.
type Record map[string]Value

// Set stores a populated value under a schema field; unpopulated values and
// unknown field names are ignored so a Record never holds noise.
func (r Record) Set(field string, v Value) {
	if _, ok := fieldIndex[field]; !ok {
		return
	}
	if !v.Populated() {
		return
	}
	r[field] = v
}

// Populated reports whether field is present with a populated value.
func (r Record) Populated(field string) bool {
	v, ok := r[field]
	return ok && v.Populated()
}

// InstitutionType reads the record's "type" field, defaulting to general.
func (r Record) InstitutionType() InstitutionType {
	if v, ok := r["type"]; ok {
		if s, isText := v.AsText(); isText {
			t, _ := ParseType(strings.ToLower(strings.TrimSpace(s)))
			return t
		}
	}
	return TypeGeneral
}

// FieldNames returns the populated field names sorted for stable output.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseRecord converts decoded JSON into a Record, dropping keys that are
// not schema fields and values that are not populated.
//
// Outputs:
//   - Record: the validated profile.
//   - []string: dropped key names, for benchmark warnings.
//   - error: when a value cannot be represented in the variant.
func ParseRecord(raw map[string]any) (Record, []string, error) {
	rec := make(Record, len(raw))
	var dropped []string
	for key, rawVal := range raw {
		if _, known := fieldIndex[key]; !known {
			dropped = append(dropped, key)
			continue
		}
		v, err := FromAny(rawVal)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		if v.Populated() {
			rec[key] = v
		}
	}
	sort.Strings(dropped)
	return rec, dropped, nil
}
