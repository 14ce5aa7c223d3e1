// Package dataset models dataset records and renders samples from a Source.
//
// A Record keeps its fields in the order the source produced them, so the
// viewer prints columns the way the dataset declares them.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the variant held by a Value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single field value: null, text, number, bool, list or a nested record.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string // text, or the number literal as it appeared in the source
	b    bool
	list []Value
	obj  *Record
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value from its source literal, e.g. "42" or "1.5e3".
func Number(literal string) Value { return Value{kind: KindNumber, str: literal} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Object returns a nested record value.
func Object(r *Record) Value {
	if r == nil {
		r = NewRecord()
	}
	return Value{kind: KindObject, obj: r}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Text returns the text of a string value or the literal of a number.
func (v Value) Text() string { return v.str }

// Items returns the elements of a list value.
func (v Value) Items() []Value { return v.list }

// Record returns the nested record of an object value, or nil.
func (v Value) Record() *Record { return v.obj }

// String renders v for display: text as-is, numbers as their source literal,
// and lists and objects as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.str
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindList, KindObject:
		return string(v.appendJSON(nil))
	default:
		return "null"
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil), nil
}

func (v Value) appendJSON(buf []byte) []byte {
	switch v.kind {
	case KindString:
		return appendQuoted(buf, v.str)
	case KindNumber:
		return append(buf, v.str...)
	case KindBool:
		if v.b {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case KindList:
		buf = append(buf, '[')
		for i, item := range v.list {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = item.appendJSON(buf)
		}
		return append(buf, ']')
	case KindObject:
		return v.obj.appendJSON(buf)
	default:
		return append(buf, "null"...)
	}
}

// Record is an ordered mapping from field name to Value.
type Record struct {
	fields *orderedmap.OrderedMap[string, Value]
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, Value]()}
}

// Set stores a field. Setting an existing name replaces its value in place.
func (r *Record) Set(name string, v Value) {
	r.fields.Set(name, v)
}

// Get returns the value of a field.
func (r *Record) Get(name string) (Value, bool) {
	return r.fields.Get(name)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return r.fields.Len()
}

// Names returns the field names in insertion order.
func (r *Record) Names() []string {
	names := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Fields iterates over the fields in insertion order.
func (r *Record) Fields() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// MarshalJSON implements json.Marshaler, keeping field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.appendJSON(nil), nil
}

func (r *Record) appendJSON(buf []byte) []byte {
	buf = append(buf, '{')
	first := true
	for name, v := range r.Fields() {
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = appendQuoted(buf, name)
		buf = append(buf, ':')
		buf = v.appendJSON(buf)
	}
	return append(buf, '}')
}

// ParseRecord decodes a JSON object into a Record, preserving key order.
func ParseRecord(data []byte) (*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, fmt.Errorf("record must be a JSON object, got %s", res.Type)
	}

	return recordFromResult(res), nil
}

func recordFromResult(res gjson.Result) *Record {
	r := NewRecord()
	res.ForEach(func(key, value gjson.Result) bool {
		r.Set(key.String(), valueFromResult(value))
		return true
	})
	return r
}

func valueFromResult(res gjson.Result) Value {
	switch res.Type {
	case gjson.Null:
		return Null()
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number(strings.TrimSpace(res.Raw))
	case gjson.String:
		return String(res.Str)
	}

	if res.IsArray() {
		items := make([]Value, 0)
		res.ForEach(func(_, item gjson.Result) bool {
			items = append(items, valueFromResult(item))
			return true
		})
		return List(items...)
	}

	return Object(recordFromResult(res))
}

// appendQuoted appends s as a JSON string without HTML escaping, so markers
// such as <think> stay readable.
func appendQuoted(buf []byte, s string) []byte {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return append(buf, bytes.TrimSuffix(b.Bytes(), []byte("\n"))...)
}
