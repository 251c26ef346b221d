package pdp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind is the JSON type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a decoded JSON value. The zero Value is null. Numbers keep their
// literal text so nothing is lost to float conversion.
type Value struct {
	kind    Kind
	boolean bool
	text    string // string contents or number literal
	array   []Value
	object  *Map
}

func NullValue() Value { return Value{} }

func BoolValue(b bool) Value { return Value{kind: KindBool, boolean: b} }

func NumberValue(n json.Number) Value { return Value{kind: KindNumber, text: n.String()} }

func StringValue(s string) Value { return Value{kind: KindString, text: s} }

func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, array: items}
}

func ObjectValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindObject, object: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.text, true
}

func (v Value) AsNumber() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return json.Number(v.text), true
}

func (v Value) AsFloat64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.text, 64)
	return f, err == nil
}

// Array returns the elements of an array value, nil for other kinds.
func (v Value) Array() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.array
}

// Object returns the members of an object value, nil for other kinds.
func (v Value) Object() *Map {
	if v.kind != KindObject {
		return nil
	}
	return v.object
}

// Len is the number of elements or members; 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.array)
	case KindObject:
		return v.object.Len()
	}
	return 0
}

// Get returns the member key of an object value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.object.Get(key)
}

// Index returns element i of an array value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.array) {
		return Value{}, false
	}
	return v.array[i], true
}

// Text renders a scalar as plain text: strings without quotes, numbers as
// written, booleans as true/false and null as "null". Arrays and objects
// render as "".
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindNumber, KindString:
		return v.text
	}
	return ""
}

// Interface converts v into the encoding/json generic representation, with
// json.Number for numbers.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.boolean
	case KindNumber:
		return json.Number(v.text)
	case KindString:
		return v.text
	case KindArray:
		out := make([]any, len(v.array))
		for i, item := range v.array {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return v.object.Interface()
	}
	return nil
}

// String returns v as compact JSON.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.boolean)), nil
	case KindNumber:
		return []byte(v.text), nil
	case KindString:
		return json.Marshal(v.text)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.array {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		return v.object.MarshalJSON()
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

// Map is a JSON object that remembers the order its keys were first seen.
type Map struct {
	keys   []string
	values map[string]Value
}

func NewMap() *Map {
	return &Map{values: map[string]Value{}}
}

// Set stores v under key. A new key goes to the end, an existing key keeps
// its position.
func (m *Map) Set(key string, v Value) {
	if m.values == nil {
		m.values = map[string]Value{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Range calls fn for each member in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

func (m *Map) Interface() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v Value) bool {
		out[k] = v.Interface()
		return true
	})
	return out
}

func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		b, err := m.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// maxDepth matches the nesting limit of encoding/json.
const maxDepth = 10000

// DecodeTree parses a complete JSON document of any type. Documents nested
// deeper than 10000 levels are rejected.
func DecodeTree(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: unexpected data after top-level value", ErrMalformedResponse)
	}

	return v, nil
}

// DecodeMap parses a JSON document whose top level must be an object.
func DecodeMap(data []byte) (*Map, error) {
	v, err := DecodeTree(data)
	if err != nil {
		return nil, err
	}
	if v.Kind() != KindObject {
		return nil, fmt.Errorf("%w: expected an object, got %s", ErrMalformedResponse, v.Kind())
	}
	return v.Object(), nil
}

// decodeValue reads the next value; depth is the number of enclosing
// arrays and objects.
func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return Value{}, errors.New("unexpected end of input")
	} else if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= maxDepth {
			return Value{}, fmt.Errorf("exceeded max depth of %d", maxDepth)
		}
		switch t {
		case '{':
			return decodeObject(dec, depth+1)
		case '[':
			return decodeArray(dec, depth+1)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case string:
		return StringValue(t), nil
	case nil:
		return NullValue(), nil
	}

	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	m := NewMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("unexpected object key %v", tok)
		}

		v, err := decodeValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		m.Set(key, v)
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return ObjectValue(m), nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	items := []Value{}
	for dec.More() {
		v, err := decodeValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}

	// closing bracket
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return ArrayValue(items...), nil
}
