package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrSyntax is returned for input that is not a single well-formed JSON value.
var ErrSyntax = errors.New("payload: invalid JSON")

// MaxDepth is the deepest nesting of objects and lists Parse accepts. It
// matches the limit encoding/json applies when decoding.
const MaxDepth = 10000

// Parse decodes a JSON document, preserving object key order.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec, 0)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: trailing data after top-level value", ErrSyntax)
	}
	return v, nil
}

// ParseObject decodes a JSON document that must be an object.
func ParseObject(data []byte) (*Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.Object()
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrSyntax)
	}
	return obj, nil
}

func parseValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if depth >= MaxDepth {
			return Value{}, fmt.Errorf("exceeded max depth %d", MaxDepth)
		}
		switch t {
		case '{':
			return parseObject(dec, depth+1)
		case '[':
			return parseList(dec, depth+1)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return String(t), nil
	case json.Number:
		return Literal(t.String()), nil
	case bool:
		if t {
			return Literal("true"), nil
		}
		return Literal("false"), nil
	case nil:
		return Literal("null"), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func parseObject(dec *json.Decoder, depth int) (Value, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key must be a string, got %v", tok)
		}
		v, err := parseValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		obj.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Nested(obj), nil
}

func parseList(dec *json.Decoder, depth int) (Value, error) {
	items := []Value{}
	for dec.More() {
		v, err := parseValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return List(items...), nil
}
