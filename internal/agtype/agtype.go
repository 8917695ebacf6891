// Package agtype decodes the textual agtype encoding returned by Apache AGE.
//
// AGE renders a typed result as "<json>::<tag>", for example
//
//	{"id": 844424930131969, "label": "PERSON", "properties": {"name": "Ada"}}::vertex
//
// Only vertices are decodable today. Callers must not run the decoder against
// projections that may return edges, paths or scalars.
package agtype

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// separator splits content from its type tag
const separator = "::"

var (
	// ErrMalformedWireValue is returned when a value has no type tag or its content cannot be parsed
	ErrMalformedWireValue = errors.New("malformed agtype value: expected content::type")

	// ErrUnsupportedWireType is returned for any tag other than "vertex"
	ErrUnsupportedWireType = errors.New("unsupported agtype type")
)

// Kind is the engine type of a decoded value
type Kind string

const (
	KindVertex Kind = "vertex"
)

// WireValue is a decoded agtype result. The set of implementations is closed;
// switch on the concrete type or on Kind().
type WireValue interface {
	Kind() Kind
	wireValue()
}

// Vertex is a decoded "::vertex" value
type Vertex struct {
	ID         int64          `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// Kind implements WireValue
func (Vertex) Kind() Kind { return KindVertex }

func (Vertex) wireValue() {}

// UnsupportedTypeError reports the tag that could not be decoded
type UnsupportedTypeError struct {
	Tag string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s: %q (expected 'vertex')", ErrUnsupportedWireType, e.Tag)
}

// Is makes errors.Is(err, ErrUnsupportedWireType) match
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedWireType
}

// Decoder decodes agtype strings, logging what it sees
type Decoder struct {
	logger *zap.Logger
}

// NewDecoder creates a Decoder. A nil logger disables logging.
func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger}
}

// Decode is shorthand for a Decoder without logging
func Decode(raw string) (WireValue, error) {
	return NewDecoder(nil).Decode(raw)
}

// Decode parses raw into a WireValue. The type tag is taken after the last "::".
func (d *Decoder) Decode(raw string) (WireValue, error) {
	idx := strings.LastIndex(raw, separator)
	if idx < 0 {
		d.logger.Error("agtype value without type tag", zap.String("raw", raw))
		return nil, ErrMalformedWireValue
	}

	content := strings.TrimFunc(raw[:idx], func(r rune) bool {
		return unicode.IsControl(r) || unicode.IsSpace(r)
	})
	tag := strings.TrimSpace(raw[idx+len(separator):])

	d.logger.Debug("decoding agtype value",
		zap.String("content", content),
		zap.String("tag", tag))

	switch Kind(tag) {
	case KindVertex:
		return d.decodeVertex(content)
	default:
		d.logger.Error("unsupported agtype type", zap.String("tag", tag))
		return nil, &UnsupportedTypeError{Tag: tag}
	}
}

func (d *Decoder) decodeVertex(content string) (WireValue, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	var v Vertex
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: vertex: %v", ErrMalformedWireValue, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after vertex", ErrMalformedWireValue)
	}
	if v.Label == "" {
		return nil, fmt.Errorf("%w: vertex without label", ErrMalformedWireValue)
	}
	if v.Properties == nil {
		v.Properties = map[string]any{}
	}
	return v, nil
}

// EncodeVertex renders v back into its wire form
func EncodeVertex(v Vertex) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode vertex: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n") + separator + string(KindVertex), nil
}
