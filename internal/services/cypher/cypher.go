// Package cypher renders property maps and statements in the cypher dialect
// accepted by Apache AGE, wrapped in the SQL call that executes them.
//
// String values are the only escaped content. The query body is dollar-quoted
// with QueryDelimiter, so a string containing it is rejected rather than escaped.
// Graph names, labels and property
// keys are emitted verbatim: callers must pass identifiers that satisfy
// ValidIdentifier (type names are normalized by the schema layer and property
// keys are checked by validation.CheckShape).
package cypher

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/agegraph/typegraph/internal/entities"
)

var (
	// ErrUnsupportedValue is returned for nested objects, nested arrays or unknown Go types
	ErrUnsupportedValue = errors.New("unsupported property value")

	// ErrInvalidIdentifier is returned when a graph name, label or key is not identifier-safe
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// QueryDelimiter is the dollar-quote tag around every cypher body
const QueryDelimiter = "$cypher$"

// Page bounds a MATCH result. A zero Limit means no LIMIT clause.
type Page struct {
	Offset int
	Limit  int
}

// ValidIdentifier reports whether s can be embedded unquoted
func ValidIdentifier(s string) bool {
	return entities.IsIdentifier(s)
}

// EscapeString single-quotes s, backslash-escaping backslashes and single quotes.
// Strings containing QueryDelimiter return ErrUnsupportedValue.
func EscapeString(s string) (string, error) {
	if strings.Contains(s, QueryDelimiter) {
		return "", fmt.Errorf("%w: string contains %s", ErrUnsupportedValue, QueryDelimiter)
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'", nil
}

// RenderValue renders one property value
func RenderValue(v any) (string, error) {
	switch val := v.(type) {
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			switch elem.(type) {
			case []any, map[string]any:
				return "", fmt.Errorf("%w: nested %T", ErrUnsupportedValue, elem)
			}
			s, err := RenderValue(elem)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return renderScalar(v)
	}
}

func renderScalar(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return EscapeString(val)
	case bool:
		return strconv.FormatBool(val), nil
	case json.Number:
		if _, err := val.Float64(); err != nil {
			return "", fmt.Errorf("%w: invalid number %q", ErrUnsupportedValue, val)
		}
		return val.String(), nil
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", val), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func formatFloat(f float64) (string, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", fmt.Errorf("%w: non-finite number", ErrUnsupportedValue)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// RenderProperties renders props as a brace-delimited clause with keys in sorted order
// Example: {count: 3, name: 'O\'Brien'}
func RenderProperties(props map[string]any) (string, error) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s, err := RenderValue(props[k])
		if err != nil {
			return "", fmt.Errorf("property %s: %w", k, err)
		}
		parts = append(parts, k+": "+s)
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

// wrap embeds a cypher query in the SQL call that runs it on graph
func wrap(graph, query string) string {
	return fmt.Sprintf("SELECT * FROM ag_catalog.cypher('%s', %s %s %s) AS (row ag_catalog.agtype)",
		graph, QueryDelimiter, query, QueryDelimiter)
}

func checkIdentifiers(names ...string) error {
	for _, n := range names {
		if !ValidIdentifier(n) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, n)
		}
	}
	return nil
}

// CreateVertex renders a statement creating one vertex and returning it
func CreateVertex(graph, label string, props map[string]any) (string, error) {
	if err := checkIdentifiers(graph, label); err != nil {
		return "", err
	}
	clause, err := RenderProperties(props)
	if err != nil {
		return "", err
	}
	return wrap(graph, fmt.Sprintf("CREATE (n:%s %s) RETURN n", label, clause)), nil
}

// MatchVertexByName renders a statement returning vertices of label whose name property equals name
func MatchVertexByName(graph, label, name string) (string, error) {
	if err := checkIdentifiers(graph, label); err != nil {
		return "", err
	}
	quoted, err := EscapeString(name)
	if err != nil {
		return "", err
	}
	return wrap(graph, fmt.Sprintf("MATCH (n:%s {%s: %s}) RETURN n", label, entities.PropertyName, quoted)), nil
}

// MatchVertices renders a statement returning vertices, optionally restricted to label
func MatchVertices(graph, label string, page Page) (string, error) {
	if err := checkIdentifiers(graph); err != nil {
		return "", err
	}

	pattern := "(n)"
	if label != "" {
		if err := checkIdentifiers(label); err != nil {
			return "", err
		}
		pattern = "(n:" + label + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MATCH %s RETURN n ORDER BY id(n)", pattern)
	if page.Offset > 0 {
		fmt.Fprintf(&b, " SKIP %d", page.Offset)
	}
	if page.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", page.Limit)
	}
	return wrap(graph, b.String()), nil
}

// CreateEdge renders a statement creating an edge between two vertices by id and returning the edge id
func CreateEdge(graph, label string, fromID, toID int64, props map[string]any) (string, error) {
	if err := checkIdentifiers(graph, label); err != nil {
		return "", err
	}
	clause, err := RenderProperties(props)
	if err != nil {
		return "", err
	}
	return wrap(graph, fmt.Sprintf(
		"MATCH (a), (b) WHERE id(a) = %d AND id(b) = %d CREATE (a)-[e:%s %s]->(b) RETURN id(e)",
		fromID, toID, label, clause)), nil
}
