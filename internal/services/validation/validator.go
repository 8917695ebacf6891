// Package validation checks candidate property maps against attribute definitions.
package validation

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/services/cypher"
)

// Limits applied by CheckShape
const (
	MaxProperties   = 100
	MaxKeyLength    = 50
	MaxStringLength = 1000
	MaxArrayLength  = 100
)

// Validate checks props against the required attributes in declaration order.
// Non-required attributes are not checked. All failures are collected; the
// result is nil or a *entities.ValidationError.
func Validate(attrs []*entities.AttributeDefinition, props map[string]any) error {
	var errs []entities.AttributeError

	for _, attr := range attrs {
		if !attr.Required {
			continue
		}

		value, ok := props[attr.Name]
		if !ok {
			errs = append(errs, entities.AttributeError{
				Kind: entities.AttributeMissing,
				Name: attr.Name,
			})
			continue
		}

		if !matchesType(value, attr.DataType) {
			errs = append(errs, entities.AttributeError{
				Kind:     entities.AttributeWrongType,
				Name:     attr.Name,
				Expected: attr.DataType,
			})
		}
	}

	if len(errs) > 0 {
		return &entities.ValidationError{Errors: errs}
	}
	return nil
}

// matchesType reports whether value is acceptable for dataType.
// String accepts any value.
func matchesType(value any, dataType entities.DataType) bool {
	switch dataType {
	case entities.DataTypeNumber:
		return isNumber(value)
	case entities.DataTypeBoolean:
		_, ok := value.(bool)
		return ok
	case entities.DataTypeDate:
		s, ok := value.(string)
		if !ok {
			return false
		}
		_, err := time.Parse(time.RFC3339, s)
		return err == nil
	default:
		return true
	}
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	default:
		return false
	}
}

// CheckShape enforces the structural rules every property map must satisfy before
// it can be rendered into a query: identifier keys, bounded sizes, no nested
// objects or arrays, no nulls inside arrays, finite numbers, no query delimiter
// inside strings.
// Failures are reported in key order as AttributeInvalidShape errors.
func CheckShape(props map[string]any) error {
	var errs []entities.AttributeError
	add := func(name, reason string) {
		errs = append(errs, entities.AttributeError{
			Kind:   entities.AttributeInvalidShape,
			Name:   name,
			Reason: reason,
		})
	}

	if len(props) > MaxProperties {
		add("*", "too many properties")
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if len(key) > MaxKeyLength {
			add(key, "property key too long")
			continue
		}
		if !entities.IsIdentifier(key) {
			add(key, "invalid property key characters")
			continue
		}

		switch v := props[key].(type) {
		case []any:
			if len(v) > MaxArrayLength {
				add(key, "array too large")
				continue
			}
			for _, elem := range v {
				if reason := checkArrayElement(elem); reason != "" {
					add(key, reason)
					break
				}
			}
		case map[string]any:
			add(key, "nested objects not allowed")
		default:
			if reason := checkScalar(v); reason != "" {
				add(key, reason)
			}
		}
	}

	if len(errs) > 0 {
		return &entities.ValidationError{Errors: errs}
	}
	return nil
}

func checkArrayElement(elem any) string {
	switch elem.(type) {
	case nil:
		return "null values not allowed in arrays"
	case []any:
		return "nested arrays not allowed"
	case map[string]any:
		return "objects in arrays not allowed"
	}
	return checkScalar(elem)
}

func checkScalar(v any) string {
	switch val := v.(type) {
	case nil, bool:
		return ""
	case string:
		if len(val) > MaxStringLength {
			return "string value too long"
		}
		if strings.Contains(val, cypher.QueryDelimiter) {
			return "string value contains reserved sequence"
		}
		return ""
	case json.Number:
		f, err := val.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return "numeric value out of bounds"
		}
		return ""
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return "numeric value out of bounds"
		}
		return ""
	case float32:
		if math.IsInf(float64(val), 0) || math.IsNaN(float64(val)) {
			return "numeric value out of bounds"
		}
		return ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ""
	default:
		return "unsupported value type"
	}
}
