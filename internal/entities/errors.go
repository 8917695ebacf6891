package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument is returned for malformed request fields such as an empty graph ID
var ErrInvalidArgument = errors.New("invalid argument")

// Schema errors
var (
	ErrInvalidTypeName   = errors.New("invalid type name")
	ErrInvalidAttribute  = errors.New("invalid attribute definition")
	ErrTypeAlreadyExists = errors.New("type already exists")
)

// Entity errors
var (
	ErrUnknownType         = errors.New("unknown type")
	ErrEntityAlreadyExists = errors.New("entity already exists")
	ErrEntityNotFound      = errors.New("entity not found")
	ErrEndpointNotFound    = errors.New("edge endpoint not found")
	ErrUnsupportedKind     = errors.New("operation not supported for this type kind")
)

// AttributeErrorKind classifies a single property validation failure
type AttributeErrorKind string

const (
	AttributeMissing      AttributeErrorKind = "missing"
	AttributeWrongType    AttributeErrorKind = "wrong_type"
	AttributeInvalidShape AttributeErrorKind = "invalid_shape"
)

// AttributeError describes one failed check against a property map
type AttributeError struct {
	Kind     AttributeErrorKind
	Name     string   // Attribute or property key
	Expected DataType // Set for AttributeWrongType
	Reason   string   // Set for AttributeInvalidShape
}

// Error renders a human-readable message
func (e AttributeError) Error() string {
	switch e.Kind {
	case AttributeMissing:
		return fmt.Sprintf("required attribute '%s' is missing", e.Name)
	case AttributeWrongType:
		return fmt.Sprintf("attribute '%s' must be a %s", e.Name, e.Expected)
	default:
		return fmt.Sprintf("property '%s' is invalid: %s", e.Name, e.Reason)
	}
}

// ValidationError carries every failure found while validating one property map
type ValidationError struct {
	Errors []AttributeError
}

// Error joins the individual failures
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ae := range e.Errors {
		msgs[i] = ae.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// PersistenceError wraps a storage failure.
// Error() omits driver detail; use Unwrap for logging.
type PersistenceError struct {
	Op  string
	Err error
}

// Error returns a message safe to show to callers
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed", e.Op)
}

// Unwrap exposes the underlying driver error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err unless it is nil
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
