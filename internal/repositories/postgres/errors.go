package postgres

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// PostgreSQL error codes
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	CodeUniqueViolation = "23505"
	CodeDuplicateObject = "42710"
	CodeDuplicateTable  = "42P07"
)

// IsAlreadyExists reports whether err means the object being created exists.
// AGE raises 42710/42P07 (or only a message) when a label is created twice;
// metadata inserts raise 23505.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case CodeUniqueViolation, CodeDuplicateObject, CodeDuplicateTable:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
