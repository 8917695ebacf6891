package repositories

import (
	"context"
)

// CypherRunner executes a rendered cypher statement and returns each result
// row as its raw agtype text
type CypherRunner interface {
	Query(ctx context.Context, stmt string) ([]string, error)
}

// GraphRepository executes statements against the graph engine
type GraphRepository interface {
	CypherRunner

	// RunInTx runs fn inside one database transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise, including when
	// ctx is cancelled first.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx CypherRunner) error) error
}
