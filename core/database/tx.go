package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WithinTransaction runs fn inside a transaction, committing on nil error and
// rolling back otherwise. Used wherever a delete-then-create sequence must
// not be observable half-done (e.g. replacing a subscriber's links).
func WithinTransaction(ctx context.Context, db IDatabase, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
