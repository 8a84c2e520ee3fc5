package postgres

import (
	"context"
	_ "embed"

	"github.com/cockroachdb/errors"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the schema. Statements are idempotent, so running it on
// every startup is safe.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return errors.Wrap(err, "apply schema")
}
