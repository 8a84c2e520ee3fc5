package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gabrielpaulo/atrium-booking/internal/domain"
	"github.com/gabrielpaulo/atrium-booking/internal/observability"
)

const serializationFailureCode = "40001"

// Store persists reservations, holds, recurring blocks and the outbox. All
// writes go through WithTx; a serializable transaction is the unit of
// atomicity for every check-and-write on one (resource, date) partition.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type txKey struct{}

// WithTx runs fn inside a SERIALIZABLE transaction carried on the context.
// Nested calls join the transaction already in flight. Serialization
// failures surface as domain.ErrSerializationFailure so callers can map them
// to a retryable conflict.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	defer func(start time.Time) {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}(time.Now())

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return mapSerializationFailure(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapSerializationFailure(err)
	}
	return nil
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// querier is satisfied by both pgx.Tx and *pgxpool.Pool, so reads work inside
// and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) db(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func mapSerializationFailure(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode {
		return domain.ErrSerializationFailure
	}
	return err
}
