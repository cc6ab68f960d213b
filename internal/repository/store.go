package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a referenced entity is absent.
var ErrNotFound = errors.New("entity not found")

// ErrStatusConflict is returned when a guarded status update matched no row:
// another writer moved the entity first.
var ErrStatusConflict = errors.New("status guard failed")

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// letting the same repositories run pooled or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories the services depend on.
type Store struct {
	Users       UserRepository
	Bounties    BountyRepository
	Submissions SubmissionRepository
	Audit       AuditLogRepository
	Resets      PasswordResetRepository
}

// TxRunner executes a function with every repository bound to one
// transaction. Entity writes and the ledger append of a lifecycle operation
// commit together or not at all.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// NewPostgresStore builds pooled repositories plus a TxRunner over the pool.
func NewPostgresStore(pool *pgxpool.Pool) (Store, TxRunner) {
	return newStore(pool), &pgTxRunner{pool: pool}
}

func newStore(q Querier) Store {
	return Store{
		Users:       NewUserRepository(q),
		Bounties:    NewBountyRepository(q),
		Submissions: NewSubmissionRepository(q),
		Audit:       NewAuditLogRepository(q),
		Resets:      NewPasswordResetRepository(q),
	}
}

type pgTxRunner struct {
	pool *pgxpool.Pool
}

func (r *pgTxRunner) WithinTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(newStore(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func translateNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
