// Package tx propagates SQL transactions through context so stores can join a
// caller's transaction without changing their signatures, and provides the
// Runner that opens those transactions.
package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "lifeline/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

const defaultTxTimeout = 5 * time.Second

// Runner executes a function inside a database transaction. The transaction
// rides the context; stores that check tx.From join it automatically.
type Runner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewRunner builds a Runner over the given database handle.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// RunInTx begins a transaction, runs fn with the transaction in context, and
// commits when fn returns nil. Any error rolls the transaction back.
func (r *Runner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	if err := fn(WithTx(ctx, dbTx)); err != nil {
		return err
	}
	return dbTx.Commit()
}

// MemoryRunner serializes transactional sections with a coarse lock for
// in-memory store setups. Satisfies the same contract as Runner.
type MemoryRunner struct {
	mu chan struct{}
}

// NewMemoryRunner builds a MemoryRunner.
func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{mu: make(chan struct{}, 1)}
}

// RunInTx runs fn while holding the lock; the context is passed through
// unchanged since in-memory stores have no transaction to join.
func (m *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case m.mu <- struct{}{}:
		defer func() { <-m.mu }()
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
