package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "merenda/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// Runner executes fn as one all-or-nothing persistence unit. Callbacks
// registered with AfterCommit inside fn run only after a successful commit.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner runs units inside a database/sql transaction.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLRunner(db *sql.DB, timeout time.Duration) *SQLRunner {
	return &SQLRunner{db: db, timeout: timeout}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	txCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(txCtx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	scoped := WithAfterCommit(WithTx(txCtx, sqlTx))
	if err := fn(scoped); err != nil {
		Discard(scoped)
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		Discard(scoped)
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}

	// Callbacks outlive the transaction timeout; hand them the caller's context.
	runDetached(ctx, scoped)
	return nil
}

// LocalRunner provides the after-commit scope for in-memory stores, which
// apply their writes atomically on their own.
type LocalRunner struct{}

func (LocalRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	scoped := WithAfterCommit(ctx)
	if err := fn(scoped); err != nil {
		Discard(scoped)
		return err
	}
	RunAfterCommit(scoped)
	return nil
}

// runDetached drains callbacks collected in scoped but runs them against
// base, so a cancelled transaction context does not leak into dispatch.
func runDetached(base, scoped context.Context) {
	ac, ok := scoped.Value(afterCommitKey{}).(*afterCommit)
	if !ok {
		return
	}
	ac.mu.Lock()
	fns := ac.fns
	ac.fns = nil
	ac.mu.Unlock()
	for _, fn := range fns {
		fn(base)
	}
}
