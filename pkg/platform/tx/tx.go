// Package tx carries the active SQL transaction and its after-commit
// callbacks through context so stores and hooks can join the caller's
// persistence unit without extra parameters.
package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}
type afterCommitKey struct{}

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

// afterCommit collects callbacks to run once the enclosing unit commits.
type afterCommit struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

// WithAfterCommit opens an after-commit scope. Callbacks registered inside
// it run only when RunAfterCommit is called on the returned context.
func WithAfterCommit(ctx context.Context) context.Context {
	return context.WithValue(ctx, afterCommitKey{}, &afterCommit{})
}

// AfterCommit registers fn to run after the enclosing unit commits.
// Outside an after-commit scope fn runs immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	ac, ok := ctx.Value(afterCommitKey{}).(*afterCommit)
	if !ok {
		fn(ctx)
		return
	}
	ac.mu.Lock()
	ac.fns = append(ac.fns, fn)
	ac.mu.Unlock()
}

// RunAfterCommit drains and runs the callbacks registered in ctx's scope,
// in registration order.
func RunAfterCommit(ctx context.Context) {
	ac, ok := ctx.Value(afterCommitKey{}).(*afterCommit)
	if !ok {
		return
	}
	ac.mu.Lock()
	fns := ac.fns
	ac.fns = nil
	ac.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

// Discard drops pending callbacks after a rollback.
func Discard(ctx context.Context) {
	if ac, ok := ctx.Value(afterCommitKey{}).(*afterCommit); ok {
		ac.mu.Lock()
		ac.fns = nil
		ac.mu.Unlock()
	}
}
