package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"merenda/internal/calendar"
	"merenda/internal/directory"
	"merenda/internal/request/models"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
	"merenda/pkg/platform/sentinel"
	txcontext "merenda/pkg/platform/tx"
)

// PostgresStore persists requests in the requests table. Execute locks the
// row with SELECT ... FOR UPDATE for the duration of the callback.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const uniqueViolation = "23505"

const selectColumns = `
	SELECT id, kind, workflow, state, origin_id, counterpart_id, parent_id,
		event_date, end_date, motive, priority, schools, snapshot,
		created_by, created_at, updated_at
	FROM requests`

func (s *PostgresStore) Create(ctx context.Context, r *models.Request) error {
	snapshot, err := marshalSnapshot(r.Snap)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO requests (
			id, kind, workflow, state, origin_id, counterpart_id, parent_id,
			event_date, end_date, motive, priority, schools, snapshot,
			created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		uuid.UUID(r.ID),
		r.Kind,
		r.Workflow,
		string(r.State),
		uuid.UUID(r.OriginID),
		nullableUUID(uuid.UUID(r.CounterpartID)),
		nullableUUID(uuid.UUID(r.Parent)),
		nullableDate(r.Date),
		nullableDate(r.Until),
		r.Reason,
		string(r.Level),
		pq.Array(schoolKeys(r.Schools)),
		snapshot,
		nullableUUID(uuid.UUID(r.CreatedBy)),
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("request %s: %w", r.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	row := s.execer(ctx).QueryRowContext(ctx, selectColumns+` WHERE id = $1`, uuid.UUID(id))
	return scanRequest(row)
}

func (s *PostgresStore) State(ctx context.Context, id domain.RequestID) (workflow.State, error) {
	var state string
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT state FROM requests WHERE id = $1`, uuid.UUID(id)).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query request state: %w", err)
	}
	return workflow.State(state), nil
}

func (s *PostgresStore) ListByOrigin(ctx context.Context, origin domain.InstitutionID) ([]*models.Request, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectColumns+` WHERE origin_id = $1 ORDER BY created_at ASC`, uuid.UUID(origin))
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return out, nil
}

// Execute loads the request FOR UPDATE, runs fn and writes the result back
// in the caller's transaction. Without one it opens its own.
func (s *PostgresStore) Execute(ctx context.Context, id domain.RequestID, fn func(r *models.Request) error) (*models.Request, error) {
	var out *models.Request
	err := s.inTx(ctx, func(ctx context.Context, exec dbExecutor) error {
		row := exec.QueryRowContext(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
		r, err := scanRequest(row)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		if err := s.update(ctx, exec, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) DeleteIf(ctx context.Context, id domain.RequestID, check func(r *models.Request) error) error {
	return s.inTx(ctx, func(ctx context.Context, exec dbExecutor) error {
		row := exec.QueryRowContext(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
		r, err := scanRequest(row)
		if err != nil {
			return err
		}
		if err := check(r); err != nil {
			return err
		}
		if _, err := exec.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, uuid.UUID(id)); err != nil {
			return fmt.Errorf("delete request: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) update(ctx context.Context, exec dbExecutor, r *models.Request) error {
	snapshot, err := marshalSnapshot(r.Snap)
	if err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx, `
		UPDATE requests
		SET state = $2, priority = $3, snapshot = $4, updated_at = $5
		WHERE id = $1
	`,
		uuid.UUID(r.ID),
		string(r.State),
		string(r.Level),
		snapshot,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context, exec dbExecutor) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(ctx, tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(txcontext.WithTx(ctx, tx), tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		r                   models.Request
		id, origin          uuid.UUID
		counterpart, parent uuid.NullUUID
		createdBy           uuid.NullUUID
		state, priority     string
		eventDate, endDate  sql.NullTime
		schools             []string
		snapshot            []byte
	)
	err := row.Scan(
		&id, &r.Kind, &r.Workflow, &state, &origin, &counterpart, &parent,
		&eventDate, &endDate, &r.Reason, &priority, pq.Array(&schools), &snapshot,
		&createdBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan request: %w", err)
	}
	r.ID = domain.RequestID(id)
	r.OriginID = domain.InstitutionID(origin)
	r.State = workflow.State(state)
	r.Level = calendar.Priority(priority)
	if counterpart.Valid {
		r.CounterpartID = domain.InstitutionID(counterpart.UUID)
	}
	if parent.Valid {
		r.Parent = domain.RequestID(parent.UUID)
	}
	if createdBy.Valid {
		r.CreatedBy = domain.UserID(createdBy.UUID)
	}
	if eventDate.Valid {
		r.Date = eventDate.Time
	}
	if endDate.Valid {
		r.Until = endDate.Time
	}
	for _, key := range schools {
		u, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("parse covered school: %w", err)
		}
		r.Schools = append(r.Schools, domain.InstitutionID(u))
	}
	if len(snapshot) > 0 {
		var snap directory.Snapshot
		if err := json.Unmarshal(snapshot, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		r.Snap = &snap
	}
	return &r, nil
}

func marshalSnapshot(snap *directory.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return b, nil
}

func schoolKeys(schools []domain.InstitutionID) []string {
	keys := make([]string, len(schools))
	for i, s := range schools {
		keys[i] = s.String()
	}
	return keys
}

func nullableUUID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}

// nullableDate keeps t's own year, month and day for a DATE column.
func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
