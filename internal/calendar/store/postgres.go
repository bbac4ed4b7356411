package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"merenda/internal/calendar"
	"merenda/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, w calendar.SuspensionWindow) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suspension_windows (id, institution_id, starts_on, ends_on, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, w.ID, uuid.UUID(w.InstitutionID), day(w.Start), day(w.End), w.Reason)
	if err != nil {
		return fmt.Errorf("insert suspension window: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOverlapping(ctx context.Context, institution domain.InstitutionID, from, to time.Time) ([]calendar.SuspensionWindow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, institution_id, starts_on, ends_on, reason
		FROM suspension_windows
		WHERE institution_id = $1 AND ends_on >= $2 AND starts_on <= $3
		ORDER BY starts_on
	`, uuid.UUID(institution), day(from), day(to))
	if err != nil {
		return nil, fmt.Errorf("query suspension windows: %w", err)
	}
	defer rows.Close()

	var out []calendar.SuspensionWindow
	for rows.Next() {
		var (
			w   calendar.SuspensionWindow
			iid uuid.UUID
		)
		if err := rows.Scan(&w.ID, &iid, &w.Start, &w.End, &w.Reason); err != nil {
			return nil, fmt.Errorf("scan suspension window: %w", err)
		}
		w.InstitutionID = domain.InstitutionID(iid)
		out = append(out, w)
	}
	return out, rows.Err()
}
