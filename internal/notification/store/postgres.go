package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"merenda/internal/notification"
	"merenda/pkg/domain"
	txcontext "merenda/pkg/platform/tx"
)

// PostgresStore relies on the partial unique index
// notifications_unresolved_title_uq (title, recipient_id) WHERE NOT resolved.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, n *notification.Notification) (bool, error) {
	var entity any
	if !n.EntityID.IsNil() {
		entity = uuid.UUID(n.EntityID)
	}
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO notifications (
			id, category, topic, title, description, recipient_id, link, entity_id, read, resolved, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, FALSE, $9)
		ON CONFLICT (entity_id, title, recipient_id) WHERE NOT resolved DO NOTHING
	`,
		uuid.UUID(n.ID),
		string(n.Category),
		string(n.Topic),
		n.Title,
		n.Description,
		uuid.UUID(n.RecipientID),
		n.Link,
		entity,
		n.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

func (s *PostgresStore) ResolvePending(ctx context.Context, title string, entity domain.RequestID) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE notifications
		SET resolved = TRUE, read = TRUE
		WHERE title = $1 AND entity_id = $2 AND category = $3 AND NOT resolved
	`, title, uuid.UUID(entity), string(notification.CategoryPendency))
	if err != nil {
		return 0, fmt.Errorf("resolve pendencies: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, user domain.UserID, unresolvedOnly bool) ([]notification.Notification, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, category, topic, title, description, recipient_id, link, entity_id, read, resolved, created_at
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = FALSE OR NOT resolved)
		ORDER BY created_at DESC
	`, uuid.UUID(user), unresolvedOnly)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		var (
			n               notification.Notification
			id, recipient   uuid.UUID
			entity          uuid.NullUUID
			category, topic string
		)
		if err := rows.Scan(&id, &category, &topic, &n.Title, &n.Description, &recipient,
			&n.Link, &entity, &n.Read, &n.Resolved, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = domain.NotificationID(id)
		n.RecipientID = domain.UserID(recipient)
		n.Category = notification.Category(category)
		n.Topic = notification.Topic(topic)
		if entity.Valid {
			n.EntityID = domain.RequestID(entity.UUID)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}
