package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"merenda/internal/audit"
	"merenda/pkg/domain"
	txcontext "merenda/pkg/platform/tx"
)

// OutboxAggregate tags outbox rows written for audit entries.
const OutboxAggregate = "workflow_request"

// PostgresStore writes each entry to audit_log and, in the same
// transaction, an outbox row that the relay publishes to Kafka.
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

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID            string             `json:"id"`
	EntityID      string             `json:"entity_id"`
	EntityKind    string             `json:"entity_kind"`
	Workflow      string             `json:"workflow"`
	EventCode     string             `json:"event_code"`
	FromState     string             `json:"from_state"`
	ToState       string             `json:"to_state"`
	Actor         audit.Actor        `json:"actor"`
	Justification string             `json:"justification,omitempty"`
	Attachments   []audit.Attachment `json:"attachments,omitempty"`
	Response      *bool              `json:"response,omitempty"`
	CreatedAt     string             `json:"created_at"`
}

func (s *PostgresStore) Append(ctx context.Context, entry *audit.Entry) error {
	attachments, err := json.Marshal(entry.Attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments: %w", err)
	}

	var actorID *uuid.UUID
	if !entry.Actor.UserID.IsNil() {
		uid := uuid.UUID(entry.Actor.UserID)
		actorID = &uid
	}

	exec := s.execer(ctx)
	_, err = exec.ExecContext(ctx, `
		INSERT INTO audit_log (
			id, entity_id, entity_kind, workflow, event_code, from_state, to_state,
			actor_id, actor_name, actor_role, justification, attachments, response, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		entry.ID,
		uuid.UUID(entry.EntityID),
		entry.EntityKind,
		entry.Workflow,
		entry.EventCode,
		entry.FromState,
		entry.ToState,
		actorID,
		entry.Actor.Name,
		string(entry.Actor.Role),
		entry.Justification,
		attachments,
		entry.Response,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload, err := json.Marshal(outboxPayload{
		ID:            entry.ID.String(),
		EntityID:      entry.EntityID.String(),
		EntityKind:    entry.EntityKind,
		Workflow:      entry.Workflow,
		EventCode:     entry.EventCode,
		FromState:     entry.FromState,
		ToState:       entry.ToState,
		Actor:         entry.Actor,
		Justification: entry.Justification,
		Attachments:   entry.Attachments,
		Response:      entry.Response,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.New(),
		OutboxAggregate,
		entry.EntityID.String(),
		entry.EventCode,
		payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityID domain.RequestID) ([]audit.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, entity_id, entity_kind, workflow, event_code, from_state, to_state,
			actor_id, actor_name, actor_role, justification, attachments, response, created_at
		FROM audit_log
		WHERE entity_id = $1
		ORDER BY created_at ASC, seq ASC
	`, uuid.UUID(entityID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			e           audit.Entry
			entity      uuid.UUID
			actorID     uuid.NullUUID
			role        string
			attachments []byte
			response    sql.NullBool
		)
		if err := rows.Scan(
			&e.ID, &entity, &e.EntityKind, &e.Workflow, &e.EventCode, &e.FromState, &e.ToState,
			&actorID, &e.Actor.Name, &role, &e.Justification, &attachments, &response, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.EntityID = domain.RequestID(entity)
		if actorID.Valid {
			e.Actor.UserID = domain.UserID(actorID.UUID)
		}
		e.Actor.Role = domain.Role(role)
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &e.Attachments); err != nil {
				return nil, fmt.Errorf("unmarshal attachments: %w", err)
			}
		}
		if response.Valid {
			v := response.Bool
			e.Response = &v
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
