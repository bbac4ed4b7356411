package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merenda/internal/audit"
	"merenda/internal/audit/store"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
	"merenda/pkg/requestcontext"
)

func TestTrail(t *testing.T) {
	now := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	t.Run("append stamps id and time, list keeps order", func(t *testing.T) {
		trail := audit.NewTrail(store.NewInMemory())
		entity := domain.NewRequestID()
		attachments := []audit.Attachment{{Name: "menu.pdf", URL: "https://files.example.org/menu.pdf"}}

		first, err := trail.Append(ctx, audit.Entry{
			EntityID:    entity,
			EventCode:   "school.submit",
			FromState:   "DRAFT",
			ToState:     "DISTRICT_TO_VALIDATE",
			Attachments: attachments,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, now, first.CreatedAt)

		attachments[0].Name = "changed.pdf"

		_, err = trail.Append(ctx, audit.Entry{EntityID: entity, EventCode: "school.district_validates"})
		require.NoError(t, err)

		entries, err := trail.List(ctx, entity)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "school.submit", entries[0].EventCode)
		assert.Equal(t, "menu.pdf", entries[0].Attachments[0].Name)
		assert.Equal(t, "school.district_validates", entries[1].EventCode)
	})

	t.Run("entity and event are required", func(t *testing.T) {
		trail := audit.NewTrail(store.NewInMemory())
		_, err := trail.Append(ctx, audit.Entry{EventCode: "school.submit"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		_, err = trail.Append(ctx, audit.Entry{EntityID: domain.NewRequestID()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("entries of other entities stay separate", func(t *testing.T) {
		trail := audit.NewTrail(store.NewInMemory())
		_, err := trail.Append(ctx, audit.Entry{EntityID: domain.NewRequestID(), EventCode: "school.submit"})
		require.NoError(t, err)
		entries, err := trail.List(ctx, domain.NewRequestID())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
