package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterCommit(t *testing.T) {
	t.Run("runs immediately outside a scope", func(t *testing.T) {
		ran := false
		AfterCommit(context.Background(), func(context.Context) { ran = true })
		assert.True(t, ran)
	})

	t.Run("local runner defers until fn succeeds", func(t *testing.T) {
		var order []string
		err := LocalRunner{}.RunInTx(context.Background(), func(ctx context.Context) error {
			AfterCommit(ctx, func(context.Context) { order = append(order, "first") })
			AfterCommit(ctx, func(context.Context) { order = append(order, "second") })
			order = append(order, "body")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"body", "first", "second"}, order)
	})

	t.Run("local runner drops callbacks on failure", func(t *testing.T) {
		ran := false
		boom := errors.New("boom")
		err := LocalRunner{}.RunInTx(context.Background(), func(ctx context.Context) error {
			AfterCommit(ctx, func(context.Context) { ran = true })
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.False(t, ran)
	})
}
