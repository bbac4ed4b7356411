package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRejectsInconsistentDeclarations(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		wantErr string
	}{
		{
			name:    "undeclared initial",
			builder: Define("w", "w", "NOPE").State("A", "A", KindActive),
			wantErr: "initial state NOPE is not declared",
		},
		{
			name: "undeclared target",
			builder: Define("w", "w", "A").State("A", "A", KindActive).
				Transition("w.go", "B", "A"),
			wantErr: "targets undeclared state B",
		},
		{
			name: "foreign namespace",
			builder: Define("w", "w", "A").State("A", "A", KindActive).
				Transition("other.go", "A", "A"),
			wantErr: "outside namespace w",
		},
		{
			name: "ambiguous source",
			builder: Define("w", "w", "A").State("A", "A", KindActive).State("B", "B", KindActive).
				Transition("w.go", "B", "A").
				Transition("w.go", "A", "A"),
			wantErr: "declared twice from A",
		},
		{
			name: "silent event not declared",
			builder: Define("w", "w", "A").State("A", "A", KindActive).
				Silent("w.ghost"),
			wantErr: "silent event w.ghost is not declared",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefinitionQueries(t *testing.T) {
	def := docDefinition()

	t.Run("same event may loop back from several states", func(t *testing.T) {
		tr, ok := def.Resolve(approved, cancel)
		require.True(t, ok)
		assert.Equal(t, cancelled, tr.Target)
		_, ok = def.Resolve(draft, cancel)
		assert.False(t, ok)
	})

	t.Run("available events", func(t *testing.T) {
		assert.Equal(t, []Event{approve, remind, cancel, sweep}, def.Available(review))
	})

	t.Run("terminal states", func(t *testing.T) {
		assert.True(t, def.Terminal(cancelled))
		assert.False(t, def.Terminal(review))
	})

	t.Run("accessors return copies", func(t *testing.T) {
		states := def.States()
		states[0] = "MUTATED"
		assert.Equal(t, draft, def.States()[0])

		trs := def.Transitions()
		trs[0].Sources[0] = "MUTATED"
		tr, ok := def.Resolve(draft, submit)
		require.True(t, ok)
		assert.Equal(t, []State{draft}, tr.Sources)
	})

	t.Run("namespace", func(t *testing.T) {
		assert.Equal(t, "doc", submit.Namespace())
		assert.Equal(t, "doc", def.Namespace())
	})
}

func TestDecision(t *testing.T) {
	assert.True(t, Allow().Allowed())
	assert.NoError(t, Allow().Reason())

	denied := Deny(nil)
	assert.False(t, denied.Allowed())
	assert.Error(t, denied.Reason())
}
