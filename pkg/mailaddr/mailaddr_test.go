package mailaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"merenda/pkg/testutil"
)

func TestDisplayName(t *testing.T) {
	testutil.Given(t, "an address with a dotted local part", func(t *testing.T) {
		testutil.Then(t, "each part is capitalized", func(t *testing.T) {
			assert.Equal(t, "Ana Souza", DisplayName("ana.souza@escola.example"))
		})
	})
	testutil.Given(t, "an address without separators", func(t *testing.T) {
		testutil.Then(t, "the local part is used as is", func(t *testing.T) {
			assert.Equal(t, "Nutri", DisplayName("nutri@central.example"))
		})
	})
	testutil.Given(t, "an empty local part", func(t *testing.T) {
		testutil.Then(t, "a placeholder is returned", func(t *testing.T) {
			assert.Equal(t, "User", DisplayName("@example"))
		})
	})
}

func TestNormalizeAndValid(t *testing.T) {
	assert.Equal(t, "compras@terceirizada.example", Normalize("  Compras@Terceirizada.example "))
	assert.True(t, Valid("no-reply@merenda.local"))
	assert.False(t, Valid("Merenda <no-reply@merenda.local>"))
	assert.False(t, Valid("not-an-address"))
}
