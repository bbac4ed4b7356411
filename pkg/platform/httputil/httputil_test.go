package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "merenda/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "kind is required"), http.StatusBadRequest, "validation_error", "kind is required"},
		{"missing token", dErrors.New(dErrors.CodeUnauthenticated, "token has expired"), http.StatusUnauthorized, "unauthenticated", "token has expired"},
		{"wrong role", dErrors.New(dErrors.CodeUnauthorized, "role cannot fire event"), http.StatusForbidden, "unauthorized", "role cannot fire event"},
		{"invalid transition", dErrors.New(dErrors.CodeInvalidTransition, "event not allowed"), http.StatusConflict, "invalid_transition", "event not allowed"},
		{"too late to cancel", dErrors.New(dErrors.CodeDeadlineViolation, "cancellation window closed"), http.StatusUnprocessableEntity, "deadline_violation", "cancellation window closed"},
		{"internal hides detail", dErrors.New(dErrors.CodeInternal, "db failed"), http.StatusInternalServerError, "internal_error", ""},
		{"uncoded is internal", errors.New("boom"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var body errorBody
			require.NoError(t, decodeRecorder(w, &body))
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.description, body.Description)
		})
	}
}

func TestStatusForUnknownCode(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(dErrors.CodeMissingWorkflowHook))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(dErrors.CodeTimeout))
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Kind string `json:"kind"`
	}

	t.Run("decodes known fields", func(t *testing.T) {
		var p payload
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":"meal_change"}`))
		require.NoError(t, DecodeJSON(r, &p))
		assert.Equal(t, "meal_change", p.Kind)
	})

	t.Run("empty body leaves dst untouched", func(t *testing.T) {
		p := payload{Kind: "kept"}
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		require.NoError(t, DecodeJSON(r, &p))
		assert.Equal(t, "kept", p.Kind)
	})

	t.Run("unknown field is a bad request", func(t *testing.T) {
		var p payload
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":"x","extra":1}`))
		err := DecodeJSON(r, &p)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func decodeRecorder(w *httptest.ResponseRecorder, dst any) error {
	r := httptest.NewRequest(http.MethodPost, "/", w.Body)
	return DecodeJSON(r, dst)
}
