package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"validation", Validation("All fields are required"), KindValidation, http.StatusBadRequest},
		{"conflict", Conflict("exists"), KindConflict, http.StatusConflict},
		{"unauthorized", Unauthorized("bad token"), KindUnauthorized, http.StatusUnauthorized},
		{"not found", NotFound("no user"), KindNotFound, http.StatusNotFound},
		{"internal", Internal(errors.New("boom"), "failed"), KindInternal, http.StatusInternalServerError},
		{"plain error", errors.New("raw"), KindInternal, http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("op: %w", NotFound("gone")), KindNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, KindOf(tt.err).StatusCode())
		})
	}
}

func TestMessageHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause, "Something went wrong")

	assert.Equal(t, "Something went wrong", Message(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", Message(cause))
}
