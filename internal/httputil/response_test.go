package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicvoice/internal/model"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrContentTooLong, http.StatusBadRequest, ErrCodeValidation},
		{&model.ValidationError{Field: "reason", Message: "bad"}, http.StatusBadRequest, ErrCodeValidation},
		{model.ErrNotCommentOwner, http.StatusForbidden, ErrCodeForbidden},
		{fmt.Errorf("wrapped: %w", model.ErrCommentNotFound), http.StatusNotFound, ErrCodeNotFound},
		{model.ErrAlreadyFlagged, http.StatusConflict, ErrCodeConflict},
		{model.ErrAuthRequired, http.StatusUnauthorized, ErrCodeUnauthorized},
		{model.ErrUnknownUser, http.StatusUnauthorized, ErrCodeUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			WriteDomainError(rec, req, tt.err, "Failed")

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}
