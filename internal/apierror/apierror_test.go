package apierror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewAPIError(ErrInvalidInput, "bad stage", nil), http.StatusBadRequest},
		{"not found", NewAPIError(ErrNotFound, "no such notice", nil), http.StatusNotFound},
		{"conflict", NewAPIError(ErrConflict, "duplicate receipt", nil), http.StatusConflict},
		{"business", NewBusinessError("notice permanently suspended", nil), http.StatusOK},
		{"technical", NewAPIError(ErrInternalServer, "db down", nil), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToHTTPStatus(tt.err))
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsBusiness(NewBusinessError("refused", nil)))
	assert.False(t, IsBusiness(NewAPIError(ErrInternalServer, "down", nil)))
	assert.False(t, IsBusiness(errors.New("plain")))

	assert.True(t, IsValidation(NewAPIError(ErrInvalidInput, "bad", nil)))
	assert.True(t, IsValidation(NewAPIError(ErrNotFound, "missing", nil)))
	assert.False(t, IsValidation(NewBusinessError("refused", nil)))
}
