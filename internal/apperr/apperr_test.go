package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{Internal, http.StatusInternalServerError},
		{BadRequest, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.Status())
		})
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := fmt.Errorf("list users: %w", Wrap(Internal, "server_error", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Internal, KindOf(err))
	assert.Equal(t, Conflict, KindOf(New(Conflict, "email_exists")))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
}

func TestRespond(t *testing.T) {
	e := echo.New()

	t.Run("typed error keeps its reason", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		require.NoError(t, Respond(c, New(Forbidden, "not_admin")))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"not_admin"}`, rec.Body.String())
	})

	t.Run("plain error hides detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		require.NoError(t, Respond(c, errors.New("dial tcp 10.0.0.1:3306: refused")))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"server_error"}`, rec.Body.String())
	})
}
