package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-accounts-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	data map[string]*domain.SessionData
}

func (s *stubSessions) Get(_ context.Context, token string) (*domain.SessionData, error) {
	if d, ok := s.data[token]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
}

func protected(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	reached := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		sess, ok := SessionFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "uid-1", sess.UserID)
		w.WriteHeader(http.StatusOK)
	})
	return h, &reached
}

func TestSessionAuth_ValidCookie(t *testing.T) {
	sessions := &stubSessions{data: map[string]*domain.SessionData{
		"tok-1": {UserID: "uid-1"},
	}}
	inner, reached := protected(t)
	h := SessionAuth(sessions)(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
}

func TestSessionAuth_MissingCookie(t *testing.T) {
	inner, reached := protected(t)
	h := SessionAuth(&stubSessions{})(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/profile", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestSessionAuth_UnknownToken(t *testing.T) {
	inner, reached := protected(t)
	h := SessionAuth(&stubSessions{})(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "expired"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	assert.Empty(t, SessionToken(req))

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-1"})
	assert.Equal(t, "tok-1", SessionToken(req))
}
