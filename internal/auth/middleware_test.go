package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeno/auth-service/internal/httputil"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRequireSession(t *testing.T) {
	tokens, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)
	mw := NewMiddleware(tokens)

	newProbe := func() (http.Handler, *bool, *uuid.UUID) {
		called := false
		var gotID uuid.UUID
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			gotID, _ = AccountIDFromContext(r.Context())
			httputil.RespondSuccess(w, "ok")
		})
		return mw.RequireSession(next), &called, &gotID
	}

	t.Run("no cookie", func(t *testing.T) {
		handler, called, _ := newProbe()

		req := httptest.NewRequest(http.MethodGet, "/is-auth", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		// Rejection is a success-shaped envelope, not an HTTP error.
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
		assert.False(t, *called)
	})

	t.Run("garbage token", func(t *testing.T) {
		handler, called, _ := newProbe()

		req := httptest.NewRequest(http.MethodGet, "/is-auth", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
		assert.False(t, *called)
	})

	t.Run("expired token", func(t *testing.T) {
		handler, called, _ := newProbe()

		token, err := tokens.IssueToken(uuid.New(), -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/is-auth", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.False(t, decodeEnvelope(t, rec).Success)
		assert.False(t, *called)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		handler, called, _ := newProbe()

		other, err := NewPasetoService([]byte("abcdefghijklmnopqrstuvwxyz012345"))
		require.NoError(t, err)
		token, err := other.IssueToken(uuid.New(), time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/is-auth", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.False(t, decodeEnvelope(t, rec).Success)
		assert.False(t, *called)
	})

	t.Run("valid token attaches the account id", func(t *testing.T) {
		handler, called, gotID := newProbe()

		accountID := uuid.New()
		token, err := tokens.IssueToken(accountID, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/is-auth", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.True(t, decodeEnvelope(t, rec).Success)
		assert.True(t, *called)
		assert.Equal(t, accountID, *gotID)
	})
}
