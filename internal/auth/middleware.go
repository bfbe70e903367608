package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/lumeno/auth-service/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const AccountIDContextKey ContextKey = "account_id"

const unauthorizedMessage = "Not authorized. Login again"

// Middleware guards routes that require a known account identity.
type Middleware struct {
	tokens TokenService
}

func NewMiddleware(tokens TokenService) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireSession reads the session token from the cookie, verifies it, and
// attaches the account id to the request context. Rejections use the same
// success-shaped envelope as every other response (HTTP 200, success=false);
// the next handler is never invoked.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := SessionTokenFromCookie(r)
		if err != nil || token == "" {
			httputil.RespondFailure(w, unauthorizedMessage)
			return
		}

		accountID, err := m.tokens.VerifyToken(token)
		if err != nil {
			httputil.RespondFailure(w, unauthorizedMessage)
			return
		}

		ctx := context.WithValue(r.Context(), AccountIDContextKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccountIDFromContext extracts the authenticated account id set by
// RequireSession.
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	accountID, ok := ctx.Value(AccountIDContextKey).(uuid.UUID)
	return accountID, ok
}
