package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeno/auth-service/internal/account"
	"github.com/lumeno/auth-service/internal/logging"
)

type fakeLimiter struct {
	exceeded   bool
	onCooldown bool
}

func (l *fakeLimiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	return l.exceeded, nil
}

func (l *fakeLimiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	return nil
}

func (l *fakeLimiter) CheckCooldown(ctx context.Context, key, purpose string) (bool, error) {
	return l.onCooldown, nil
}

func (l *fakeLimiter) SetCooldown(ctx context.Context, key, purpose string) error {
	return nil
}

type testAPI struct {
	router  *chi.Mux
	store   *fakeStore
	mailer  *fakeMailer
	limiter *fakeLimiter
}

// newTestAPI wires the handlers into a router with the production route
// layout, backed by in-memory fakes.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := newFakeStore()
	mailer := &fakeMailer{}
	limiter := &fakeLimiter{}
	logger := logging.NewLogger(true)

	tokens, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	service := NewService(store, tokens, mailer, logger, 7*24*time.Hour)
	handler := NewHandler(service, limiter, logger, false, 7*24*time.Hour)
	middleware := NewMiddleware(tokens)

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/logout", handler.Logout)
		r.Post("/send-reset-otp", handler.SendResetOtp)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Post("/send-verify-otp", handler.SendVerifyOtp)
			r.Post("/verify-account", handler.VerifyAccount)
			r.Get("/is-auth", handler.IsAuthenticated)
			r.Post("/reset-password", handler.ResetPassword)
		})
	})

	return &testAPI{router: r, store: store, mailer: mailer, limiter: limiter}
}

func (a *testAPI) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func (a *testAPI) register(t *testing.T) *http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", `{"name":"A","email":"a@x.com","password":"p1"}`)
	require.True(t, decodeEnvelope(t, rec).Success)
	return sessionCookie(t, rec)
}

func (a *testAPI) accountByEmail(t *testing.T, email string) *account.Account {
	t.Helper()
	acc, err := a.store.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return acc
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("success sets the session cookie", func(t *testing.T) {
		api := newTestAPI(t)

		rec := api.do(t, http.MethodPost, "/api/auth/register", `{"name":"A","email":"a@x.com","password":"p1"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.True(t, resp.Success)

		cookie := sessionCookie(t, rec)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
		assert.NotEmpty(t, cookie.Value)
	})

	t.Run("missing fields", func(t *testing.T) {
		api := newTestAPI(t)

		rec := api.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@x.com"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "Missing details", resp.Message)
	})

	t.Run("duplicate email", func(t *testing.T) {
		api := newTestAPI(t)
		api.register(t)

		rec := api.do(t, http.MethodPost, "/api/auth/register", `{"name":"B","email":"a@x.com","password":"p2"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "User already exists", resp.Message)
	})
}

func TestLoginLogoutEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.register(t)

	t.Run("wrong password", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"nope"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/login", `{"email":"b@x.com","password":"p1"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})

	t.Run("success", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"p1"}`)
		assert.True(t, decodeEnvelope(t, rec).Success)
		assert.NotEmpty(t, sessionCookie(t, rec).Value)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/logout", "")
		assert.True(t, decodeEnvelope(t, rec).Success)

		cookie := sessionCookie(t, rec)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	})
}

func TestIsAuthEndpoint(t *testing.T) {
	api := newTestAPI(t)
	cookie := api.register(t)

	t.Run("with session", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/auth/is-auth", "", cookie)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodeEnvelope(t, rec).Success)
	})

	t.Run("without session", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/auth/is-auth", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})

	t.Run("with garbage cookie", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/auth/is-auth", "",
			&http.Cookie{Name: SessionCookieName, Value: "garbage"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})
}

func TestVerificationFlow(t *testing.T) {
	api := newTestAPI(t)
	cookie := api.register(t)

	// Issue the code.
	rec := api.do(t, http.MethodPost, "/api/auth/send-verify-otp", "", cookie)
	require.True(t, decodeEnvelope(t, rec).Success)

	acc := api.accountByEmail(t, "a@x.com")
	require.Len(t, acc.VerifyOtp, 6)
	assert.Equal(t, acc.VerifyOtp, api.mailer.lastSent().code)

	// Wrong code first.
	wrong := "000000"
	if wrong == acc.VerifyOtp {
		wrong = "000001"
	}
	rec = api.do(t, http.MethodPost, "/api/auth/verify-account", `{"otp":"`+wrong+`"}`, cookie)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid OTP", resp.Message)

	// Then the real one.
	rec = api.do(t, http.MethodPost, "/api/auth/verify-account", `{"otp":"`+acc.VerifyOtp+`"}`, cookie)
	assert.True(t, decodeEnvelope(t, rec).Success)
	assert.True(t, api.accountByEmail(t, "a@x.com").IsVerified)

	// A second issuance is declined now.
	rec = api.do(t, http.MethodPost, "/api/auth/send-verify-otp", "", cookie)
	resp = decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Account is already verified", resp.Message)

	// Without a session the endpoint rejects before reaching the handler.
	rec = api.do(t, http.MethodPost, "/api/auth/send-verify-otp", "")
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestPasswordResetFlow(t *testing.T) {
	api := newTestAPI(t)
	cookie := api.register(t)

	t.Run("unknown email", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/send-reset-otp", `{"email":"nobody@x.com"}`)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "User not found", resp.Message)
	})

	t.Run("full reset", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/send-reset-otp", `{"email":"a@x.com"}`)
		require.True(t, decodeEnvelope(t, rec).Success)

		code := api.accountByEmail(t, "a@x.com").ResetOtp
		require.Len(t, code, 6)

		rec = api.do(t, http.MethodPost, "/api/auth/reset-password",
			`{"email":"a@x.com","otp":"`+code+`","newPassword":"p2"}`, cookie)
		assert.True(t, decodeEnvelope(t, rec).Success)

		// Old password is out, new one works.
		rec = api.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"p1"}`)
		assert.False(t, decodeEnvelope(t, rec).Success)
		rec = api.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"p2"}`)
		assert.True(t, decodeEnvelope(t, rec).Success)

		// The consumed code cannot be replayed.
		rec = api.do(t, http.MethodPost, "/api/auth/reset-password",
			`{"email":"a@x.com","otp":"`+code+`","newPassword":"p3"}`, cookie)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "Invalid OTP", resp.Message)
	})

	t.Run("route wiring requires a session", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/reset-password",
			`{"email":"a@x.com","otp":"123456","newPassword":"p3"}`)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})
}

func TestOtpEndpointsRateLimited(t *testing.T) {
	api := newTestAPI(t)
	cookie := api.register(t)

	api.limiter.exceeded = true

	rec := api.do(t, http.MethodPost, "/api/auth/send-verify-otp", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Too many requests, please try again later", resp.Message)

	rec = api.do(t, http.MethodPost, "/api/auth/send-reset-otp", `{"email":"a@x.com"}`)
	assert.False(t, decodeEnvelope(t, rec).Success)

	// Cooldown blocks the same way.
	api.limiter.exceeded = false
	api.limiter.onCooldown = true

	rec = api.do(t, http.MethodPost, "/api/auth/send-verify-otp", "", cookie)
	resp = decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Please wait before requesting another OTP", resp.Message)

	// Login stays unthrottled regardless of limiter state.
	api.limiter.exceeded = true
	rec = api.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"p1"}`)
	assert.True(t, decodeEnvelope(t, rec).Success)
}
