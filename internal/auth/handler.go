package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lumeno/auth-service/internal/httputil"
	"github.com/lumeno/auth-service/internal/logging"
)

// Handler contains the HTTP handlers for the auth endpoints. Every response
// is the `{success, message}` envelope with HTTP 200; business failure is
// signaled only through the body.
type Handler struct {
	service         *Service
	limiter         OtpRateLimiter
	logger          *logging.Logger
	isProduction    bool
	sessionDuration time.Duration
}

func NewHandler(service *Service, limiter OtpRateLimiter, logger *logging.Logger, isProduction bool, sessionDuration time.Duration) *Handler {
	return &Handler{
		service:         service,
		limiter:         limiter,
		logger:          logger,
		isProduction:    isProduction,
		sessionDuration: sessionDuration,
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyAccountRequest struct {
	Otp string `json:"otp"`
}

type SendResetOtpRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Otp         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Register handles POST /register. Success leaves the caller logged in with
// the session cookie set.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid register request body", "error", err.Error())
		httputil.RespondFailure(w, "Invalid request body")
		return
	}

	_, token, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httputil.RespondFailure(w, "Missing details")
		case errors.Is(err, ErrDuplicateAccount):
			logger.Warn("registration failed: email already registered", "email", req.Email)
			httputil.RespondFailure(w, "User already exists")
		default:
			logger.Error("registration failed", "error", err.Error())
			httputil.RespondFailure(w, "Something went wrong")
		}
		return
	}

	SetSessionCookie(w, token, h.isProduction, h.sessionDuration)
	logger.Info("user registered", "email", req.Email)
	httputil.RespondSuccess(w, "User registered successfully")
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondFailure(w, "Invalid request body")
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httputil.RespondFailure(w, "Email and password are required")
		case errors.Is(err, ErrInvalidCredentials):
			httputil.RespondFailure(w, "Invalid email or password")
		default:
			logger.Error("login failed", "error", err.Error())
			httputil.RespondFailure(w, "Something went wrong")
		}
		return
	}

	SetSessionCookie(w, token, h.isProduction, h.sessionDuration)
	logger.Info("user logged in", "email", req.Email)
	httputil.RespondSuccess(w, "Login successful")
}

// Logout handles POST /logout. Clears the client's cookie only; the token
// stays valid until expiry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w, h.isProduction)
	httputil.RespondSuccess(w, "Logout successful")
}

// SendVerifyOtp handles POST /send-verify-otp. Identity comes from the
// session; the endpoint sends mail, so it carries rate limiting.
func (h *Handler) SendVerifyOtp(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	accountID, ok := AccountIDFromContext(r.Context())
	if !ok {
		httputil.RespondFailure(w, unauthorizedMessage)
		return
	}

	if h.throttled(w, r, accountID.String(), "send-verify-otp") {
		return
	}

	if err := h.service.SendVerifyOtp(r.Context(), accountID); err != nil {
		switch {
		case errors.Is(err, ErrAccountNotFound):
			httputil.RespondFailure(w, "User not found")
		case errors.Is(err, ErrAlreadyVerified):
			httputil.RespondFailure(w, "Account is already verified")
		default:
			logger.Error("failed to send verification otp", "account_id", accountID, "error", err.Error())
			httputil.RespondFailure(w, "Something went wrong")
		}
		return
	}

	logger.Info("verification otp sent", "account_id", accountID)
	httputil.RespondSuccess(w, "OTP sent to your email")
}

// VerifyAccount handles POST /verify-account.
func (h *Handler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	accountID, ok := AccountIDFromContext(r.Context())
	if !ok {
		httputil.RespondFailure(w, unauthorizedMessage)
		return
	}

	var req VerifyAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify-account request body", "error", err.Error())
		httputil.RespondFailure(w, "Invalid request body")
		return
	}

	if err := h.service.VerifyAccount(r.Context(), accountID, req.Otp); err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httputil.RespondFailure(w, "Missing details")
		case errors.Is(err, ErrAccountNotFound):
			httputil.RespondFailure(w, "User not found")
		case errors.Is(err, ErrInvalidOtp):
			httputil.RespondFailure(w, "Invalid OTP")
		case errors.Is(err, ErrOtpExpired):
			httputil.RespondFailure(w, "OTP expired")
		default:
			logger.Error("account verification failed", "account_id", accountID, "error", err.Error())
			httputil.RespondFailure(w, "Something went wrong")
		}
		return
	}

	logger.Info("account verified", "account_id", accountID)
	httputil.RespondSuccess(w, "Email verified successfully")
}

// IsAuthenticated handles GET /is-auth. The session middleware has already
// done all the work; this exists so the client can probe session validity.
func (h *Handler) IsAuthenticated(w http.ResponseWriter, r *http.Request) {
	httputil.RespondSuccess(w, "User is authenticated")
}

// SendResetOtp handles POST /send-reset-otp. Unauthenticated by design; this
// is how a user who forgot their password starts a reset.
func (h *Handler) SendResetOtp(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req SendResetOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid send-reset-otp request body", "error", err.Error())
		httputil.RespondFailure(w, "Invalid request body")
		return
	}

	if req.Email != "" && h.throttled(w, r, req.Email, "send-reset-otp") {
		return
	}

	if err := h.service.SendResetOtp(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httputil.RespondFailure(w, "Email is required")
		case errors.Is(err, ErrAccountNotFound):
			httputil.RespondFailure(w, "User not found")
		default:
			logger.Error("failed to send reset otp", "email", req.Email, "error", err.Error())
			httputil.RespondFailure(w, "Something went wrong")
		}
		return
	}

	logger.Info("reset otp sent", "email", req.Email)
	httputil.RespondSuccess(w, "OTP sent to your email")
}

// ResetPassword handles POST /reset-password. The route is wired behind the
// session middleware, but the account is identified by the email in the
// body; the session identity is not consulted.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset-password request body", "error", err.Error())
		httputil.RespondFailure(w, "Invalid request body")
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email, req.Otp, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httputil.RespondFailure(w, "Missing details")
		case errors.Is(err, ErrAccountNotFound):
			httputil.RespondFailure(w, "User not found")
		case errors.Is(err, ErrInvalidOtp):
			httputil.RespondFailure(w, "Invalid OTP")
		case errors.Is(err, ErrOtpExpired):
			httputil.RespondFailure(w, "OTP expired")
		default:
			logger.Error("password reset failed", "email", req.Email, "error", err.Error())
			httputil.RespondFailure(w, "Something went wrong")
		}
		return
	}

	logger.Info("password reset", "email", req.Email)
	httputil.RespondSuccess(w, "Password reset successfully")
}

// throttled applies the IP limit and per-key cooldown for an OTP-mailing
// endpoint. Limiter errors are logged and ignored so a Redis hiccup never
// blocks a legitimate request. Reports true when the response was written.
func (h *Handler) throttled(w http.ResponseWriter, r *http.Request, cooldownKey, purpose string) bool {
	logger := logging.FromContext(r.Context())
	ctx := r.Context()
	ip := clientIP(r)

	exceeded, err := h.limiter.CheckIPRateLimit(ctx, ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondFailure(w, "Too many requests, please try again later")
		return true
	}

	onCooldown, err := h.limiter.CheckCooldown(ctx, cooldownKey, purpose)
	if err != nil {
		logger.Error("failed to check cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("otp cooldown active", "purpose", purpose)
		httputil.RespondFailure(w, "Please wait before requesting another OTP")
		return true
	}

	if err := h.limiter.RecordIPRequest(ctx, ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	if err := h.limiter.SetCooldown(ctx, cooldownKey, purpose); err != nil {
		logger.Error("failed to set cooldown", "error", err.Error())
	}

	return false
}

// clientIP extracts the client address. The router's RealIP middleware has
// already folded proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
