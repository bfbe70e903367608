package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumeno/auth-service/internal/account"
)

// AccountStore is the credential store the auth core runs against.
// Implemented by account.Repository; tests substitute an in-memory fake.
type AccountStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*account.Account, error)
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	SetVerifyOtp(ctx context.Context, id uuid.UUID, code string, expireAt int64) error
	SetResetOtp(ctx context.Context, id uuid.UUID, code string, expireAt int64) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// TokenService issues and verifies self-contained session tokens. There is
// no revocation list; verification is purely cryptographic.
type TokenService interface {
	IssueToken(accountID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (uuid.UUID, error)
}

// Mailer is the outbound notification sink.
type Mailer interface {
	SendWelcome(ctx context.Context, to string) error
	SendVerifyOtp(ctx context.Context, to, code string) error
	SendResetOtp(ctx context.Context, to, code string) error
}

// OtpRateLimiter throttles the OTP-mailing endpoints. Limiter failures are
// never fatal to the request.
type OtpRateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
	CheckCooldown(ctx context.Context, key, purpose string) (bool, error)
	SetCooldown(ctx context.Context, key, purpose string) error
}
