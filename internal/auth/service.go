package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumeno/auth-service/internal/account"
	"github.com/lumeno/auth-service/internal/logging"
)

const (
	verifyOtpTTL = 24 * time.Hour
	resetOtpTTL  = 15 * time.Minute

	bcryptCost = 10
)

// Service implements the authentication and credential-lifecycle state
// machine: registration, login, OTP issuance and consumption for
// email-ownership proof, and OTP-based password reset. All store writes are
// durable before success is returned; notification sends happen after the
// mutation commits.
type Service struct {
	store           AccountStore
	tokens          TokenService
	mailer          Mailer
	logger          *logging.Logger
	sessionDuration time.Duration
}

func NewService(store AccountStore, tokens TokenService, mailer Mailer, logger *logging.Logger, sessionDuration time.Duration) *Service {
	return &Service{
		store:           store,
		tokens:          tokens,
		mailer:          mailer,
		logger:          logger,
		sessionDuration: sessionDuration,
	}
}

// Register creates an unverified account and logs the user in immediately,
// returning the account and a fresh session token. The welcome mail is best
// effort: a send failure is logged, never surfaced. Store errors propagate.
func (s *Service) Register(ctx context.Context, name, email, password string) (*account.Account, string, error) {
	if name == "" || email == "" || password == "" {
		return nil, "", ErrMissingFields
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	acc, err := s.store.Create(ctx, name, email, string(passwordHash))
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			return nil, "", ErrDuplicateAccount
		}
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.tokens.IssueToken(acc.ID, s.sessionDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	if err := s.mailer.SendWelcome(ctx, acc.Email); err != nil {
		s.logger.Warn("failed to send welcome email", "email", acc.Email, "error", err)
	}

	return acc, token, nil
}

// Login checks the credentials and returns a session token. Unknown email
// and wrong password are deliberately the same error kind.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrMissingFields
	}

	acc, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.logger.Warn("login failed: unknown email", "email", email)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login failed: password mismatch", "email", email)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(acc.ID, s.sessionDuration)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}

	return token, nil
}

// SendVerifyOtp issues a 6-digit email-verification code valid for 24 hours,
// overwriting any previously pending one, and mails it to the account's
// address. Declined (not failed) when the account is already verified.
func (s *Service) SendVerifyOtp(ctx context.Context, accountID uuid.UUID) error {
	acc, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if acc.IsVerified {
		return ErrAlreadyVerified
	}

	code, err := generateOtp()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	expireAt := time.Now().Add(verifyOtpTTL).UnixMilli()
	if err := s.store.SetVerifyOtp(ctx, acc.ID, code, expireAt); err != nil {
		return fmt.Errorf("failed to store verification otp: %w", err)
	}

	if err := s.mailer.SendVerifyOtp(ctx, acc.Email, code); err != nil {
		return fmt.Errorf("failed to send verification otp: %w", err)
	}

	return nil
}

// VerifyAccount consumes a pending verification code. Equality is checked
// before expiry, so an expired code with the wrong value reports ErrInvalidOtp
// rather than ErrOtpExpired. Success flips the account to verified and clears
// the code; the transition happens at most once because the cleared code can
// never match again.
func (s *Service) VerifyAccount(ctx context.Context, accountID uuid.UUID, otp string) error {
	if accountID == uuid.Nil || otp == "" {
		return ErrMissingFields
	}

	acc, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if acc.VerifyOtp == "" || acc.VerifyOtp != strings.TrimSpace(otp) {
		return ErrInvalidOtp
	}

	if acc.VerifyOtpExpireAt < time.Now().UnixMilli() {
		return ErrOtpExpired
	}

	if err := s.store.MarkVerified(ctx, acc.ID); err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}

	return nil
}

// SendResetOtp issues a 6-digit password-reset code valid for 15 minutes and
// mails it. No authentication is required; this is how an unauthenticated
// user starts a reset.
func (s *Service) SendResetOtp(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingFields
	}

	acc, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	code, err := generateOtp()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	expireAt := time.Now().Add(resetOtpTTL).UnixMilli()
	if err := s.store.SetResetOtp(ctx, acc.ID, code, expireAt); err != nil {
		return fmt.Errorf("failed to store reset otp: %w", err)
	}

	if err := s.mailer.SendResetOtp(ctx, acc.Email, code); err != nil {
		return fmt.Errorf("failed to send reset otp: %w", err)
	}

	return nil
}

// ResetPassword consumes a pending reset code and replaces the password
// hash. Same ordering as VerifyAccount: equality first, then expiry. The
// stored hash update and the code clearing land in one write.
func (s *Service) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if email == "" || otp == "" || newPassword == "" {
		return ErrMissingFields
	}

	acc, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if acc.ResetOtp == "" || acc.ResetOtp != otp {
		return ErrInvalidOtp
	}

	if acc.ResetOtpExpireAt < time.Now().UnixMilli() {
		return ErrOtpExpired
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.ResetPassword(ctx, acc.ID, string(passwordHash)); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}
