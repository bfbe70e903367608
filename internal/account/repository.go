package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/lumeno/auth-service/internal/database"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles account persistence.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new, unverified account with no outstanding OTPs.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*Account, error) {
	row := &database.Account{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		IsVerified:   false,
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return mapRowToModel(row), nil
}

// GetByEmail retrieves an account by its login email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	row := new(database.Account)
	err := r.db.NewSelect().
		Model(row).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return mapRowToModel(row), nil
}

// GetByID retrieves an account by its primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := new(database.Account)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return mapRowToModel(row), nil
}

// SetVerifyOtp stores a pending verification code, overwriting any previous
// one. expireAt is epoch millis.
func (r *Repository) SetVerifyOtp(ctx context.Context, id uuid.UUID, code string, expireAt int64) error {
	return r.updateAccount(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("verify_otp = ?", code).
			Set("verify_otp_expire_at = ?", expireAt)
	})
}

// SetResetOtp stores a pending password-reset code, overwriting any previous
// one. expireAt is epoch millis.
func (r *Repository) SetResetOtp(ctx context.Context, id uuid.UUID, code string, expireAt int64) error {
	return r.updateAccount(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("reset_otp = ?", code).
			Set("reset_otp_expire_at = ?", expireAt)
	})
}

// MarkVerified flips the account to verified and consumes the pending
// verification code in one write.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.updateAccount(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("is_account_verified = ?", true).
			Set("verify_otp = ?", "").
			Set("verify_otp_expire_at = ?", 0)
	})
}

// ResetPassword overwrites the password hash and consumes the pending reset
// code in one write.
func (r *Repository) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updateAccount(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("password_hash = ?", passwordHash).
			Set("reset_otp = ?", "").
			Set("reset_otp_expire_at = ?", 0)
	})
}

func (r *Repository) updateAccount(ctx context.Context, id uuid.UUID, apply func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	q := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", id)

	result, err := apply(q).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapRowToModel converts the bun row to the domain model.
func mapRowToModel(row *database.Account) *Account {
	return &Account{
		ID:                row.ID,
		Name:              row.Name,
		Email:             row.Email,
		PasswordHash:      row.PasswordHash,
		IsVerified:        row.IsVerified,
		VerifyOtp:         row.VerifyOtp,
		VerifyOtpExpireAt: row.VerifyOtpExpireAt,
		ResetOtp:          row.ResetOtp,
		ResetOtpExpireAt:  row.ResetOtpExpireAt,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
