package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is the sole persisted entity: one record per registered user.
// At most one verification OTP and one reset OTP are outstanding at a time;
// issuing a new code overwrites the previous one.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	IsVerified   bool      `json:"isAccountVerified"`

	// Pending email-verification code. Empty string and 0 mean none.
	VerifyOtp         string `json:"-"`
	VerifyOtpExpireAt int64  `json:"-"` // epoch millis

	// Pending password-reset code. Empty string and 0 mean none.
	ResetOtp         string `json:"-"`
	ResetOtpExpireAt int64  `json:"-"` // epoch millis

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
