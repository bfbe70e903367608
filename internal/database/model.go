package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the bun row model for the accounts table. OTP expiries are
// stored as epoch milliseconds; 0 and the empty string are the "no code
// outstanding" sentinels.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID                uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name              string    `bun:"name,notnull"`
	Email             string    `bun:"email,notnull,unique"`
	PasswordHash      string    `bun:"password_hash,notnull"`
	IsVerified        bool      `bun:"is_account_verified,notnull,default:false"`
	VerifyOtp         string    `bun:"verify_otp,notnull,default:''"`
	VerifyOtpExpireAt int64     `bun:"verify_otp_expire_at,notnull,default:0"`
	ResetOtp          string    `bun:"reset_otp,notnull,default:''"`
	ResetOtpExpireAt  int64     `bun:"reset_otp_expire_at,notnull,default:0"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
