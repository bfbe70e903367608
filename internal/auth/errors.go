package auth

import "errors"

// Closed set of error kinds recognized at the operation boundary. Handlers
// map these to user-facing messages; anything unclassified is rendered as a
// generic failure and logged with its cause.
var (
	ErrMissingFields      = errors.New("missing details")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOtp         = errors.New("invalid otp")
	ErrOtpExpired         = errors.New("otp expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAlreadyVerified    = errors.New("account already verified")
)
