package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// PasetoService issues and verifies session tokens using PASETO v4.local
// (symmetric encryption with XChaCha20-Poly1305). Tokens carry the account
// id and an absolute expiry; nothing is stored server-side, so a token
// cannot be invalidated before it expires.
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
}

func NewPasetoService(symmetricKey []byte) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{symmetricKey: key}, nil
}

// IssueToken produces a token bound to accountID that expires after duration.
func (s *PasetoService) IssueToken(accountID uuid.UUID, duration time.Duration) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(duration))
	token.SetString("account_id", accountID.String())

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken checks the token cryptographically and returns the account id
// claim. A bad key, malformed encoding, missing claim, or passed expiry all
// fail with ErrInvalidToken.
func (s *PasetoService) VerifyToken(tokenStr string) (uuid.UUID, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	accountIDStr, err := token.GetString("account_id")
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return accountID, nil
}
