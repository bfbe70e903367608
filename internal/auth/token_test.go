package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasetoService(t *testing.T) {
	_, err := NewPasetoService([]byte("too short"))
	assert.Error(t, err)

	_, err = NewPasetoService(testPasetoKey)
	assert.NoError(t, err)
}

func TestIssueAndVerifyToken(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	accountID := uuid.New()
	token, err := svc.IssueToken(accountID, 7*24*time.Hour)
	require.NoError(t, err)

	gotID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, gotID)
}

func TestVerifyToken_Expired(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	token, err := svc.IssueToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_WrongKey(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	other, err := NewPasetoService([]byte("abcdefghijklmnopqrstuvwxyz012345"))
	require.NoError(t, err)

	token, err := svc.IssueToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Malformed(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	for _, tokenStr := range []string{"", "not-a-token", "v4.local.garbage"} {
		_, err := svc.VerifyToken(tokenStr)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tokenStr)
	}
}
