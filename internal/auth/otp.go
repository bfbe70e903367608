package auth

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// generateOtp returns a 6-digit code drawn uniformly from [100000, 999999].
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
