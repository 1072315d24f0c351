package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const ResetCodeExpiry = 15 * time.Minute

// GenerateResetCode returns a random 6-digit reset code.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ResetCodeKey is the cache key holding the pending reset code of an email.
func ResetCodeKey(email string) string {
	return "reset_code:" + email
}
