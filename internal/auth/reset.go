package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokenTTL bounds how long a password-reset token stays valid.
const ResetTokenTTL = time.Hour

// NewResetToken returns 32 bytes of hex-encoded randomness for a
// single-use password-reset token.
func NewResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
