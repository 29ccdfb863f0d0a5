package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const resetTokenBytes = 32

// NewResetToken returns a URL-safe random secret suitable for a single-use link.
func NewResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
