package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

var pinPattern = regexp.MustCompile(`^\d{4}$|^\d{6}$`)

// IsValidPIN accepts exactly 4 or 6 digits.
func IsValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

func HashPIN(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), BcryptCost)
	return string(bytes), err
}

func CheckPINHash(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// GeneratePublicToken returns a URL-safe random token for public tournament
// pages, 18 bytes of entropy like secrets.token_urlsafe(18).
func GeneratePublicToken() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
