package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{"already normalized", "+5491122334455", "+5491122334455"},
		{"spaces and dashes", "+54 9 11 2233-4455", "+5491122334455"},
		{"double zero prefix", "005491122334455", "+5491122334455"},
		{"bare 549 digits", "5491122334455", "+5491122334455"},
		{"bare 54 digits", "541122334455", "+541122334455"},
		{"local 11 number", "1122334455", "+5491122334455"},
		{"parentheses", "(11) 2233-4455", "+5491122334455"},
		{"other country code kept", "12025550123", "+12025550123"},
		{"too short", "11 22", ""},
		{"empty", "", ""},
		{"letters only", "not a phone", ""},
		{"plus in the middle ignored", "11+2233+4455", "+5491122334455"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizePhone(tc.raw))
		})
	}
}

func TestIsValidPIN(t *testing.T) {
	valid := []string{"0000", "1234", "123456", "000000"}
	for _, pin := range valid {
		assert.Truef(t, IsValidPIN(pin), "pin %q must be valid", pin)
	}

	invalid := []string{"", "123", "12345", "1234567", "12a4", "12 34", "١٢٣٤"}
	for _, pin := range invalid {
		assert.Falsef(t, IsValidPIN(pin), "pin %q must be rejected", pin)
	}
}

func TestHashAndCheckPIN(t *testing.T) {
	hash, err := HashPIN("4321")
	assert.NoError(t, err)
	assert.NotEqual(t, "4321", hash)

	assert.True(t, CheckPINHash("4321", hash))
	assert.False(t, CheckPINHash("1234", hash))
	assert.False(t, CheckPINHash("4321", "not-a-hash"))
}

func TestGeneratePublicToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		token, err := GeneratePublicToken()
		assert.NoError(t, err)
		assert.Len(t, token, 24) // 18 bytes, base64url without padding
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}
