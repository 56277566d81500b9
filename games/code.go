package games

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// CodeLength is the length of game codes.
const CodeLength = 6

// codeAlphabet holds all characters that are used in canonical game codes.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode generates a random game code in canonical uppercase form.
// Uniqueness is not checked here. See Registry for handling collisions.
func GenerateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeCode brings the given code to canonical form by trimming and
// uppercasing it.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode checks whether the given code is in canonical form and consists of
// CodeLength characters from the code alphabet.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			return false
		}
	}
	return true
}
