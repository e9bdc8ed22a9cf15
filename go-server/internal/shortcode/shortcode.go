// Package shortcode produces and validates the tokens that appear in
// short URLs. Generation is pure: global uniqueness is enforced by the
// links table's unique constraint at insert time, not here.
package shortcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	// RandomLength is the length of generated (non-alias) codes.
	RandomLength = 7

	maxAliasLength = 64
)

var (
	ErrInvalidAlias  = errors.New("alias must contain only URL-safe characters")
	ErrReservedAlias = errors.New("alias is reserved")
)

// Generate returns the short code for a new link. A non-empty
// customAlias is validated and used verbatim; otherwise a random
// code of RandomLength characters is drawn from the URL-safe alphabet.
func Generate(customAlias string) (string, error) {
	if customAlias != "" {
		if !Valid(customAlias) || len(customAlias) > maxAliasLength {
			return "", ErrInvalidAlias
		}
		if Reserved(customAlias) {
			return "", ErrReservedAlias
		}
		return customAlias, nil
	}

	code := make([]byte, RandomLength)
	for i := 0; i < RandomLength; i++ {
		randomIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			panic(fmt.Sprintf("failed to generate random number: %v", err))
		}
		code[i] = alphabet[randomIndex.Int64()]
	}

	return string(code), nil
}

// Valid reports whether code is non-empty and drawn entirely from the
// URL-safe alphabet. Codes are case-sensitive; no normalization happens
// anywhere.
func Valid(code string) bool {
	if code == "" {
		return false
	}
	for _, char := range code {
		if char > 127 || !strings.ContainsRune(alphabet, char) {
			return false
		}
	}
	return true
}

// Reserved reports whether code shadows a routing prefix and must never
// resolve as a short code.
func Reserved(code string) bool {
	return code == "api"
}
