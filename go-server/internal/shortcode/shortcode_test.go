package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_RandomCode(t *testing.T) {
	code, err := Generate("")

	assert.NoError(t, err)
	assert.Len(t, code, RandomLength)
	assert.True(t, Valid(code))
}

func TestGenerate_RandomCodesDiffer(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := Generate("")
		assert.NoError(t, err)
		seen[code] = true
	}

	// 100 draws from 64^7 colliding would point at a broken generator
	assert.Greater(t, len(seen), 95)
}

func TestGenerate_CustomAlias(t *testing.T) {
	code, err := Generate("promo1")

	assert.NoError(t, err)
	assert.Equal(t, "promo1", code)
}

func TestGenerate_AliasUsedVerbatim_CaseSensitive(t *testing.T) {
	code, err := Generate("PrOmO-2024_x")

	assert.NoError(t, err)
	assert.Equal(t, "PrOmO-2024_x", code)
}

func TestGenerate_InvalidAlias(t *testing.T) {
	for _, alias := range []string{
		"has space",
		"slash/inside",
		"percent%20",
		"unicode✓",
		"dot.dot",
		strings.Repeat("a", 65),
	} {
		_, err := Generate(alias)
		assert.ErrorIs(t, err, ErrInvalidAlias, "alias %q", alias)
	}
}

func TestGenerate_ReservedAlias(t *testing.T) {
	_, err := Generate("api")

	assert.ErrorIs(t, err, ErrReservedAlias)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("abcXYZ0_-"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("no/slash"))
}

func TestReserved(t *testing.T) {
	assert.True(t, Reserved("api"))
	// reservation is an exact, case-sensitive match
	assert.False(t, Reserved("API"))
	assert.False(t, Reserved("apiv2"))
}
