package games

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 256; i++ {
		code, err := GenerateCode()
		require.NoError(t, err, "should not fail")
		require.True(t, ValidCode(code), "code %q should be valid", code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 250, "should generate mostly distinct codes")
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeCode("abc123"))
	assert.Equal(t, "ABC123", NormalizeCode("  aBc123 \n"))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		code   string
		expect bool
	}{
		{code: "ABC123", expect: true},
		{code: "ZZZZZZ", expect: true},
		{code: "000000", expect: true},
		{code: "abc123", expect: false},
		{code: "ABC12", expect: false},
		{code: "ABC1234", expect: false},
		{code: "ABC-12", expect: false},
		{code: "ÄBC123", expect: false},
		{code: "", expect: false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expect, ValidCode(tt.code))
		})
	}
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "game-config-ABC123.json", ExportFileName("abc123"))
}
