package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	v := NewAPIKeyValidator()

	assert.False(t, v.ValidateAPIKey(""))
	assert.False(t, v.ValidateAPIKey("short"))
	assert.False(t, v.ValidateAPIKey("has spaces in it"))
	assert.True(t, v.ValidateAPIKey("abc_DEF-123456"))
}

func TestSanitizeAPIKey(t *testing.T) {
	v := NewAPIKeyValidator()
	assert.Equal(t, "abcdef123", v.SanitizeAPIKey("  abc&def=123\n"))
}

func TestMaskAPIKey(t *testing.T) {
	v := NewAPIKeyValidator()
	assert.Equal(t, "[empty]", v.MaskAPIKey(""))
	assert.Equal(t, "[***]", v.MaskAPIKey("12345678"))
	assert.Equal(t, "abc...xyz", v.MaskAPIKey("abc1234567xyz"))
}

func TestIsValidTMDBKey(t *testing.T) {
	v := NewAPIKeyValidator()
	assert.True(t, v.IsValidTMDBKey("0123456789abcdef0123456789ABCDEF"))
	assert.False(t, v.IsValidTMDBKey("0123456789abcdef"))
	assert.False(t, v.IsValidTMDBKey("0123456789abcdef0123456789abcdeg"))
}

func TestParseBearer(t *testing.T) {
	v := NewAPIKeyValidator()

	tok, ok := v.ParseBearer("Bearer secret-token")
	assert.True(t, ok)
	assert.Equal(t, "secret-token", tok)

	tok, ok = v.ParseBearer("bearer   spaced ")
	assert.True(t, ok)
	assert.Equal(t, "spaced", tok)

	_, ok = v.ParseBearer("Basic abc")
	assert.False(t, ok)
	_, ok = v.ParseBearer("Bearer ")
	assert.False(t, ok)
	_, ok = v.ParseBearer("")
	assert.False(t, ok)
}

func TestSecureCompare(t *testing.T) {
	v := NewAPIKeyValidator()
	assert.True(t, v.SecureCompare("a", "a"))
	assert.False(t, v.SecureCompare("a", "b"))
}
