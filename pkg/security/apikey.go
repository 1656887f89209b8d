package security

import (
	"crypto/subtle"
	"regexp"
	"strings"
)

var (
	validKeyPattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	unsafeKeyPattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	hexPattern       = regexp.MustCompile(`^[a-fA-F0-9]+$`)
)

// APIKeyValidator provides secure validation and handling of API keys and bearer tokens
type APIKeyValidator struct {
	minLength int
	maxLength int
}

// NewAPIKeyValidator creates a new API key validator with reasonable defaults
func NewAPIKeyValidator() *APIKeyValidator {
	return &APIKeyValidator{
		minLength: 8,
		maxLength: 512,
	}
}

// ValidateAPIKey validates API key format and length
func (v *APIKeyValidator) ValidateAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}

	if len(apiKey) < v.minLength || len(apiKey) > v.maxLength {
		return false
	}

	return validKeyPattern.MatchString(apiKey)
}

// SanitizeAPIKey removes characters that could inject into a URL or header and trims whitespace
func (v *APIKeyValidator) SanitizeAPIKey(apiKey string) string {
	apiKey = strings.TrimSpace(apiKey)
	return unsafeKeyPattern.ReplaceAllString(apiKey, "")
}

// MaskAPIKey creates a masked version for logging (shows only first/last few chars)
func (v *APIKeyValidator) MaskAPIKey(apiKey string) string {
	if len(apiKey) == 0 {
		return "[empty]"
	}

	if len(apiKey) <= 8 {
		return "[***]"
	}

	return apiKey[:3] + "..." + apiKey[len(apiKey)-3:]
}

// SecureCompare performs constant-time comparison of secrets
func (v *APIKeyValidator) SecureCompare(key1, key2 string) bool {
	return subtle.ConstantTimeCompare([]byte(key1), []byte(key2)) == 1
}

// IsValidTMDBKey validates a TMDB v3 API key: 32 hexadecimal characters
func (v *APIKeyValidator) IsValidTMDBKey(apiKey string) bool {
	if !v.ValidateAPIKey(apiKey) {
		return false
	}
	if len(apiKey) != 32 {
		return false
	}
	return hexPattern.MatchString(apiKey)
}

// ParseBearer extracts the token of an "Authorization: Bearer <token>" header value.
func (v *APIKeyValidator) ParseBearer(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
