package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestValidateContentHash tests placeholder and format rejection
func TestValidateContentHash(t *testing.T) {
	valid := "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

	assert.NoError(t, ValidateContentHash(valid))
	assert.NoError(t, ValidateContentHash("  "+valid+"  "), "surrounding whitespace is trimmed")

	cases := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"pending placeholder", "pending"},
		{"placeholder literal", "placeholder"},
		{"local draft", "local-1755123456789"},
		{"too short", "abc123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, ValidateContentHash(tc.hash))
		})
	}
}

// TestValidateIDs tests the shared empty and length rules
func TestValidateIDs(t *testing.T) {
	long := strings.Repeat("x", 256)

	assert.NoError(t, ValidateProviderID("provider-1"))
	assert.Error(t, ValidateProviderID(""))
	assert.Error(t, ValidateProviderID(long))

	assert.NoError(t, ValidatePatientID("patient-1"))
	assert.Error(t, ValidatePatientID(""))
	assert.Error(t, ValidatePatientID(long))

	assert.NoError(t, ValidateConsentID("CONSENT-1"))
	assert.Error(t, ValidateConsentID(""))
	assert.Error(t, ValidateConsentID(long))
}

// TestValidateRequired tests required field validation
func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("field", "value"))

	err := ValidateRequired("justification", "   ")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "justification")
}

// TestValidateLimitAndOffset tests pagination clamping
func TestValidateLimitAndOffset(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 20, ValidateLimit(-5))
	assert.Equal(t, 50, ValidateLimit(50))
	assert.Equal(t, 100, ValidateLimit(500))

	assert.Equal(t, 0, ValidateOffset(-1))
	assert.Equal(t, 40, ValidateOffset(40))
}

// TestSanitizeString tests null byte and whitespace handling
func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeString("  report.pdf\x00  "))
	assert.Equal(t, "", SanitizeString("\x00"))
}

// TestIsAlphanumeric tests the character class check
func TestIsAlphanumeric(t *testing.T) {
	assert.True(t, IsAlphanumeric("abc123XYZ"))
	assert.True(t, IsAlphanumeric(""))
	assert.False(t, IsAlphanumeric("abc-123"))
	assert.False(t, IsAlphanumeric("abc 123"))
}
