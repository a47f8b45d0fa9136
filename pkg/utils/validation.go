package utils

import (
	"fmt"
	"strings"
)

// minContentHashLength is the shortest plausible content hash the storage
// network can serve. CIDv0 hashes are 46 characters; raw sha256 hex is 64.
const minContentHashLength = 16

// ValidateProviderID validates provider ID format
func ValidateProviderID(providerID string) error {
	if providerID == "" {
		return fmt.Errorf("provider ID cannot be empty")
	}
	if len(providerID) > 255 {
		return fmt.Errorf("provider ID too long (max 255 characters)")
	}
	return nil
}

// ValidatePatientID validates patient ID format
func ValidatePatientID(patientID string) error {
	if patientID == "" {
		return fmt.Errorf("patient ID cannot be empty")
	}
	if len(patientID) > 255 {
		return fmt.Errorf("patient ID too long (max 255 characters)")
	}
	return nil
}

// ValidateConsentID validates consent record ID format
func ValidateConsentID(consentID string) error {
	if consentID == "" {
		return fmt.Errorf("consent ID cannot be empty")
	}
	if len(consentID) > 255 {
		return fmt.Errorf("consent ID too long (max 255 characters)")
	}
	return nil
}

// ValidateContentHash validates a content hash before any network call is
// made for it. Placeholder values written by upload drafts are rejected here
// so they never consume retry budget.
func ValidateContentHash(contentHash string) error {
	hash := strings.TrimSpace(contentHash)
	if hash == "" {
		return fmt.Errorf("content hash cannot be empty")
	}
	if hash == "pending" || hash == "placeholder" || strings.HasPrefix(hash, "local-") {
		return fmt.Errorf("content hash is a placeholder: %s", hash)
	}
	if len(hash) < minContentHashLength {
		return fmt.Errorf("content hash too short: %s", hash)
	}
	return nil
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateMaxLength validates maximum string length
func ValidateMaxLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters", fieldName, maxLength)
	}
	return nil
}

// SanitizeString removes dangerous characters from user input
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")
	// Trim whitespace
	input = strings.TrimSpace(input)
	return input
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // Default limit
	}
	if limit > 100 {
		return 100 // Max limit
	}
	return limit
}

// ValidateOffset validates pagination offset
func ValidateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// IsAlphanumeric checks if a string contains only alphanumeric characters
func IsAlphanumeric(s string) bool {
	for _, char := range s {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')) {
			return false
		}
	}
	return true
}
