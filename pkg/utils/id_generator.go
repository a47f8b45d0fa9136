package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a new UUID for permission, session, or audit IDs
func GenerateID() string {
	return uuid.New().String()
}

// GenerateConsentID generates a unique consent record ID
func GenerateConsentID() string {
	return "CONSENT-" + uuid.New().String()
}

// GeneratePermissionID generates a unique access permission ID
func GeneratePermissionID() string {
	return "PERM-" + uuid.New().String()
}

// GenerateSessionID generates a unique access session ID
func GenerateSessionID() string {
	return "SESSION-" + uuid.New().String()
}

// GenerateAttemptID generates a unique access attempt ID
func GenerateAttemptID() string {
	return "ATTEMPT-" + uuid.New().String()
}

// GeneratePaymentID generates a unique payment transaction ID
func GeneratePaymentID() string {
	return "PAY-" + uuid.New().String()
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
