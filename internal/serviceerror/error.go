package serviceerror

// ServiceErrorType separates faults the caller can fix from faults they cannot.
type ServiceErrorType string

const (
	ClientErrorType ServiceErrorType = "client_error"
	ServerErrorType ServiceErrorType = "server_error"
)

// ErrorKind is the closed taxonomy every caller must handle. Each kind maps
// to a distinct remediation: validation errors need a corrected request,
// access denials need consent, payment errors need settlement, network errors
// may be retried, decryption errors never are.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindAccessDenied        ErrorKind = "access_denied"
	KindPayment             ErrorKind = "payment"
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindNetwork             ErrorKind = "network"
	KindTimeout             ErrorKind = "timeout"
	KindDecryptionKey       ErrorKind = "decryption_key"
	KindDecryptionIntegrity ErrorKind = "decryption_integrity"
	KindDecryptionMetadata  ErrorKind = "decryption_metadata"
	KindCancelled           ErrorKind = "cancelled"
	KindLedger              ErrorKind = "ledger"
	KindInternal            ErrorKind = "internal"
)

// ServiceError is the typed error carried across service boundaries.
type ServiceError struct {
	Code             string           `json:"code"`
	Type             ServiceErrorType `json:"type"`
	Kind             ErrorKind        `json:"kind"`
	Error            string           `json:"error"`
	ErrorDescription string           `json:"error_description,omitempty"`
}

var (
	InternalServerError = ServiceError{
		Type:             ServerErrorType,
		Kind:             KindInternal,
		Code:             "ASE-5000",
		Error:            "internal_server_error",
		ErrorDescription: "An unexpected error occurred",
	}

	DatabaseError = ServiceError{
		Type:             ServerErrorType,
		Kind:             KindInternal,
		Code:             "ASE-5001",
		Error:            "database_error",
		ErrorDescription: "A database error occurred",
	}

	LedgerError = ServiceError{
		Type:             ServerErrorType,
		Kind:             KindLedger,
		Code:             "ASE-5002",
		Error:            "ledger_error",
		ErrorDescription: "The consent ledger could not be reached",
	}

	NetworkError = ServiceError{
		Type:             ServerErrorType,
		Kind:             KindNetwork,
		Code:             "ASE-5003",
		Error:            "network_error",
		ErrorDescription: "The storage network could not be reached",
	}

	TimeoutError = ServiceError{
		Type:             ServerErrorType,
		Kind:             KindTimeout,
		Code:             "ASE-5004",
		Error:            "timeout",
		ErrorDescription: "The operation timed out",
	}

	ValidationError = ServiceError{
		Type:             ClientErrorType,
		Kind:             KindValidation,
		Code:             "ACE-4001",
		Error:            "validation_error",
		ErrorDescription: "Validation failed",
	}

	AccessDeniedError = ServiceError{
		Type:             ClientErrorType,
		Kind:             KindAccessDenied,
		Code:             "ACE-4003",
		Error:            "access_denied",
		ErrorDescription: "Access denied",
	}

	ResourceNotFoundError = ServiceError{
		Type:             ClientErrorType,
		Kind:             KindNotFound,
		Code:             "ACE-4004",
		Error:            "resource_not_found",
		ErrorDescription: "Resource not found",
	}

	ConflictError = ServiceError{
		Type:             ClientErrorType,
		Kind:             KindConflict,
		Code:             "ACE-4009",
		Error:            "conflict",
		ErrorDescription: "Request conflicts with current state",
	}

	PaymentRequiredError = ServiceError{
		Type:             ClientErrorType,
		Kind:             KindPayment,
		Code:             "ACE-4002",
		Error:            "payment_required",
		ErrorDescription: "A confirmed payment is required before access is granted",
	}

	DecryptionKeyError = ServiceError{
		Type:             ClientErrorType,
		Kind:             KindDecryptionKey,
		Code:             "ACE-4221",
		Error:            "decryption_key_failure",
		ErrorDescription: "The derived key could not decrypt the content",
	}

	DecryptionIntegrityError = ServiceError{
		Type:             ClientErrorType,
		Kind:             KindDecryptionIntegrity,
		Code:             "ACE-4222",
		Error:            "decryption_integrity_failure",
		ErrorDescription: "Authentication tag verification failed; the content is corrupt or tampered",
	}

	DecryptionMetadataError = ServiceError{
		Type:             ClientErrorType,
		Kind:             KindDecryptionMetadata,
		Code:             "ACE-4223",
		Error:            "invalid_encryption_metadata",
		ErrorDescription: "Required encryption metadata is missing or malformed",
	}

	CancelledError = ServiceError{
		Type:             ClientErrorType,
		Kind:             KindCancelled,
		Code:             "ACE-4099",
		Error:            "cancelled",
		ErrorDescription: "The operation was cancelled by the caller",
	}
)

// CustomServiceError copies a base error with a specific description.
func CustomServiceError(baseError ServiceError, description string) *ServiceError {
	return &ServiceError{
		Type:             baseError.Type,
		Kind:             baseError.Kind,
		Code:             baseError.Code,
		Error:            baseError.Error,
		ErrorDescription: description,
	}
}

// IsRetryable reports whether an error kind may be retried. Only transient
// network faults qualify; access denials and decryption failures must always
// surface immediately.
func (e *ServiceError) IsRetryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindTimeout
}

// IsDecryptionFailure reports whether the error belongs to any of the three
// decryption categories.
func (e *ServiceError) IsDecryptionFailure() bool {
	return e.Kind == KindDecryptionKey || e.Kind == KindDecryptionIntegrity || e.Kind == KindDecryptionMetadata
}
