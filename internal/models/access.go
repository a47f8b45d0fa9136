package models

// Access attempt types recorded in the audit trail.
const (
	AccessTypeView              = "view"
	AccessTypeDownload          = "download"
	AccessTypeEdit              = "edit"
	AccessTypeShare             = "share"
	AccessTypeEmergencyOverride = "emergency_override"
)

// IsValidAccessType reports whether the given access type is recognised
func IsValidAccessType(accessType string) bool {
	switch accessType {
	case AccessTypeView, AccessTypeDownload, AccessTypeEdit, AccessTypeShare, AccessTypeEmergencyOverride:
		return true
	}
	return false
}

// AccessPermission represents the ACCESS_PERMISSION table: the operational
// grant derived 1:1 from an approved consent record. At most one active
// permission exists per (provider, patient) pair; a new approval supersedes
// the previous one.
type AccessPermission struct {
	PermissionID     string      `db:"PERMISSION_ID" json:"permissionId"`
	ProviderID       string      `db:"PROVIDER_ID" json:"providerId"`
	PatientID        string      `db:"PATIENT_ID" json:"patientId"`
	ConsentID        string      `db:"CONSENT_ID" json:"consentId"`
	AccessLevel      string      `db:"ACCESS_LEVEL" json:"accessLevel"`
	AllowedDataTypes StringSlice `db:"ALLOWED_DATA_TYPES" json:"allowedDataTypes"`
	GrantedTime      int64       `db:"GRANTED_TIME" json:"grantedTime"`
	ExpiryTime       int64       `db:"EXPIRY_TIME" json:"expiryTime"`
	IsActive         bool        `db:"IS_ACTIVE" json:"isActive"`
	AccessCount      int64       `db:"ACCESS_COUNT" json:"accessCount"`
	LastAccessedTime *int64      `db:"LAST_ACCESSED_TIME" json:"lastAccessedTime,omitempty"`
}

// AccessSession represents the ACCESS_SESSION table: a bounded window of
// provider activity under one permission, optionally gated by payment.
type AccessSession struct {
	SessionID            string      `db:"SESSION_ID" json:"sessionId"`
	ProviderID           string      `db:"PROVIDER_ID" json:"providerId"`
	PatientID            string      `db:"PATIENT_ID" json:"patientId"`
	PermissionID         string      `db:"PERMISSION_ID" json:"permissionId"`
	StartedTime          int64       `db:"STARTED_TIME" json:"startedTime"`
	LastActivityTime     int64       `db:"LAST_ACTIVITY_TIME" json:"lastActivityTime"`
	EndedTime            *int64      `db:"ENDED_TIME" json:"endedTime,omitempty"`
	IsActive             bool        `db:"IS_ACTIVE" json:"isActive"`
	FilesAccessed        StringSlice `db:"FILES_ACCESSED" json:"filesAccessed"`
	PaymentTransactionID *string     `db:"PAYMENT_TRANSACTION_ID" json:"paymentTransactionId,omitempty"`
}

// AccessAttempt represents the ACCESS_ATTEMPT table. Rows are append-only:
// they are written on success and failure alike and never mutated or deleted.
type AccessAttempt struct {
	AttemptID     string  `db:"ATTEMPT_ID" json:"attemptId"`
	SessionID     *string `db:"SESSION_ID" json:"sessionId,omitempty"`
	ProviderID    string  `db:"PROVIDER_ID" json:"providerId"`
	PatientID     string  `db:"PATIENT_ID" json:"patientId"`
	FileID        *string `db:"FILE_ID" json:"fileId,omitempty"`
	AccessType    string  `db:"ACCESS_TYPE" json:"accessType"`
	AttemptTime   int64   `db:"ATTEMPT_TIME" json:"attemptTime"`
	Success       bool    `db:"SUCCESS" json:"success"`
	FailureReason *string `db:"FAILURE_REASON" json:"failureReason,omitempty"`
	DataAccessed  *string `db:"DATA_ACCESSED" json:"dataAccessed,omitempty"`
}

// CheckAccessResult is the outcome of a read-only access decision
type CheckAccessResult struct {
	HasAccess  bool              `json:"hasAccess"`
	Permission *AccessPermission `json:"permission,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}

// StartSessionResult is the outcome of StartAccessSession. When payment is
// required and unsettled, Session is nil and PaymentTransaction carries the
// pending transaction the caller must confirm.
type StartSessionResult struct {
	Session            *AccessSession      `json:"session,omitempty"`
	PaymentRequired    bool                `json:"paymentRequired"`
	PaymentTransaction *PaymentTransaction `json:"paymentTransaction,omitempty"`
}

// AccessFileResult is the outcome of AccessFile
type AccessFileResult struct {
	Success bool        `json:"success"`
	File    *FileRecord `json:"file,omitempty"`
	Attempt string      `json:"attemptId"`
}

// StartSessionRequest is the API request body for starting an access session
type StartSessionRequest struct {
	ProviderID    string `json:"providerId" binding:"required"`
	PatientID     string `json:"patientId" binding:"required"`
	PaymentTxHash string `json:"paymentTxHash"`
}

// AccessFileRequest is the API request body for touching a file in a session
type AccessFileRequest struct {
	FileID     string `json:"fileId" binding:"required"`
	AccessType string `json:"accessType"`
}

// EmergencyAccessRequest is the API request body for an emergency override.
// Overrides bypass the consent and payment gates entirely and are recorded
// on a dedicated audit path.
type EmergencyAccessRequest struct {
	ProviderID    string `json:"providerId" binding:"required"`
	PatientID     string `json:"patientId" binding:"required"`
	FileID        string `json:"fileId"`
	Justification string `json:"justification" binding:"required"`
}

// ProviderStats is a derived, read-only aggregate over the attempt, session
// and payment logs.
type ProviderStats struct {
	ProviderID        string `json:"providerId"`
	TotalAttempts     int64  `json:"totalAttempts"`
	SuccessfulAccess  int64  `json:"successfulAccess"`
	FailedAccess      int64  `json:"failedAccess"`
	ActiveSessions    int64  `json:"activeSessions"`
	TotalSessions     int64  `json:"totalSessions"`
	ConfirmedPayments int64  `json:"confirmedPayments"`
	TotalPaidAmount   int64  `json:"totalPaidAmount"`
}
