package models

// Consent record lifecycle statuses. A record is created pending, moves to
// approved or denied by patient action, to revoked by patient or emergency
// override, and to expired by time.
const (
	ConsentStatusPending  = "pending"
	ConsentStatusApproved = "approved"
	ConsentStatusDenied   = "denied"
	ConsentStatusRevoked  = "revoked"
	ConsentStatusExpired  = "expired"
)

// Access levels, ordered view < edit < full.
const (
	AccessLevelView = "view"
	AccessLevelEdit = "edit"
	AccessLevelFull = "full"
)

// accessLevelOrdinals defines the ordering used for level comparison.
var accessLevelOrdinals = map[string]int{
	AccessLevelView: 1,
	AccessLevelEdit: 2,
	AccessLevelFull: 3,
}

// AccessLevelOrdinal returns the ordinal rank of an access level, or 0 for
// an unknown level.
func AccessLevelOrdinal(level string) int {
	return accessLevelOrdinals[level]
}

// IsValidAccessLevel reports whether the given level is one of view/edit/full
func IsValidAccessLevel(level string) bool {
	return accessLevelOrdinals[level] != 0
}

// AccessLevelSatisfies reports whether a grant of level `granted` covers a
// request for level `requested`.
func AccessLevelSatisfies(granted, requested string) bool {
	g := accessLevelOrdinals[granted]
	r := accessLevelOrdinals[requested]
	return g != 0 && r != 0 && r <= g
}

// ConsentRecord represents the CONSENT_RECORD table. It is the
// patient-authored grant a provider's operational permission derives from.
// When LedgerReference is set, the on-chain record is the source of truth
// and local state reconciles to it.
type ConsentRecord struct {
	ConsentID        string      `db:"CONSENT_ID" json:"consentId"`
	PatientID        string      `db:"PATIENT_ID" json:"patientId"`
	ProviderID       string      `db:"PROVIDER_ID" json:"providerId"`
	AccessLevel      string      `db:"ACCESS_LEVEL" json:"accessLevel"`
	AllowedDataTypes StringSlice `db:"ALLOWED_DATA_TYPES" json:"allowedDataTypes"`
	Purpose          string      `db:"PURPOSE" json:"purpose"`
	CurrentStatus    string      `db:"CURRENT_STATUS" json:"currentStatus"`
	CreatedTime      int64       `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime      int64       `db:"UPDATED_TIME" json:"updatedTime"`
	ExpiryTime       int64       `db:"EXPIRY_TIME" json:"expiryTime"`
	LedgerReference  *string     `db:"LEDGER_REFERENCE" json:"ledgerReference,omitempty"`
}

// IsApproved reports whether the consent is currently approved
func (c *ConsentRecord) IsApproved() bool {
	return c.CurrentStatus == ConsentStatusApproved
}

// ConsentCreateRequest is the API request body for creating a consent record
type ConsentCreateRequest struct {
	PatientID        string   `json:"patientId" binding:"required"`
	ProviderID       string   `json:"providerId" binding:"required"`
	AccessLevel      string   `json:"accessLevel" binding:"required"`
	AllowedDataTypes []string `json:"allowedDataTypes"`
	Purpose          string   `json:"purpose"`
	DurationDays     int      `json:"durationDays" binding:"required,min=1"`
	MirrorToLedger   bool     `json:"mirrorToLedger"`
}

// ConsentDecisionRequest carries an approve/deny/revoke action on a consent
type ConsentDecisionRequest struct {
	ActionBy string `json:"actionBy"`
	Reason   string `json:"reason"`
}

// ConsentStatusAudit represents the CONSENT_STATUS_AUDIT table. Every
// lifecycle transition of a consent record is appended here.
type ConsentStatusAudit struct {
	StatusAuditID  string  `db:"STATUS_AUDIT_ID" json:"statusAuditId"`
	ConsentID      string  `db:"CONSENT_ID" json:"consentId"`
	CurrentStatus  string  `db:"CURRENT_STATUS" json:"currentStatus"`
	PreviousStatus *string `db:"PREVIOUS_STATUS" json:"previousStatus,omitempty"`
	ActionTime     int64   `db:"ACTION_TIME" json:"actionTime"`
	ActionBy       *string `db:"ACTION_BY" json:"actionBy,omitempty"`
	Reason         *string `db:"REASON" json:"reason,omitempty"`
}
