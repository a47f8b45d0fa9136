package models

// Payment transaction statuses. A session must never be marked started on an
// unconfirmed payment.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// PaymentTransaction represents the PAYMENT_TRANSACTION table. Amounts are
// denominated in the ledger's smallest native unit.
type PaymentTransaction struct {
	PaymentID       string  `db:"PAYMENT_ID" json:"paymentId"`
	ProviderID      string  `db:"PROVIDER_ID" json:"providerId"`
	PatientID       string  `db:"PATIENT_ID" json:"patientId"`
	PermissionID    string  `db:"PERMISSION_ID" json:"permissionId"`
	Amount          int64   `db:"AMOUNT" json:"amount"`
	CurrentStatus   string  `db:"CURRENT_STATUS" json:"currentStatus"`
	TransactionHash *string `db:"TRANSACTION_HASH" json:"transactionHash,omitempty"`
	CreatedTime     int64   `db:"CREATED_TIME" json:"createdTime"`
	ConfirmedTime   *int64  `db:"CONFIRMED_TIME" json:"confirmedTime,omitempty"`
}

// IsConfirmed reports whether the payment has been verified on the ledger
func (p *PaymentTransaction) IsConfirmed() bool {
	return p.CurrentStatus == PaymentStatusConfirmed
}
