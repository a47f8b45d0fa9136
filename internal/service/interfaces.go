package service

import (
	"context"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/ledger"
	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/payment"
)

// ConsentStore is the persistence surface for consent records and their audit
type ConsentStore interface {
	Create(ctx context.Context, consent *models.ConsentRecord) error
	GetByID(ctx context.Context, consentID string) (*models.ConsentRecord, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]models.ConsentRecord, error)
	UpdateStatus(ctx context.Context, consentID, status string, updatedTime int64) error
	SetLedgerReference(ctx context.Context, consentID, ledgerReference string, updatedTime int64) error
	ExpireOverdue(ctx context.Context, now int64) (int64, error)
	CreateStatusAudit(ctx context.Context, audit *models.ConsentStatusAudit) error
	GetStatusAuditByConsentID(ctx context.Context, consentID string) ([]models.ConsentStatusAudit, error)
}

// PermissionStore is the persistence surface for access permissions
type PermissionStore interface {
	CreateWithTx(ctx context.Context, tx *database.Transaction, permission *models.AccessPermission) error
	DeactivateForPairWithTx(ctx context.Context, tx *database.Transaction, providerID, patientID string) (int64, error)
	GetByID(ctx context.Context, permissionID string) (*models.AccessPermission, error)
	GetActiveForPair(ctx context.Context, providerID, patientID string) (*models.AccessPermission, error)
	GetByConsentID(ctx context.Context, consentID string) (*models.AccessPermission, error)
	Deactivate(ctx context.Context, permissionID string) error
	RecordAccess(ctx context.Context, permissionID string, accessedTime int64) error
	ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]models.AccessPermission, error)
}

// SessionStore is the persistence surface for access sessions
type SessionStore interface {
	Create(ctx context.Context, session *models.AccessSession) error
	GetByID(ctx context.Context, sessionID string) (*models.AccessSession, error)
	RecordFileAccess(ctx context.Context, sessionID string, filesAccessed models.StringSlice, activityTime int64) error
	End(ctx context.Context, sessionID string, endedTime int64) (bool, error)
	EndAllForPermission(ctx context.Context, permissionID string, endedTime int64) (int64, error)
	CountByProvider(ctx context.Context, providerID string) (total int64, active int64, err error)
}

// AttemptStore is the append-only persistence surface for access attempts
type AttemptStore interface {
	Append(ctx context.Context, attempt *models.AccessAttempt) error
	ListBySession(ctx context.Context, sessionID string) ([]models.AccessAttempt, error)
	ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]models.AccessAttempt, error)
	CountByProvider(ctx context.Context, providerID string) (total int64, successful int64, failed int64, err error)
}

// PaymentStore is the persistence surface for payment transactions
type PaymentStore interface {
	Create(ctx context.Context, payment *models.PaymentTransaction) error
	GetByID(ctx context.Context, paymentID string) (*models.PaymentTransaction, error)
	GetPendingForPermission(ctx context.Context, permissionID string) (*models.PaymentTransaction, error)
	GetByTransactionHash(ctx context.Context, txHash string) (*models.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, paymentID, status string, txHash *string, confirmedTime *int64) error
	SumConfirmedByProvider(ctx context.Context, providerID string) (count int64, total int64, err error)
}

// FileStore is the persistence surface for file records
type FileStore interface {
	Create(ctx context.Context, file *models.FileRecord) error
	GetByID(ctx context.Context, fileID string) (*models.FileRecord, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]models.FileRecord, error)
}

// ConsentLedger is the distributed consent ledger surface
type ConsentLedger interface {
	CreateConsentRequest(ctx context.Context, providerID, patientID, accessLevel string, durationDays int, purpose string) (string, error)
	ApproveConsentRequest(ctx context.Context, consentID string) error
	RevokeConsent(ctx context.Context, consentID, reason string) error
	IsConsentValid(ctx context.Context, consentID string) (bool, error)
	GetConsentDetails(ctx context.Context, consentID string) (*ledger.ConsentDetails, error)
}

// PaymentProcessor is the payment gateway surface
type PaymentProcessor interface {
	AccessFee() int64
	ProcessAccessPayment(ctx context.Context, providerID, patientID, resourceID string, amount int64) (*payment.Transaction, error)
	VerifyPaymentOnBlockchain(ctx context.Context, txHash, paymentRef string) (*payment.Transaction, error)
}

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(*database.Transaction) error) error
}
