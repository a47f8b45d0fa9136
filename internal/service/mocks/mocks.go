// Package mocks provides hand-written testify mocks for the service layer's
// collaborator interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/ledger"
	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/payment"
)

// MockConsentStore mocks service.ConsentStore
type MockConsentStore struct {
	mock.Mock
}

func (m *MockConsentStore) Create(ctx context.Context, consent *models.ConsentRecord) error {
	args := m.Called(ctx, consent)
	return args.Error(0)
}

func (m *MockConsentStore) GetByID(ctx context.Context, consentID string) (*models.ConsentRecord, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConsentRecord), args.Error(1)
}

func (m *MockConsentStore) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]models.ConsentRecord, error) {
	args := m.Called(ctx, patientID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConsentRecord), args.Error(1)
}

func (m *MockConsentStore) UpdateStatus(ctx context.Context, consentID, status string, updatedTime int64) error {
	args := m.Called(ctx, consentID, status, updatedTime)
	return args.Error(0)
}

func (m *MockConsentStore) SetLedgerReference(ctx context.Context, consentID, ledgerReference string, updatedTime int64) error {
	args := m.Called(ctx, consentID, ledgerReference, updatedTime)
	return args.Error(0)
}

func (m *MockConsentStore) ExpireOverdue(ctx context.Context, now int64) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConsentStore) CreateStatusAudit(ctx context.Context, audit *models.ConsentStatusAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockConsentStore) GetStatusAuditByConsentID(ctx context.Context, consentID string) ([]models.ConsentStatusAudit, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConsentStatusAudit), args.Error(1)
}

// MockPermissionStore mocks service.PermissionStore
type MockPermissionStore struct {
	mock.Mock
}

func (m *MockPermissionStore) CreateWithTx(ctx context.Context, tx *database.Transaction, permission *models.AccessPermission) error {
	args := m.Called(ctx, tx, permission)
	return args.Error(0)
}

func (m *MockPermissionStore) DeactivateForPairWithTx(ctx context.Context, tx *database.Transaction, providerID, patientID string) (int64, error) {
	args := m.Called(ctx, tx, providerID, patientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPermissionStore) GetByID(ctx context.Context, permissionID string) (*models.AccessPermission, error) {
	args := m.Called(ctx, permissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessPermission), args.Error(1)
}

func (m *MockPermissionStore) GetActiveForPair(ctx context.Context, providerID, patientID string) (*models.AccessPermission, error) {
	args := m.Called(ctx, providerID, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessPermission), args.Error(1)
}

func (m *MockPermissionStore) GetByConsentID(ctx context.Context, consentID string) (*models.AccessPermission, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessPermission), args.Error(1)
}

func (m *MockPermissionStore) Deactivate(ctx context.Context, permissionID string) error {
	args := m.Called(ctx, permissionID)
	return args.Error(0)
}

func (m *MockPermissionStore) RecordAccess(ctx context.Context, permissionID string, accessedTime int64) error {
	args := m.Called(ctx, permissionID, accessedTime)
	return args.Error(0)
}

func (m *MockPermissionStore) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]models.AccessPermission, error) {
	args := m.Called(ctx, providerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccessPermission), args.Error(1)
}

// MockSessionStore mocks service.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, session *models.AccessSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) GetByID(ctx context.Context, sessionID string) (*models.AccessSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessSession), args.Error(1)
}

func (m *MockSessionStore) RecordFileAccess(ctx context.Context, sessionID string, filesAccessed models.StringSlice, activityTime int64) error {
	args := m.Called(ctx, sessionID, filesAccessed, activityTime)
	return args.Error(0)
}

func (m *MockSessionStore) End(ctx context.Context, sessionID string, endedTime int64) (bool, error) {
	args := m.Called(ctx, sessionID, endedTime)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) EndAllForPermission(ctx context.Context, permissionID string, endedTime int64) (int64, error) {
	args := m.Called(ctx, permissionID, endedTime)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionStore) CountByProvider(ctx context.Context, providerID string) (int64, int64, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockAttemptStore mocks service.AttemptStore
type MockAttemptStore struct {
	mock.Mock
}

func (m *MockAttemptStore) Append(ctx context.Context, attempt *models.AccessAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptStore) ListBySession(ctx context.Context, sessionID string) ([]models.AccessAttempt, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccessAttempt), args.Error(1)
}

func (m *MockAttemptStore) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]models.AccessAttempt, error) {
	args := m.Called(ctx, providerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccessAttempt), args.Error(1)
}

func (m *MockAttemptStore) CountByProvider(ctx context.Context, providerID string) (int64, int64, int64, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Get(2).(int64), args.Error(3)
}

// MockPaymentStore mocks service.PaymentStore
type MockPaymentStore struct {
	mock.Mock
}

func (m *MockPaymentStore) Create(ctx context.Context, paymentTx *models.PaymentTransaction) error {
	args := m.Called(ctx, paymentTx)
	return args.Error(0)
}

func (m *MockPaymentStore) GetByID(ctx context.Context, paymentID string) (*models.PaymentTransaction, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentStore) GetPendingForPermission(ctx context.Context, permissionID string) (*models.PaymentTransaction, error) {
	args := m.Called(ctx, permissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentStore) GetByTransactionHash(ctx context.Context, txHash string) (*models.PaymentTransaction, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentStore) UpdateStatus(ctx context.Context, paymentID, status string, txHash *string, confirmedTime *int64) error {
	args := m.Called(ctx, paymentID, status, txHash, confirmedTime)
	return args.Error(0)
}

func (m *MockPaymentStore) SumConfirmedByProvider(ctx context.Context, providerID string) (int64, int64, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockFileStore mocks service.FileStore
type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Create(ctx context.Context, file *models.FileRecord) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockFileStore) GetByID(ctx context.Context, fileID string) (*models.FileRecord, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FileRecord), args.Error(1)
}

func (m *MockFileStore) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]models.FileRecord, error) {
	args := m.Called(ctx, patientID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FileRecord), args.Error(1)
}

// MockConsentLedger mocks service.ConsentLedger
type MockConsentLedger struct {
	mock.Mock
}

func (m *MockConsentLedger) CreateConsentRequest(ctx context.Context, providerID, patientID, accessLevel string, durationDays int, purpose string) (string, error) {
	args := m.Called(ctx, providerID, patientID, accessLevel, durationDays, purpose)
	return args.String(0), args.Error(1)
}

func (m *MockConsentLedger) ApproveConsentRequest(ctx context.Context, consentID string) error {
	args := m.Called(ctx, consentID)
	return args.Error(0)
}

func (m *MockConsentLedger) RevokeConsent(ctx context.Context, consentID, reason string) error {
	args := m.Called(ctx, consentID, reason)
	return args.Error(0)
}

func (m *MockConsentLedger) IsConsentValid(ctx context.Context, consentID string) (bool, error) {
	args := m.Called(ctx, consentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockConsentLedger) GetConsentDetails(ctx context.Context, consentID string) (*ledger.ConsentDetails, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ConsentDetails), args.Error(1)
}

// MockPaymentProcessor mocks service.PaymentProcessor
type MockPaymentProcessor struct {
	mock.Mock
}

func (m *MockPaymentProcessor) AccessFee() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *MockPaymentProcessor) ProcessAccessPayment(ctx context.Context, providerID, patientID, resourceID string, amount int64) (*payment.Transaction, error) {
	args := m.Called(ctx, providerID, patientID, resourceID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockPaymentProcessor) VerifyPaymentOnBlockchain(ctx context.Context, txHash, paymentRef string) (*payment.Transaction, error) {
	args := m.Called(ctx, txHash, paymentRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

// MockTxRunner mocks service.TxRunner. The callback runs with a nil
// transaction so store mocks can assert on it directly.
type MockTxRunner struct {
	mock.Mock
}

func (m *MockTxRunner) WithTransaction(ctx context.Context, fn func(*database.Transaction) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(nil)
}
