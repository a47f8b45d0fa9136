package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/serviceerror"
	"github.com/medivault/access-management-api/pkg/utils"
)

type consentFixture struct {
	*accessFixture
	service *ConsentService
}

func newConsentFixture() *consentFixture {
	af := newAccessFixture()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &consentFixture{
		accessFixture: af,
		service:       NewConsentService(af.consents, af.ledger, af.service, logger),
	}
}

func validCreateRequest() *models.ConsentCreateRequest {
	return &models.ConsentCreateRequest{
		PatientID:    "patient-1",
		ProviderID:   "provider-1",
		AccessLevel:  models.AccessLevelEdit,
		Purpose:      "treatment",
		DurationDays: 30,
	}
}

// TestCreateConsent_StartsPending tests that a new consent is created in
// pending status with its audit row
func TestCreateConsent_StartsPending(t *testing.T) {
	f := newConsentFixture()
	f.consents.On("Create", mock.Anything, mock.MatchedBy(func(c *models.ConsentRecord) bool {
		return c.CurrentStatus == models.ConsentStatusPending && c.LedgerReference == nil && c.ExpiryTime > 0
	})).Return(nil)
	f.consents.On("CreateStatusAudit", mock.Anything, mock.MatchedBy(func(a *models.ConsentStatusAudit) bool {
		return a.CurrentStatus == models.ConsentStatusPending && a.PreviousStatus == nil
	})).Return(nil)

	consent, svcErr := f.service.CreateConsent(context.Background(), validCreateRequest())

	require.Nil(t, svcErr)
	assert.Equal(t, models.ConsentStatusPending, consent.CurrentStatus)
	assert.NotEmpty(t, consent.ConsentID)
	f.ledger.AssertNotCalled(t, "CreateConsentRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestCreateConsent_MirroredToLedger tests that ledger mirroring stores the
// on-chain reference and a ledger failure fails the creation
func TestCreateConsent_MirroredToLedger(t *testing.T) {
	f := newConsentFixture()
	req := validCreateRequest()
	req.MirrorToLedger = true

	f.ledger.On("CreateConsentRequest", mock.Anything, "provider-1", "patient-1", models.AccessLevelEdit, 30, "treatment").Return("LEDGER-REF-1", nil)
	f.consents.On("Create", mock.Anything, mock.MatchedBy(func(c *models.ConsentRecord) bool {
		return c.LedgerReference != nil && *c.LedgerReference == "LEDGER-REF-1"
	})).Return(nil)
	f.consents.On("CreateStatusAudit", mock.Anything, mock.Anything).Return(nil)

	consent, svcErr := f.service.CreateConsent(context.Background(), req)
	require.Nil(t, svcErr)
	assert.Equal(t, "LEDGER-REF-1", *consent.LedgerReference)

	f2 := newConsentFixture()
	f2.ledger.On("CreateConsentRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("ledger down"))

	_, svcErr = f2.service.CreateConsent(context.Background(), req)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.KindLedger, svcErr.Kind)
	f2.consents.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestCreateConsent_Validation tests rejected inputs
func TestCreateConsent_Validation(t *testing.T) {
	f := newConsentFixture()

	req := validCreateRequest()
	req.AccessLevel = "owner"
	_, svcErr := f.service.CreateConsent(context.Background(), req)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.KindValidation, svcErr.Kind)

	req = validCreateRequest()
	req.DurationDays = 0
	_, svcErr = f.service.CreateConsent(context.Background(), req)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.KindValidation, svcErr.Kind)
}

// TestApproveConsent_CreatesPermission tests the approval handoff: status
// transition, audit row, and permission derivation
func TestApproveConsent_CreatesPermission(t *testing.T) {
	f := newConsentFixture()
	consent := &models.ConsentRecord{
		ConsentID:     "CONSENT-1",
		PatientID:     "patient-1",
		ProviderID:    "provider-1",
		AccessLevel:   models.AccessLevelEdit,
		CurrentStatus: models.ConsentStatusPending,
		ExpiryTime:    utils.DaysFromNow(30),
	}

	f.consents.On("GetByID", mock.Anything, "CONSENT-1").Return(consent, nil)
	f.consents.On("UpdateStatus", mock.Anything, "CONSENT-1", models.ConsentStatusApproved, mock.Anything).Return(nil)
	f.consents.On("CreateStatusAudit", mock.Anything, mock.MatchedBy(func(a *models.ConsentStatusAudit) bool {
		return a.CurrentStatus == models.ConsentStatusApproved && *a.PreviousStatus == models.ConsentStatusPending
	})).Return(nil)
	f.txRunner.On("WithTransaction", mock.Anything).Return(nil)
	f.permissions.On("DeactivateForPairWithTx", mock.Anything, mock.Anything, "provider-1", "patient-1").Return(int64(0), nil)
	f.permissions.On("CreateWithTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	permission, svcErr := f.service.ApproveConsent(context.Background(), "CONSENT-1", &models.ConsentDecisionRequest{ActionBy: "patient-1"})

	require.Nil(t, svcErr)
	assert.Equal(t, "CONSENT-1", permission.ConsentID)
	assert.Equal(t, models.AccessLevelEdit, permission.AccessLevel)
	f.permissions.AssertExpectations(t)
}

// TestApproveConsent_RejectsNonPending tests the status gate on approval
func TestApproveConsent_RejectsNonPending(t *testing.T) {
	f := newConsentFixture()
	consent := &models.ConsentRecord{
		ConsentID:     "CONSENT-1",
		CurrentStatus: models.ConsentStatusDenied,
		ExpiryTime:    utils.DaysFromNow(30),
	}
	f.consents.On("GetByID", mock.Anything, "CONSENT-1").Return(consent, nil)

	_, svcErr := f.service.ApproveConsent(context.Background(), "CONSENT-1", &models.ConsentDecisionRequest{})

	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.KindConflict, svcErr.Kind)
}

// TestApproveConsent_RejectsExpired tests that an overdue consent cannot be
// approved even before the sweep marks it expired
func TestApproveConsent_RejectsExpired(t *testing.T) {
	f := newConsentFixture()
	consent := &models.ConsentRecord{
		ConsentID:     "CONSENT-1",
		CurrentStatus: models.ConsentStatusPending,
		ExpiryTime:    utils.GetCurrentTimeMillis() - 1000,
	}
	f.consents.On("GetByID", mock.Anything, "CONSENT-1").Return(consent, nil)

	_, svcErr := f.service.ApproveConsent(context.Background(), "CONSENT-1", &models.ConsentDecisionRequest{})

	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.KindConflict, svcErr.Kind)
}

// TestDenyConsent tests the pending to denied transition
func TestDenyConsent(t *testing.T) {
	f := newConsentFixture()
	consent := &models.ConsentRecord{
		ConsentID:     "CONSENT-1",
		CurrentStatus: models.ConsentStatusPending,
		ExpiryTime:    utils.DaysFromNow(30),
	}
	f.consents.On("GetByID", mock.Anything, "CONSENT-1").Return(consent, nil)
	f.consents.On("UpdateStatus", mock.Anything, "CONSENT-1", models.ConsentStatusDenied, mock.Anything).Return(nil)
	f.consents.On("CreateStatusAudit", mock.Anything, mock.Anything).Return(nil)

	svcErr := f.service.DenyConsent(context.Background(), "CONSENT-1", &models.ConsentDecisionRequest{ActionBy: "patient-1"})

	assert.Nil(t, svcErr)
	f.consents.AssertExpectations(t)
}

// TestRevokeConsent_CascadesThroughPermission tests that revoking an
// approved consent with a live permission ends its sessions
func TestRevokeConsent_CascadesThroughPermission(t *testing.T) {
	f := newConsentFixture()
	consent := &models.ConsentRecord{
		ConsentID:     "CONSENT-1",
		CurrentStatus: models.ConsentStatusApproved,
		ExpiryTime:    utils.DaysFromNow(30),
	}
	perm := activePermission(models.AccessLevelEdit)

	f.consents.On("GetByID", mock.Anything, "CONSENT-1").Return(consent, nil)
	f.permissions.On("GetByConsentID", mock.Anything, "CONSENT-1").Return(perm, nil)
	f.permissions.On("GetByID", mock.Anything, "PERM-1").Return(perm, nil)
	f.permissions.On("Deactivate", mock.Anything, "PERM-1").Return(nil)
	f.sessions.On("EndAllForPermission", mock.Anything, "PERM-1", mock.Anything).Return(int64(1), nil)
	f.consents.On("UpdateStatus", mock.Anything, "CONSENT-1", models.ConsentStatusRevoked, mock.Anything).Return(nil)
	f.consents.On("CreateStatusAudit", mock.Anything, mock.Anything).Return(nil)

	svcErr := f.service.RevokeConsent(context.Background(), "CONSENT-1", &models.ConsentDecisionRequest{
		ActionBy: "patient-1",
		Reason:   "changed my mind",
	})

	assert.Nil(t, svcErr)
	f.permissions.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

// TestRevokeConsent_AlreadyRevoked tests idempotent revocation
func TestRevokeConsent_AlreadyRevoked(t *testing.T) {
	f := newConsentFixture()
	consent := &models.ConsentRecord{
		ConsentID:     "CONSENT-1",
		CurrentStatus: models.ConsentStatusRevoked,
	}
	f.consents.On("GetByID", mock.Anything, "CONSENT-1").Return(consent, nil)
	f.permissions.On("GetByConsentID", mock.Anything, "CONSENT-1").Return(nil, nil)

	svcErr := f.service.RevokeConsent(context.Background(), "CONSENT-1", &models.ConsentDecisionRequest{})

	assert.Nil(t, svcErr)
	f.consents.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestExpireOverdueConsents tests the sweep passthrough
func TestExpireOverdueConsents(t *testing.T) {
	f := newConsentFixture()
	f.consents.On("ExpireOverdue", mock.Anything, mock.Anything).Return(int64(3), nil)

	expired, svcErr := f.service.ExpireOverdueConsents(context.Background())

	require.Nil(t, svcErr)
	assert.Equal(t, int64(3), expired)
}

// TestGetConsent_NotFound tests the missing record error
func TestGetConsent_NotFound(t *testing.T) {
	f := newConsentFixture()
	f.consents.On("GetByID", mock.Anything, "CONSENT-X").Return(nil, errors.New("consent not found"))

	_, svcErr := f.service.GetConsent(context.Background(), "CONSENT-X")

	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.KindNotFound, svcErr.Kind)
}
