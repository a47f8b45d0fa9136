package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medivault/access-management-api/internal/metrics"
	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/serviceerror"
	"github.com/medivault/access-management-api/pkg/utils"
)

// ConsentService owns the consent record lifecycle: creation, the patient's
// approve/deny decision, revocation and time-based expiry. Approval hands off
// to the access control service to derive the operational permission.
type ConsentService struct {
	consents      ConsentStore
	ledger        ConsentLedger
	accessControl *AccessControlService
	logger        *logrus.Logger
}

// NewConsentService creates a new consent service
func NewConsentService(consents ConsentStore, consentLedger ConsentLedger, accessControl *AccessControlService, logger *logrus.Logger) *ConsentService {
	return &ConsentService{
		consents:      consents,
		ledger:        consentLedger,
		accessControl: accessControl,
		logger:        logger,
	}
}

// CreateConsent records a new pending consent request. When the caller asks
// for ledger mirroring, the request is registered on-chain first and the
// returned reference is stored alongside the local record; a ledger failure
// fails the whole creation since a half-mirrored record would be ambiguous.
func (s *ConsentService) CreateConsent(ctx context.Context, req *models.ConsentCreateRequest) (*models.ConsentRecord, *serviceerror.ServiceError) {
	if err := utils.ValidatePatientID(req.PatientID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateProviderID(req.ProviderID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if !models.IsValidAccessLevel(req.AccessLevel) {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError,
			fmt.Sprintf("invalid access level: %s", req.AccessLevel))
	}
	if req.DurationDays < 1 {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "duration must be at least one day")
	}

	var ledgerRef *string
	if req.MirrorToLedger {
		ref, err := s.ledger.CreateConsentRequest(ctx, req.ProviderID, req.PatientID, req.AccessLevel, req.DurationDays, req.Purpose)
		if err != nil {
			s.logger.WithError(err).Error("Failed to register consent on ledger")
			return nil, serviceerror.CustomServiceError(serviceerror.LedgerError,
				"consent could not be registered on the ledger")
		}
		ledgerRef = &ref
	}

	now := utils.GetCurrentTimeMillis()
	consent := &models.ConsentRecord{
		ConsentID:        utils.GenerateConsentID(),
		PatientID:        req.PatientID,
		ProviderID:       req.ProviderID,
		AccessLevel:      req.AccessLevel,
		AllowedDataTypes: models.StringSlice(req.AllowedDataTypes),
		Purpose:          req.Purpose,
		CurrentStatus:    models.ConsentStatusPending,
		CreatedTime:      now,
		UpdatedTime:      now,
		ExpiryTime:       utils.DaysFromNow(req.DurationDays),
		LedgerReference:  ledgerRef,
	}

	if err := s.consents.Create(ctx, consent); err != nil {
		s.logger.WithError(err).Error("Failed to create consent record")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to create consent record")
	}

	s.audit(ctx, consent.ConsentID, models.ConsentStatusPending, "", req.PatientID, "consent requested")
	s.logger.WithFields(logrus.Fields{
		"consentId":  consent.ConsentID,
		"providerId": req.ProviderID,
		"patientId":  req.PatientID,
		"mirrored":   ledgerRef != nil,
	}).Info("Consent record created")

	return consent, nil
}

// GetConsent returns a consent record by ID
func (s *ConsentService) GetConsent(ctx context.Context, consentID string) (*models.ConsentRecord, *serviceerror.ServiceError) {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	consent, err := s.consents.GetByID(ctx, consentID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("consent %s not found", consentID))
	}
	return consent, nil
}

// ListPatientConsents returns a patient's consent records, newest first
func (s *ConsentService) ListPatientConsents(ctx context.Context, patientID string, limit, offset int) ([]models.ConsentRecord, *serviceerror.ServiceError) {
	if err := utils.ValidatePatientID(patientID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	consents, err := s.consents.ListByPatient(ctx, patientID, utils.ValidateLimit(limit), utils.ValidateOffset(offset))
	if err != nil {
		s.logger.WithError(err).Error("Failed to list consent records")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to list consent records")
	}
	return consents, nil
}

// GetConsentAudit returns the full status transition history of a consent
func (s *ConsentService) GetConsentAudit(ctx context.Context, consentID string) ([]models.ConsentStatusAudit, *serviceerror.ServiceError) {
	if _, svcErr := s.GetConsent(ctx, consentID); svcErr != nil {
		return nil, svcErr
	}

	audits, err := s.consents.GetStatusAuditByConsentID(ctx, consentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load consent audit")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to load consent audit")
	}
	return audits, nil
}

// ApproveConsent applies the patient's approval to a pending consent and
// derives the operational access permission from it. The permission handoff
// enforces the one-active-permission rule, superseding any earlier grant for
// the same provider and patient.
func (s *ConsentService) ApproveConsent(ctx context.Context, consentID string, req *models.ConsentDecisionRequest) (*models.AccessPermission, *serviceerror.ServiceError) {
	consent, svcErr := s.transition(ctx, consentID, models.ConsentStatusPending, models.ConsentStatusApproved, req)
	if svcErr != nil {
		return nil, svcErr
	}

	if consent.LedgerReference != nil && *consent.LedgerReference != "" {
		// Approval mirror is best-effort; permission creation re-validates
		// on-chain state anyway.
		if err := s.ledger.ApproveConsentRequest(ctx, *consent.LedgerReference); err != nil {
			metrics.LedgerMirrorFailures.Inc()
			s.logger.WithError(err).WithField("consentId", consentID).Warn("Ledger approval mirror failed")
		}
	}

	permission, svcErr := s.accessControl.CreateAccessPermission(ctx, consent)
	if svcErr != nil {
		return nil, svcErr
	}
	return permission, nil
}

// DenyConsent applies the patient's denial to a pending consent
func (s *ConsentService) DenyConsent(ctx context.Context, consentID string, req *models.ConsentDecisionRequest) *serviceerror.ServiceError {
	_, svcErr := s.transition(ctx, consentID, models.ConsentStatusPending, models.ConsentStatusDenied, req)
	return svcErr
}

// RevokeConsent withdraws an approved consent. The revocation cascades
// through the derived permission, ending any open sessions, and is mirrored
// to the ledger best-effort.
func (s *ConsentService) RevokeConsent(ctx context.Context, consentID string, req *models.ConsentDecisionRequest) *serviceerror.ServiceError {
	consent, svcErr := s.GetConsent(ctx, consentID)
	if svcErr != nil {
		return svcErr
	}

	permission, err := s.accessControl.permissions.GetByConsentID(ctx, consentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load permission for consent")
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to load permission")
	}

	// An approved consent with a live permission revokes through the access
	// path so sessions end and the ledger mirror fires exactly once.
	if permission != nil && permission.IsActive {
		return s.accessControl.RevokeAccess(ctx, permission.PermissionID, req.Reason, req.ActionBy)
	}

	switch consent.CurrentStatus {
	case models.ConsentStatusPending, models.ConsentStatusApproved:
	case models.ConsentStatusRevoked:
		return nil
	default:
		return serviceerror.CustomServiceError(serviceerror.ConflictError,
			fmt.Sprintf("consent %s is %s and cannot be revoked", consentID, consent.CurrentStatus))
	}

	now := utils.GetCurrentTimeMillis()
	if err := s.consents.UpdateStatus(ctx, consentID, models.ConsentStatusRevoked, now); err != nil {
		s.logger.WithError(err).Error("Failed to mark consent revoked")
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to update consent")
	}
	s.audit(ctx, consentID, models.ConsentStatusRevoked, consent.CurrentStatus, req.ActionBy, req.Reason)
	s.accessControl.mirrorRevocation(ctx, consent, req.Reason)

	return nil
}

// ExpireOverdueConsents sweeps pending and approved consents past their
// expiry time. Intended to run periodically; expiry of permissions themselves
// needs no sweep since access checks evaluate expiry at decision time.
func (s *ConsentService) ExpireOverdueConsents(ctx context.Context) (int64, *serviceerror.ServiceError) {
	expired, err := s.consents.ExpireOverdue(ctx, utils.GetCurrentTimeMillis())
	if err != nil {
		s.logger.WithError(err).Error("Consent expiry sweep failed")
		return 0, serviceerror.CustomServiceError(serviceerror.DatabaseError, "consent expiry sweep failed")
	}
	if expired > 0 {
		s.logger.WithField("expired", expired).Info("Expired overdue consent records")
	}
	return expired, nil
}

// transition moves a consent from an expected status to a new one, writing
// the audit row. Returns the consent with the new status applied.
func (s *ConsentService) transition(ctx context.Context, consentID, expected, target string, req *models.ConsentDecisionRequest) (*models.ConsentRecord, *serviceerror.ServiceError) {
	consent, svcErr := s.GetConsent(ctx, consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	if consent.CurrentStatus != expected {
		return nil, serviceerror.CustomServiceError(serviceerror.ConflictError,
			fmt.Sprintf("consent %s is %s, expected %s", consentID, consent.CurrentStatus, expected))
	}
	if utils.IsExpired(consent.ExpiryTime) {
		return nil, serviceerror.CustomServiceError(serviceerror.ConflictError,
			fmt.Sprintf("consent %s has expired", consentID))
	}

	now := utils.GetCurrentTimeMillis()
	if err := s.consents.UpdateStatus(ctx, consentID, target, now); err != nil {
		s.logger.WithError(err).Error("Failed to update consent status")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to update consent status")
	}

	s.audit(ctx, consentID, target, expected, req.ActionBy, req.Reason)
	s.logger.WithFields(logrus.Fields{
		"consentId": consentID,
		"from":      expected,
		"to":        target,
	}).Info("Consent status updated")

	consent.CurrentStatus = target
	consent.UpdatedTime = now
	return consent, nil
}

// audit appends a consent status audit row, logging on failure
func (s *ConsentService) audit(ctx context.Context, consentID, status, previous, actionBy, reason string) {
	s.accessControl.auditConsentTransition(ctx, consentID, status, previous, actionBy, reason)
}
