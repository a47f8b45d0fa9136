package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/metrics"
	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/serviceerror"
	"github.com/medivault/access-management-api/pkg/utils"
)

// AccessControlService owns every access decision: permission derivation from
// approved consents, session lifecycle with its payment gate, the append-only
// attempt trail and revocation cascades. Decisions are made against local
// state; the distributed ledger is consulted only to re-validate mirrored
// consents at grant time.
type AccessControlService struct {
	consents    ConsentStore
	permissions PermissionStore
	sessions    SessionStore
	attempts    AttemptStore
	payments    PaymentStore
	files       FileStore
	ledger      ConsentLedger
	gateway     PaymentProcessor
	txRunner    TxRunner
	logger      *logrus.Logger

	// paymentMu serialises pending-payment creation so concurrent session
	// starts for the same permission reuse one pending transaction instead
	// of charging twice.
	paymentMu sync.Mutex
}

// NewAccessControlService creates a new access control service
func NewAccessControlService(
	consents ConsentStore,
	permissions PermissionStore,
	sessions SessionStore,
	attempts AttemptStore,
	payments PaymentStore,
	files FileStore,
	consentLedger ConsentLedger,
	gateway PaymentProcessor,
	txRunner TxRunner,
	logger *logrus.Logger,
) *AccessControlService {
	return &AccessControlService{
		consents:    consents,
		permissions: permissions,
		sessions:    sessions,
		attempts:    attempts,
		payments:    payments,
		files:       files,
		ledger:      consentLedger,
		gateway:     gateway,
		txRunner:    txRunner,
		logger:      logger,
	}
}

// CheckAccess is the read-only access decision: does the provider hold an
// active, unexpired permission for this patient at the requested level. It
// never mutates state and never consults the ledger.
func (s *AccessControlService) CheckAccess(ctx context.Context, providerID, patientID, requestedLevel string) (*models.CheckAccessResult, *serviceerror.ServiceError) {
	if err := utils.ValidateProviderID(providerID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidatePatientID(patientID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if requestedLevel == "" {
		requestedLevel = models.AccessLevelView
	}
	if !models.IsValidAccessLevel(requestedLevel) {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError,
			fmt.Sprintf("invalid access level: %s", requestedLevel))
	}

	permission, err := s.permissions.GetActiveForPair(ctx, providerID, patientID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load active permission")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to load permission")
	}

	result := s.evaluatePermission(permission, requestedLevel)
	if result.HasAccess {
		metrics.AccessDecisions.WithLabelValues("granted").Inc()
	} else {
		metrics.AccessDecisions.WithLabelValues("denied").Inc()
	}
	return result, nil
}

// evaluatePermission applies the decision rules to a loaded permission.
// Revocation wins over everything; expiry is checked at decision time so a
// stale IS_ACTIVE flag can never extend access.
func (s *AccessControlService) evaluatePermission(permission *models.AccessPermission, requestedLevel string) *models.CheckAccessResult {
	if permission == nil {
		return &models.CheckAccessResult{HasAccess: false, Reason: "no active permission for this provider and patient"}
	}
	if !permission.IsActive {
		return &models.CheckAccessResult{HasAccess: false, Reason: "permission has been revoked"}
	}
	if utils.IsExpired(permission.ExpiryTime) {
		return &models.CheckAccessResult{HasAccess: false, Reason: "permission has expired"}
	}
	if !models.AccessLevelSatisfies(permission.AccessLevel, requestedLevel) {
		return &models.CheckAccessResult{
			HasAccess: false,
			Reason:    fmt.Sprintf("granted level %s does not cover requested level %s", permission.AccessLevel, requestedLevel),
		}
	}
	return &models.CheckAccessResult{HasAccess: true, Permission: permission}
}

// CreateAccessPermission derives the operational permission from an approved
// consent. When the consent is mirrored on the ledger, on-chain validity is
// re-checked first. The previous active permission for the pair, if any, is
// superseded in the same transaction that creates the new one, so the
// one-active-permission invariant holds even under concurrent approvals.
func (s *AccessControlService) CreateAccessPermission(ctx context.Context, consent *models.ConsentRecord) (*models.AccessPermission, *serviceerror.ServiceError) {
	if consent == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "consent record is required")
	}
	if !consent.IsApproved() {
		return nil, serviceerror.CustomServiceError(serviceerror.ConflictError,
			fmt.Sprintf("consent %s is %s, not approved", consent.ConsentID, consent.CurrentStatus))
	}
	if utils.IsExpired(consent.ExpiryTime) {
		return nil, serviceerror.CustomServiceError(serviceerror.ConflictError,
			fmt.Sprintf("consent %s has expired", consent.ConsentID))
	}

	if consent.LedgerReference != nil && *consent.LedgerReference != "" {
		valid, err := s.ledger.IsConsentValid(ctx, *consent.LedgerReference)
		if err != nil {
			s.logger.WithError(err).WithField("consentId", consent.ConsentID).Error("Ledger validity check failed")
			return nil, serviceerror.CustomServiceError(serviceerror.LedgerError,
				"consent validity could not be confirmed on the ledger")
		}
		if !valid {
			return nil, serviceerror.CustomServiceError(serviceerror.AccessDeniedError,
				"consent is no longer valid on the ledger")
		}
	}

	now := utils.GetCurrentTimeMillis()
	permission := &models.AccessPermission{
		PermissionID:     utils.GeneratePermissionID(),
		ProviderID:       consent.ProviderID,
		PatientID:        consent.PatientID,
		ConsentID:        consent.ConsentID,
		AccessLevel:      consent.AccessLevel,
		AllowedDataTypes: consent.AllowedDataTypes,
		GrantedTime:      now,
		ExpiryTime:       consent.ExpiryTime,
		IsActive:         true,
	}

	err := s.txRunner.WithTransaction(ctx, func(tx *database.Transaction) error {
		superseded, err := s.permissions.DeactivateForPairWithTx(ctx, tx, consent.ProviderID, consent.PatientID)
		if err != nil {
			return err
		}
		if superseded > 0 {
			s.logger.WithFields(logrus.Fields{
				"providerId": consent.ProviderID,
				"patientId":  consent.PatientID,
				"superseded": superseded,
			}).Info("Superseded previous active permission")
		}
		return s.permissions.CreateWithTx(ctx, tx, permission)
	})
	if err != nil {
		s.logger.WithError(err).WithField("consentId", consent.ConsentID).Error("Failed to create access permission")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to create access permission")
	}

	s.logger.WithFields(logrus.Fields{
		"permissionId": permission.PermissionID,
		"consentId":    consent.ConsentID,
		"accessLevel":  permission.AccessLevel,
	}).Info("Access permission created")

	return permission, nil
}

// StartAccessSession opens an activity window under the provider's active
// permission. View-level grants start free; edit and full grants are gated on
// a confirmed payment. The first call without a transaction hash returns the
// pending payment to settle; the call with the settled hash verifies it
// against the payment ledger and only then creates the session.
func (s *AccessControlService) StartAccessSession(ctx context.Context, req *models.StartSessionRequest) (*models.StartSessionResult, *serviceerror.ServiceError) {
	check, svcErr := s.CheckAccess(ctx, req.ProviderID, req.PatientID, models.AccessLevelView)
	if svcErr != nil {
		return nil, svcErr
	}
	if !check.HasAccess {
		s.appendAttempt(ctx, nil, req.ProviderID, req.PatientID, nil, models.AccessTypeView, false, check.Reason, nil)
		return nil, serviceerror.CustomServiceError(serviceerror.AccessDeniedError, check.Reason)
	}
	permission := check.Permission

	var paymentID *string
	if paymentRequiredForLevel(permission.AccessLevel) {
		settled, result, svcErr := s.settlePayment(ctx, permission, req)
		if svcErr != nil {
			return nil, svcErr
		}
		if result != nil {
			return result, nil
		}
		paymentID = &settled.PaymentID
	}

	now := utils.GetCurrentTimeMillis()
	session := &models.AccessSession{
		SessionID:            utils.GenerateSessionID(),
		ProviderID:           req.ProviderID,
		PatientID:            req.PatientID,
		PermissionID:         permission.PermissionID,
		StartedTime:          now,
		LastActivityTime:     now,
		IsActive:             true,
		FilesAccessed:        models.StringSlice{},
		PaymentTransactionID: paymentID,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.WithError(err).Error("Failed to create access session")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to create access session")
	}

	// The permission counters track session starts, not file touches.
	if err := s.permissions.RecordAccess(ctx, permission.PermissionID, now); err != nil {
		s.logger.WithError(err).Warn("Failed to update permission access counters")
	}

	metrics.ActiveSessions.Inc()
	s.logger.WithFields(logrus.Fields{
		"sessionId":    session.SessionID,
		"permissionId": permission.PermissionID,
		"paid":         paymentID != nil,
	}).Info("Access session started")

	return &models.StartSessionResult{Session: session}, nil
}

// paymentRequiredForLevel reports whether a grant level is fee-gated.
// View-level access stays free.
func paymentRequiredForLevel(level string) bool {
	return models.AccessLevelOrdinal(level) > models.AccessLevelOrdinal(models.AccessLevelView)
}

// settlePayment drives the two-phase payment gate. It returns either the
// confirmed payment (proceed to session creation) or a StartSessionResult
// carrying the pending transaction (caller must settle and retry).
func (s *AccessControlService) settlePayment(ctx context.Context, permission *models.AccessPermission, req *models.StartSessionRequest) (*models.PaymentTransaction, *models.StartSessionResult, *serviceerror.ServiceError) {
	if req.PaymentTxHash != "" {
		confirmed, svcErr := s.verifyPayment(ctx, permission, req.PaymentTxHash)
		if svcErr != nil {
			return nil, nil, svcErr
		}
		return confirmed, nil, nil
	}

	s.paymentMu.Lock()
	defer s.paymentMu.Unlock()

	pending, err := s.payments.GetPendingForPermission(ctx, permission.PermissionID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load pending payment")
		return nil, nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to load pending payment")
	}

	if pending == nil {
		tx, err := s.gateway.ProcessAccessPayment(ctx, permission.ProviderID, permission.PatientID, permission.PermissionID, s.gateway.AccessFee())
		if err != nil {
			s.logger.WithError(err).Error("Payment initiation failed")
			return nil, nil, serviceerror.CustomServiceError(serviceerror.NetworkError, "payment could not be initiated")
		}

		pending = &models.PaymentTransaction{
			PaymentID:       utils.GeneratePaymentID(),
			ProviderID:      permission.ProviderID,
			PatientID:       permission.PatientID,
			PermissionID:    permission.PermissionID,
			Amount:          tx.Amount,
			CurrentStatus:   models.PaymentStatusPending,
			TransactionHash: &tx.TransactionHash,
			CreatedTime:     utils.GetCurrentTimeMillis(),
		}
		if err := s.payments.Create(ctx, pending); err != nil {
			s.logger.WithError(err).Error("Failed to persist pending payment")
			return nil, nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to persist pending payment")
		}
		metrics.Payments.WithLabelValues(models.PaymentStatusPending).Inc()
	}

	return nil, &models.StartSessionResult{
		PaymentRequired:    true,
		PaymentTransaction: pending,
	}, nil
}

// verifyPayment checks a settled transaction hash against the local pending
// record and the payment ledger, then marks the payment confirmed.
func (s *AccessControlService) verifyPayment(ctx context.Context, permission *models.AccessPermission, txHash string) (*models.PaymentTransaction, *serviceerror.ServiceError) {
	local, err := s.payments.GetByTransactionHash(ctx, txHash)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load payment by transaction hash")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to load payment")
	}
	if local == nil || local.PermissionID != permission.PermissionID {
		return nil, serviceerror.CustomServiceError(serviceerror.PaymentRequiredError,
			"no payment found for this transaction hash and permission")
	}
	if local.IsConfirmed() {
		return local, nil
	}
	if local.CurrentStatus != models.PaymentStatusPending {
		return nil, serviceerror.CustomServiceError(serviceerror.PaymentRequiredError,
			fmt.Sprintf("payment is %s and cannot be used", local.CurrentStatus))
	}

	onChain, err := s.gateway.VerifyPaymentOnBlockchain(ctx, txHash, local.PaymentID)
	if err != nil {
		s.logger.WithError(err).Error("Payment verification failed")
		return nil, serviceerror.CustomServiceError(serviceerror.NetworkError, "payment could not be verified")
	}
	if onChain == nil || onChain.CurrentStatus != models.PaymentStatusConfirmed {
		return nil, serviceerror.CustomServiceError(serviceerror.PaymentRequiredError,
			"payment is not confirmed on the ledger")
	}

	confirmedTime := utils.GetCurrentTimeMillis()
	if onChain.ConfirmedTime != nil {
		confirmedTime = *onChain.ConfirmedTime
	}
	if err := s.payments.UpdateStatus(ctx, local.PaymentID, models.PaymentStatusConfirmed, &txHash, &confirmedTime); err != nil {
		s.logger.WithError(err).Error("Failed to mark payment confirmed")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to update payment")
	}
	metrics.Payments.WithLabelValues(models.PaymentStatusConfirmed).Inc()

	local.CurrentStatus = models.PaymentStatusConfirmed
	local.ConfirmedTime = &confirmedTime
	return local, nil
}

// AccessFile records a provider touching one file inside an active session.
// The permission is re-read at every touch so revocation and expiry take
// effect mid-session. Both grants and denials are appended to the attempt
// trail.
func (s *AccessControlService) AccessFile(ctx context.Context, sessionID string, req *models.AccessFileRequest) (*models.AccessFileResult, *serviceerror.ServiceError) {
	accessType := req.AccessType
	if accessType == "" {
		accessType = models.AccessTypeView
	}
	if !models.IsValidAccessType(accessType) || accessType == models.AccessTypeEmergencyOverride {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError,
			fmt.Sprintf("invalid access type: %s", accessType))
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("session %s not found", sessionID))
	}
	if !session.IsActive {
		return nil, serviceerror.CustomServiceError(serviceerror.AccessDeniedError, "session has ended")
	}

	permission, err := s.permissions.GetByID(ctx, session.PermissionID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load session permission")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to load permission")
	}

	deny := func(reason string) (*models.AccessFileResult, *serviceerror.ServiceError) {
		s.appendAttempt(ctx, &sessionID, session.ProviderID, session.PatientID, &req.FileID, accessType, false, reason, nil)
		metrics.AccessDecisions.WithLabelValues("denied").Inc()
		return nil, serviceerror.CustomServiceError(serviceerror.AccessDeniedError, reason)
	}

	check := s.evaluatePermission(permission, requiredLevelForAccessType(accessType))
	if !check.HasAccess {
		return deny(check.Reason)
	}

	file, err := s.files.GetByID(ctx, req.FileID)
	if err != nil {
		s.appendAttempt(ctx, &sessionID, session.ProviderID, session.PatientID, &req.FileID, accessType, false, "file not found", nil)
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("file %s not found", req.FileID))
	}
	if file.PatientID != session.PatientID {
		return deny("file does not belong to the session patient")
	}
	if len(permission.AllowedDataTypes) > 0 && !permission.AllowedDataTypes.Contains(file.DataType) {
		return deny(fmt.Sprintf("data type %s is not covered by the consent", file.DataType))
	}

	now := utils.GetCurrentTimeMillis()
	attemptID := s.appendAttempt(ctx, &sessionID, session.ProviderID, session.PatientID, &req.FileID, accessType, true, "", &file.DataType)
	metrics.AccessDecisions.WithLabelValues("granted").Inc()

	filesAccessed := session.FilesAccessed
	if !filesAccessed.Contains(req.FileID) {
		filesAccessed = append(filesAccessed, req.FileID)
	}
	if err := s.sessions.RecordFileAccess(ctx, sessionID, filesAccessed, now); err != nil {
		s.logger.WithError(err).Warn("Failed to update session activity")
	}

	return &models.AccessFileResult{Success: true, File: file, Attempt: attemptID}, nil
}

// requiredLevelForAccessType maps an attempt type to the minimum grant level
// that covers it. Viewing and downloading need view; editing needs edit;
// sharing needs full.
func requiredLevelForAccessType(accessType string) string {
	switch accessType {
	case models.AccessTypeEdit:
		return models.AccessLevelEdit
	case models.AccessTypeShare:
		return models.AccessLevelFull
	default:
		return models.AccessLevelView
	}
}

// EndAccessSession closes a session. Ending is idempotent: ending an already
// ended session succeeds without effect, and concurrent ends resolve
// first-write-wins at the storage layer.
func (s *AccessControlService) EndAccessSession(ctx context.Context, sessionID string) *serviceerror.ServiceError {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("session %s not found", sessionID))
	}

	transitioned, err := s.sessions.End(ctx, sessionID, utils.GetCurrentTimeMillis())
	if err != nil {
		s.logger.WithError(err).Error("Failed to end access session")
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to end session")
	}

	if transitioned {
		metrics.ActiveSessions.Dec()
		s.logger.WithField("sessionId", sessionID).Info("Access session ended")
	}
	return nil
}

// RevokeAccess revokes a permission immediately: the permission is
// deactivated, every open session under it is ended, the backing consent is
// marked revoked with an audit row, and a mirrored consent is revoked on the
// ledger best-effort. Ledger failures are logged and counted, never
// propagated; local revocation must not hinge on ledger availability.
func (s *AccessControlService) RevokeAccess(ctx context.Context, permissionID, reason, actionBy string) *serviceerror.ServiceError {
	permission, err := s.permissions.GetByID(ctx, permissionID)
	if err != nil {
		return serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("permission %s not found", permissionID))
	}

	if err := s.permissions.Deactivate(ctx, permissionID); err != nil {
		s.logger.WithError(err).Error("Failed to deactivate permission")
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to deactivate permission")
	}

	now := utils.GetCurrentTimeMillis()
	ended, err := s.sessions.EndAllForPermission(ctx, permissionID, now)
	if err != nil {
		s.logger.WithError(err).Error("Failed to end sessions for revoked permission")
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to end sessions")
	}
	metrics.ActiveSessions.Sub(float64(ended))

	consent, err := s.consents.GetByID(ctx, permission.ConsentID)
	if err != nil {
		s.logger.WithError(err).WithField("consentId", permission.ConsentID).Warn("Backing consent not found during revocation")
	} else if consent.CurrentStatus != models.ConsentStatusRevoked {
		previous := consent.CurrentStatus
		if err := s.consents.UpdateStatus(ctx, consent.ConsentID, models.ConsentStatusRevoked, now); err != nil {
			s.logger.WithError(err).Error("Failed to mark consent revoked")
			return serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to update consent")
		}
		s.auditConsentTransition(ctx, consent.ConsentID, models.ConsentStatusRevoked, previous, actionBy, reason)
		s.mirrorRevocation(ctx, consent, reason)
	}

	s.logger.WithFields(logrus.Fields{
		"permissionId":  permissionID,
		"endedSessions": ended,
		"reason":        reason,
	}).Info("Access revoked")

	return nil
}

// mirrorRevocation pushes a revocation to the ledger when the consent is
// mirrored. Best-effort only.
func (s *AccessControlService) mirrorRevocation(ctx context.Context, consent *models.ConsentRecord, reason string) {
	if consent.LedgerReference == nil || *consent.LedgerReference == "" {
		return
	}
	if err := s.ledger.RevokeConsent(ctx, *consent.LedgerReference, reason); err != nil {
		metrics.LedgerMirrorFailures.Inc()
		s.logger.WithError(err).WithField("consentId", consent.ConsentID).Warn("Ledger revocation mirror failed")
	}
}

// RecordEmergencyAccess records an emergency override on the audit trail.
// Overrides bypass consent and payment entirely; they create no permission
// and no session, only an attempt row carrying the justification.
func (s *AccessControlService) RecordEmergencyAccess(ctx context.Context, req *models.EmergencyAccessRequest) (*models.AccessAttempt, *serviceerror.ServiceError) {
	if err := utils.ValidateProviderID(req.ProviderID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidatePatientID(req.PatientID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateRequired("justification", req.Justification); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	var fileID *string
	if req.FileID != "" {
		fileID = &req.FileID
	}

	attempt := &models.AccessAttempt{
		AttemptID:    utils.GenerateAttemptID(),
		ProviderID:   req.ProviderID,
		PatientID:    req.PatientID,
		FileID:       fileID,
		AccessType:   models.AccessTypeEmergencyOverride,
		AttemptTime:  utils.GetCurrentTimeMillis(),
		Success:      true,
		DataAccessed: &req.Justification,
	}

	if err := s.attempts.Append(ctx, attempt); err != nil {
		s.logger.WithError(err).Error("Failed to record emergency access")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to record emergency access")
	}

	metrics.AccessAttempts.WithLabelValues(models.AccessTypeEmergencyOverride, "success").Inc()
	s.logger.WithFields(logrus.Fields{
		"providerId": req.ProviderID,
		"patientId":  req.PatientID,
	}).Warn("Emergency access override recorded")

	return attempt, nil
}

// GetAccessHistory returns a provider's attempt trail, newest first
func (s *AccessControlService) GetAccessHistory(ctx context.Context, providerID string, limit, offset int) ([]models.AccessAttempt, *serviceerror.ServiceError) {
	if err := utils.ValidateProviderID(providerID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	attempts, err := s.attempts.ListByProvider(ctx, providerID, utils.ValidateLimit(limit), utils.ValidateOffset(offset))
	if err != nil {
		s.logger.WithError(err).Error("Failed to list access attempts")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to list access attempts")
	}
	return attempts, nil
}

// GetProviderStats aggregates a provider's activity across the attempt,
// session and payment logs.
func (s *AccessControlService) GetProviderStats(ctx context.Context, providerID string) (*models.ProviderStats, *serviceerror.ServiceError) {
	if err := utils.ValidateProviderID(providerID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	total, successful, failed, err := s.attempts.CountByProvider(ctx, providerID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count access attempts")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to aggregate attempts")
	}

	totalSessions, activeSessions, err := s.sessions.CountByProvider(ctx, providerID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count sessions")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to aggregate sessions")
	}

	confirmedPayments, totalPaid, err := s.payments.SumConfirmedByProvider(ctx, providerID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sum payments")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to aggregate payments")
	}

	return &models.ProviderStats{
		ProviderID:        providerID,
		TotalAttempts:     total,
		SuccessfulAccess:  successful,
		FailedAccess:      failed,
		ActiveSessions:    activeSessions,
		TotalSessions:     totalSessions,
		ConfirmedPayments: confirmedPayments,
		TotalPaidAmount:   totalPaid,
	}, nil
}

// appendAttempt writes one audit row. Audit writes must never block the
// caller's control flow, so failures are logged and the attempt ID is
// returned empty.
func (s *AccessControlService) appendAttempt(ctx context.Context, sessionID *string, providerID, patientID string, fileID *string, accessType string, success bool, failureReason string, dataAccessed *string) string {
	attempt := &models.AccessAttempt{
		AttemptID:    utils.GenerateAttemptID(),
		SessionID:    sessionID,
		ProviderID:   providerID,
		PatientID:    patientID,
		FileID:       fileID,
		AccessType:   accessType,
		AttemptTime:  utils.GetCurrentTimeMillis(),
		Success:      success,
		DataAccessed: dataAccessed,
	}
	if failureReason != "" {
		attempt.FailureReason = &failureReason
	}

	if err := s.attempts.Append(ctx, attempt); err != nil {
		s.logger.WithError(err).Error("Failed to append access attempt")
		return ""
	}

	result := "failure"
	if success {
		result = "success"
	}
	metrics.AccessAttempts.WithLabelValues(accessType, result).Inc()
	return attempt.AttemptID
}

// auditConsentTransition appends a consent status audit row, logging on error
func (s *AccessControlService) auditConsentTransition(ctx context.Context, consentID, status, previous, actionBy, reason string) {
	audit := &models.ConsentStatusAudit{
		StatusAuditID: utils.GenerateID(),
		ConsentID:     consentID,
		CurrentStatus: status,
		ActionTime:    utils.GetCurrentTimeMillis(),
	}
	if previous != "" {
		audit.PreviousStatus = &previous
	}
	if actionBy != "" {
		audit.ActionBy = &actionBy
	}
	if reason != "" {
		audit.Reason = &reason
	}

	if err := s.consents.CreateStatusAudit(ctx, audit); err != nil {
		s.logger.WithError(err).WithField("consentId", consentID).Error("Failed to append consent status audit")
	}
}
