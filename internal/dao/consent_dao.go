package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/models"
)

// ConsentDAO handles database operations for consent records
type ConsentDAO struct {
	db *database.DB
}

// NewConsentDAO creates a new ConsentDAO instance
func NewConsentDAO(db *database.DB) *ConsentDAO {
	return &ConsentDAO{db: db}
}

// Create inserts a new consent record into the database
func (dao *ConsentDAO) Create(ctx context.Context, consent *models.ConsentRecord) error {
	query := `
		INSERT INTO CONSENT_RECORD (
			CONSENT_ID, PATIENT_ID, PROVIDER_ID, ACCESS_LEVEL, ALLOWED_DATA_TYPES,
			PURPOSE, CURRENT_STATUS, CREATED_TIME, UPDATED_TIME, EXPIRY_TIME,
			LEDGER_REFERENCE
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		consent.ConsentID,
		consent.PatientID,
		consent.ProviderID,
		consent.AccessLevel,
		consent.AllowedDataTypes,
		consent.Purpose,
		consent.CurrentStatus,
		consent.CreatedTime,
		consent.UpdatedTime,
		consent.ExpiryTime,
		consent.LedgerReference,
	)

	if err != nil {
		return fmt.Errorf("failed to create consent record: %w", err)
	}

	return nil
}

// GetByID retrieves a consent record by ID
func (dao *ConsentDAO) GetByID(ctx context.Context, consentID string) (*models.ConsentRecord, error) {
	query := `
		SELECT CONSENT_ID, PATIENT_ID, PROVIDER_ID, ACCESS_LEVEL, ALLOWED_DATA_TYPES,
		       PURPOSE, CURRENT_STATUS, CREATED_TIME, UPDATED_TIME, EXPIRY_TIME,
		       LEDGER_REFERENCE
		FROM CONSENT_RECORD
		WHERE CONSENT_ID = ?
	`

	var consent models.ConsentRecord
	err := dao.db.GetContext(ctx, &consent, query, consentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("consent not found: %s", consentID)
		}
		return nil, fmt.Errorf("failed to get consent: %w", err)
	}

	return &consent, nil
}

// ListByPatient retrieves consent records owned by a patient
func (dao *ConsentDAO) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]models.ConsentRecord, error) {
	query := `
		SELECT CONSENT_ID, PATIENT_ID, PROVIDER_ID, ACCESS_LEVEL, ALLOWED_DATA_TYPES,
		       PURPOSE, CURRENT_STATUS, CREATED_TIME, UPDATED_TIME, EXPIRY_TIME,
		       LEDGER_REFERENCE
		FROM CONSENT_RECORD
		WHERE PATIENT_ID = ?
		ORDER BY CREATED_TIME DESC
		LIMIT ? OFFSET ?
	`

	consents := []models.ConsentRecord{}
	err := dao.db.SelectContext(ctx, &consents, query, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}

	return consents, nil
}

// UpdateStatus transitions a consent record to a new status
func (dao *ConsentDAO) UpdateStatus(ctx context.Context, consentID, status string, updatedTime int64) error {
	query := `
		UPDATE CONSENT_RECORD
		SET CURRENT_STATUS = ?, UPDATED_TIME = ?
		WHERE CONSENT_ID = ?
	`

	result, err := dao.db.ExecContext(ctx, query, status, updatedTime, consentID)
	if err != nil {
		return fmt.Errorf("failed to update consent status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("consent not found: %s", consentID)
	}

	return nil
}

// SetLedgerReference links a consent record to its on-chain mirror
func (dao *ConsentDAO) SetLedgerReference(ctx context.Context, consentID, ledgerReference string, updatedTime int64) error {
	query := `
		UPDATE CONSENT_RECORD
		SET LEDGER_REFERENCE = ?, UPDATED_TIME = ?
		WHERE CONSENT_ID = ?
	`

	_, err := dao.db.ExecContext(ctx, query, ledgerReference, updatedTime, consentID)
	if err != nil {
		return fmt.Errorf("failed to set ledger reference: %w", err)
	}

	return nil
}

// ExpireOverdue marks approved or pending consents whose expiry has passed
// as expired and returns the number of rows transitioned.
func (dao *ConsentDAO) ExpireOverdue(ctx context.Context, now int64) (int64, error) {
	query := `
		UPDATE CONSENT_RECORD
		SET CURRENT_STATUS = ?, UPDATED_TIME = ?
		WHERE CURRENT_STATUS IN (?, ?) AND EXPIRY_TIME > 0 AND EXPIRY_TIME < ?
	`

	result, err := dao.db.ExecContext(ctx, query,
		models.ConsentStatusExpired, now,
		models.ConsentStatusPending, models.ConsentStatusApproved, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire consents: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check expire result: %w", err)
	}

	return rows, nil
}

// CreateStatusAudit appends a consent lifecycle audit row
func (dao *ConsentDAO) CreateStatusAudit(ctx context.Context, audit *models.ConsentStatusAudit) error {
	query := `
		INSERT INTO CONSENT_STATUS_AUDIT (
			STATUS_AUDIT_ID, CONSENT_ID, CURRENT_STATUS, PREVIOUS_STATUS,
			ACTION_TIME, ACTION_BY, REASON
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		audit.StatusAuditID,
		audit.ConsentID,
		audit.CurrentStatus,
		audit.PreviousStatus,
		audit.ActionTime,
		audit.ActionBy,
		audit.Reason,
	)

	if err != nil {
		return fmt.Errorf("failed to create status audit: %w", err)
	}

	return nil
}

// GetStatusAuditByConsentID retrieves the audit trail of a consent record
func (dao *ConsentDAO) GetStatusAuditByConsentID(ctx context.Context, consentID string) ([]models.ConsentStatusAudit, error) {
	query := `
		SELECT STATUS_AUDIT_ID, CONSENT_ID, CURRENT_STATUS, PREVIOUS_STATUS,
		       ACTION_TIME, ACTION_BY, REASON
		FROM CONSENT_STATUS_AUDIT
		WHERE CONSENT_ID = ?
		ORDER BY ACTION_TIME DESC
	`

	audits := []models.ConsentStatusAudit{}
	err := dao.db.SelectContext(ctx, &audits, query, consentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status audits: %w", err)
	}

	return audits, nil
}
