package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/models"
)

// AccessPermissionDAO handles database operations for access permissions
type AccessPermissionDAO struct {
	db *database.DB
}

// NewAccessPermissionDAO creates a new AccessPermissionDAO instance
func NewAccessPermissionDAO(db *database.DB) *AccessPermissionDAO {
	return &AccessPermissionDAO{db: db}
}

const permissionColumns = `
	PERMISSION_ID, PROVIDER_ID, PATIENT_ID, CONSENT_ID, ACCESS_LEVEL,
	ALLOWED_DATA_TYPES, GRANTED_TIME, EXPIRY_TIME, IS_ACTIVE, ACCESS_COUNT,
	LAST_ACCESSED_TIME`

// CreateWithTx inserts a new permission using a transaction. Used together
// with DeactivateForPairWithTx so supersession is atomic.
func (dao *AccessPermissionDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, permission *models.AccessPermission) error {
	query := `
		INSERT INTO ACCESS_PERMISSION (
			PERMISSION_ID, PROVIDER_ID, PATIENT_ID, CONSENT_ID, ACCESS_LEVEL,
			ALLOWED_DATA_TYPES, GRANTED_TIME, EXPIRY_TIME, IS_ACTIVE, ACCESS_COUNT,
			LAST_ACCESSED_TIME
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		permission.PermissionID,
		permission.ProviderID,
		permission.PatientID,
		permission.ConsentID,
		permission.AccessLevel,
		permission.AllowedDataTypes,
		permission.GrantedTime,
		permission.ExpiryTime,
		permission.IsActive,
		permission.AccessCount,
		permission.LastAccessedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create access permission: %w", err)
	}

	return nil
}

// DeactivateForPairWithTx deactivates any active permission for the given
// provider/patient pair. Returns the number of superseded rows.
func (dao *AccessPermissionDAO) DeactivateForPairWithTx(ctx context.Context, tx *database.Transaction, providerID, patientID string) (int64, error) {
	query := `
		UPDATE ACCESS_PERMISSION
		SET IS_ACTIVE = 0
		WHERE PROVIDER_ID = ? AND PATIENT_ID = ? AND IS_ACTIVE = 1
	`

	result, err := tx.ExecContext(ctx, query, providerID, patientID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate permissions for pair: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check deactivate result: %w", err)
	}

	return rows, nil
}

// GetByID retrieves a permission by ID
func (dao *AccessPermissionDAO) GetByID(ctx context.Context, permissionID string) (*models.AccessPermission, error) {
	query := `SELECT` + permissionColumns + `
		FROM ACCESS_PERMISSION
		WHERE PERMISSION_ID = ?
	`

	var permission models.AccessPermission
	err := dao.db.GetContext(ctx, &permission, query, permissionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("permission not found: %s", permissionID)
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}

	return &permission, nil
}

// GetActiveForPair retrieves the single active permission for a
// provider/patient pair, or nil when none exists.
func (dao *AccessPermissionDAO) GetActiveForPair(ctx context.Context, providerID, patientID string) (*models.AccessPermission, error) {
	query := `SELECT` + permissionColumns + `
		FROM ACCESS_PERMISSION
		WHERE PROVIDER_ID = ? AND PATIENT_ID = ? AND IS_ACTIVE = 1
	`

	var permission models.AccessPermission
	err := dao.db.GetContext(ctx, &permission, query, providerID, patientID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active permission: %w", err)
	}

	return &permission, nil
}

// GetByConsentID retrieves the permission derived from a consent record
func (dao *AccessPermissionDAO) GetByConsentID(ctx context.Context, consentID string) (*models.AccessPermission, error) {
	query := `SELECT` + permissionColumns + `
		FROM ACCESS_PERMISSION
		WHERE CONSENT_ID = ?
	`

	var permission models.AccessPermission
	err := dao.db.GetContext(ctx, &permission, query, consentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get permission by consent: %w", err)
	}

	return &permission, nil
}

// Deactivate flips a permission inactive. Idempotent at the storage layer.
func (dao *AccessPermissionDAO) Deactivate(ctx context.Context, permissionID string) error {
	query := `
		UPDATE ACCESS_PERMISSION
		SET IS_ACTIVE = 0
		WHERE PERMISSION_ID = ?
	`

	_, err := dao.db.ExecContext(ctx, query, permissionID)
	if err != nil {
		return fmt.Errorf("failed to deactivate permission: %w", err)
	}

	return nil
}

// RecordAccess increments the access counter and stamps the last access time
func (dao *AccessPermissionDAO) RecordAccess(ctx context.Context, permissionID string, accessedTime int64) error {
	query := `
		UPDATE ACCESS_PERMISSION
		SET ACCESS_COUNT = ACCESS_COUNT + 1, LAST_ACCESSED_TIME = ?
		WHERE PERMISSION_ID = ?
	`

	_, err := dao.db.ExecContext(ctx, query, accessedTime, permissionID)
	if err != nil {
		return fmt.Errorf("failed to record permission access: %w", err)
	}

	return nil
}

// ListByProvider retrieves permissions granted to a provider
func (dao *AccessPermissionDAO) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]models.AccessPermission, error) {
	query := `SELECT` + permissionColumns + `
		FROM ACCESS_PERMISSION
		WHERE PROVIDER_ID = ?
		ORDER BY GRANTED_TIME DESC
		LIMIT ? OFFSET ?
	`

	permissions := []models.AccessPermission{}
	err := dao.db.SelectContext(ctx, &permissions, query, providerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	return permissions, nil
}
