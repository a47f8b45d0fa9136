package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/models"
)

// AccessSessionDAO handles database operations for access sessions
type AccessSessionDAO struct {
	db *database.DB
}

// NewAccessSessionDAO creates a new AccessSessionDAO instance
func NewAccessSessionDAO(db *database.DB) *AccessSessionDAO {
	return &AccessSessionDAO{db: db}
}

const sessionColumns = `
	SESSION_ID, PROVIDER_ID, PATIENT_ID, PERMISSION_ID, STARTED_TIME,
	LAST_ACTIVITY_TIME, ENDED_TIME, IS_ACTIVE, FILES_ACCESSED,
	PAYMENT_TRANSACTION_ID`

// Create inserts a new access session
func (dao *AccessSessionDAO) Create(ctx context.Context, session *models.AccessSession) error {
	query := `
		INSERT INTO ACCESS_SESSION (
			SESSION_ID, PROVIDER_ID, PATIENT_ID, PERMISSION_ID, STARTED_TIME,
			LAST_ACTIVITY_TIME, ENDED_TIME, IS_ACTIVE, FILES_ACCESSED,
			PAYMENT_TRANSACTION_ID
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		session.SessionID,
		session.ProviderID,
		session.PatientID,
		session.PermissionID,
		session.StartedTime,
		session.LastActivityTime,
		session.EndedTime,
		session.IsActive,
		session.FilesAccessed,
		session.PaymentTransactionID,
	)

	if err != nil {
		return fmt.Errorf("failed to create access session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by ID
func (dao *AccessSessionDAO) GetByID(ctx context.Context, sessionID string) (*models.AccessSession, error) {
	query := `SELECT` + sessionColumns + `
		FROM ACCESS_SESSION
		WHERE SESSION_ID = ?
	`

	var session models.AccessSession
	err := dao.db.GetContext(ctx, &session, query, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not found: %s", sessionID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// RecordFileAccess updates the accessed-file set and activity stamp
func (dao *AccessSessionDAO) RecordFileAccess(ctx context.Context, sessionID string, filesAccessed models.StringSlice, activityTime int64) error {
	query := `
		UPDATE ACCESS_SESSION
		SET FILES_ACCESSED = ?, LAST_ACTIVITY_TIME = ?
		WHERE SESSION_ID = ?
	`

	_, err := dao.db.ExecContext(ctx, query, filesAccessed, activityTime, sessionID)
	if err != nil {
		return fmt.Errorf("failed to record file access: %w", err)
	}

	return nil
}

// End marks a session inactive and stamps the end time. The WHERE clause
// guards the first-write-wins rule: an already-ended session keeps its
// original ENDED_TIME. Returns whether a row actually transitioned.
func (dao *AccessSessionDAO) End(ctx context.Context, sessionID string, endedTime int64) (bool, error) {
	query := `
		UPDATE ACCESS_SESSION
		SET IS_ACTIVE = 0, ENDED_TIME = ?
		WHERE SESSION_ID = ? AND IS_ACTIVE = 1
	`

	result, err := dao.db.ExecContext(ctx, query, endedTime, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to end session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check end result: %w", err)
	}

	return rows > 0, nil
}

// EndAllForPermission ends every active session under a permission. Used by
// revocation, where sessions do not get to finish gracefully.
func (dao *AccessSessionDAO) EndAllForPermission(ctx context.Context, permissionID string, endedTime int64) (int64, error) {
	query := `
		UPDATE ACCESS_SESSION
		SET IS_ACTIVE = 0, ENDED_TIME = ?
		WHERE PERMISSION_ID = ? AND IS_ACTIVE = 1
	`

	result, err := dao.db.ExecContext(ctx, query, endedTime, permissionID)
	if err != nil {
		return 0, fmt.Errorf("failed to end sessions for permission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check end result: %w", err)
	}

	return rows, nil
}

// CountByProvider returns total and active session counts for a provider
func (dao *AccessSessionDAO) CountByProvider(ctx context.Context, providerID string) (total int64, active int64, err error) {
	query := `
		SELECT COUNT(*) AS TOTAL, COALESCE(SUM(IS_ACTIVE), 0) AS ACTIVE
		FROM ACCESS_SESSION
		WHERE PROVIDER_ID = ?
	`

	row := dao.db.QueryRowxContext(ctx, query, providerID)
	if err := row.Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return total, active, nil
}
