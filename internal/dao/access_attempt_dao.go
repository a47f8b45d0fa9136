package dao

import (
	"context"
	"fmt"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/models"
)

// AccessAttemptDAO handles the append-only audit trail. It deliberately
// exposes no update or delete operations.
type AccessAttemptDAO struct {
	db *database.DB
}

// NewAccessAttemptDAO creates a new AccessAttemptDAO instance
func NewAccessAttemptDAO(db *database.DB) *AccessAttemptDAO {
	return &AccessAttemptDAO{db: db}
}

// Append writes one audit row. Safe under concurrent writers; per-session
// ordering comes from the table's AUTO_INCREMENT sequence.
func (dao *AccessAttemptDAO) Append(ctx context.Context, attempt *models.AccessAttempt) error {
	query := `
		INSERT INTO ACCESS_ATTEMPT (
			ATTEMPT_ID, SESSION_ID, PROVIDER_ID, PATIENT_ID, FILE_ID,
			ACCESS_TYPE, ATTEMPT_TIME, SUCCESS, FAILURE_REASON, DATA_ACCESSED
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		attempt.AttemptID,
		attempt.SessionID,
		attempt.ProviderID,
		attempt.PatientID,
		attempt.FileID,
		attempt.AccessType,
		attempt.AttemptTime,
		attempt.Success,
		attempt.FailureReason,
		attempt.DataAccessed,
	)

	if err != nil {
		return fmt.Errorf("failed to append access attempt: %w", err)
	}

	return nil
}

// ListBySession retrieves a session's attempts in append order
func (dao *AccessAttemptDAO) ListBySession(ctx context.Context, sessionID string) ([]models.AccessAttempt, error) {
	query := `
		SELECT ATTEMPT_ID, SESSION_ID, PROVIDER_ID, PATIENT_ID, FILE_ID,
		       ACCESS_TYPE, ATTEMPT_TIME, SUCCESS, FAILURE_REASON, DATA_ACCESSED
		FROM ACCESS_ATTEMPT
		WHERE SESSION_ID = ?
		ORDER BY SEQ ASC
	`

	attempts := []models.AccessAttempt{}
	err := dao.db.SelectContext(ctx, &attempts, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, nil
}

// ListByProvider retrieves a provider's attempts, newest first
func (dao *AccessAttemptDAO) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]models.AccessAttempt, error) {
	query := `
		SELECT ATTEMPT_ID, SESSION_ID, PROVIDER_ID, PATIENT_ID, FILE_ID,
		       ACCESS_TYPE, ATTEMPT_TIME, SUCCESS, FAILURE_REASON, DATA_ACCESSED
		FROM ACCESS_ATTEMPT
		WHERE PROVIDER_ID = ?
		ORDER BY SEQ DESC
		LIMIT ? OFFSET ?
	`

	attempts := []models.AccessAttempt{}
	err := dao.db.SelectContext(ctx, &attempts, query, providerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, nil
}

// CountByProvider returns total, successful and failed attempt counts
func (dao *AccessAttemptDAO) CountByProvider(ctx context.Context, providerID string) (total int64, successful int64, failed int64, err error) {
	query := `
		SELECT COUNT(*) AS TOTAL,
		       COALESCE(SUM(SUCCESS), 0) AS SUCCESSFUL,
		       COUNT(*) - COALESCE(SUM(SUCCESS), 0) AS FAILED
		FROM ACCESS_ATTEMPT
		WHERE PROVIDER_ID = ?
	`

	row := dao.db.QueryRowxContext(ctx, query, providerID)
	if err := row.Scan(&total, &successful, &failed); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	return total, successful, failed, nil
}
