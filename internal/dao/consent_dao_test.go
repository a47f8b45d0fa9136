package dao

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/models"
)

func newMockDAO(t *testing.T) (*ConsentDAO, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	wrapped := database.NewFromDB(sqlx.NewDb(db, "sqlmock"), logger)
	return NewConsentDAO(wrapped), mock
}

var consentColumns = []string{
	"CONSENT_ID", "PATIENT_ID", "PROVIDER_ID", "ACCESS_LEVEL", "ALLOWED_DATA_TYPES",
	"PURPOSE", "CURRENT_STATUS", "CREATED_TIME", "UPDATED_TIME", "EXPIRY_TIME",
	"LEDGER_REFERENCE",
}

// TestConsentDAO_Create tests the insert statement and its bound values
func TestConsentDAO_Create(t *testing.T) {
	dao, mock := newMockDAO(t)

	consent := &models.ConsentRecord{
		ConsentID:        "CONSENT-1",
		PatientID:        "patient-1",
		ProviderID:       "provider-1",
		AccessLevel:      models.AccessLevelEdit,
		AllowedDataTypes: models.StringSlice{"lab-results"},
		Purpose:          "treatment",
		CurrentStatus:    models.ConsentStatusPending,
		CreatedTime:      1000,
		UpdatedTime:      1000,
		ExpiryTime:       2000,
	}

	mock.ExpectExec("INSERT INTO CONSENT_RECORD").
		WithArgs("CONSENT-1", "patient-1", "provider-1", models.AccessLevelEdit,
			`["lab-results"]`, "treatment", models.ConsentStatusPending,
			int64(1000), int64(1000), int64(2000), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := dao.Create(context.Background(), consent)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestConsentDAO_GetByID tests row scanning including the JSON-encoded
// data type list and the nullable ledger reference
func TestConsentDAO_GetByID(t *testing.T) {
	dao, mock := newMockDAO(t)

	rows := sqlmock.NewRows(consentColumns).
		AddRow("CONSENT-1", "patient-1", "provider-1", models.AccessLevelEdit,
			`["lab-results","imaging"]`, "treatment", models.ConsentStatusApproved,
			int64(1000), int64(1500), int64(2000), "LEDGER-REF-1")

	mock.ExpectQuery("SELECT (.+) FROM CONSENT_RECORD").
		WithArgs("CONSENT-1").
		WillReturnRows(rows)

	consent, err := dao.GetByID(context.Background(), "CONSENT-1")

	require.NoError(t, err)
	assert.Equal(t, "CONSENT-1", consent.ConsentID)
	assert.Equal(t, models.StringSlice{"lab-results", "imaging"}, consent.AllowedDataTypes)
	require.NotNil(t, consent.LedgerReference)
	assert.Equal(t, "LEDGER-REF-1", *consent.LedgerReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestConsentDAO_GetByID_NotFound tests the missing row error
func TestConsentDAO_GetByID_NotFound(t *testing.T) {
	dao, mock := newMockDAO(t)

	mock.ExpectQuery("SELECT (.+) FROM CONSENT_RECORD").
		WithArgs("CONSENT-X").
		WillReturnError(sql.ErrNoRows)

	_, err := dao.GetByID(context.Background(), "CONSENT-X")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "consent not found")
}

// TestConsentDAO_UpdateStatus tests the affected-rows check
func TestConsentDAO_UpdateStatus(t *testing.T) {
	dao, mock := newMockDAO(t)

	mock.ExpectExec("UPDATE CONSENT_RECORD").
		WithArgs(models.ConsentStatusApproved, int64(1500), "CONSENT-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := dao.UpdateStatus(context.Background(), "CONSENT-1", models.ConsentStatusApproved, 1500)
	assert.NoError(t, err)

	mock.ExpectExec("UPDATE CONSENT_RECORD").
		WithArgs(models.ConsentStatusApproved, int64(1500), "CONSENT-X").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = dao.UpdateStatus(context.Background(), "CONSENT-X", models.ConsentStatusApproved, 1500)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consent not found")
}

// TestConsentDAO_ExpireOverdue tests the sweep statement and its row count
func TestConsentDAO_ExpireOverdue(t *testing.T) {
	dao, mock := newMockDAO(t)

	mock.ExpectExec("UPDATE CONSENT_RECORD").
		WithArgs(models.ConsentStatusExpired, int64(5000),
			models.ConsentStatusPending, models.ConsentStatusApproved, int64(5000)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	expired, err := dao.ExpireOverdue(context.Background(), 5000)

	require.NoError(t, err)
	assert.Equal(t, int64(3), expired)
}

// TestConsentDAO_StatusAudit tests the audit insert and trail query
func TestConsentDAO_StatusAudit(t *testing.T) {
	dao, mock := newMockDAO(t)

	previous := models.ConsentStatusPending
	actionBy := "patient-1"
	audit := &models.ConsentStatusAudit{
		StatusAuditID:  "AUDIT-1",
		ConsentID:      "CONSENT-1",
		CurrentStatus:  models.ConsentStatusApproved,
		PreviousStatus: &previous,
		ActionTime:     1500,
		ActionBy:       &actionBy,
	}

	mock.ExpectExec("INSERT INTO CONSENT_STATUS_AUDIT").
		WithArgs("AUDIT-1", "CONSENT-1", models.ConsentStatusApproved,
			&previous, int64(1500), &actionBy, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, dao.CreateStatusAudit(context.Background(), audit))

	rows := sqlmock.NewRows([]string{
		"STATUS_AUDIT_ID", "CONSENT_ID", "CURRENT_STATUS", "PREVIOUS_STATUS",
		"ACTION_TIME", "ACTION_BY", "REASON",
	}).AddRow("AUDIT-1", "CONSENT-1", models.ConsentStatusApproved,
		models.ConsentStatusPending, int64(1500), "patient-1", nil)

	mock.ExpectQuery("SELECT (.+) FROM CONSENT_STATUS_AUDIT").
		WithArgs("CONSENT-1").
		WillReturnRows(rows)

	audits, err := dao.GetStatusAuditByConsentID(context.Background(), "CONSENT-1")

	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, models.ConsentStatusApproved, audits[0].CurrentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
