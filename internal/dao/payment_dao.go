package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/models"
)

// PaymentDAO handles database operations for payment transactions
type PaymentDAO struct {
	db *database.DB
}

// NewPaymentDAO creates a new PaymentDAO instance
func NewPaymentDAO(db *database.DB) *PaymentDAO {
	return &PaymentDAO{db: db}
}

const paymentColumns = `
	PAYMENT_ID, PROVIDER_ID, PATIENT_ID, PERMISSION_ID, AMOUNT,
	CURRENT_STATUS, TRANSACTION_HASH, CREATED_TIME, CONFIRMED_TIME`

// Create inserts a new payment transaction
func (dao *PaymentDAO) Create(ctx context.Context, payment *models.PaymentTransaction) error {
	query := `
		INSERT INTO PAYMENT_TRANSACTION (
			PAYMENT_ID, PROVIDER_ID, PATIENT_ID, PERMISSION_ID, AMOUNT,
			CURRENT_STATUS, TRANSACTION_HASH, CREATED_TIME, CONFIRMED_TIME
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		payment.PaymentID,
		payment.ProviderID,
		payment.PatientID,
		payment.PermissionID,
		payment.Amount,
		payment.CurrentStatus,
		payment.TransactionHash,
		payment.CreatedTime,
		payment.ConfirmedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a payment transaction by ID
func (dao *PaymentDAO) GetByID(ctx context.Context, paymentID string) (*models.PaymentTransaction, error) {
	query := `SELECT` + paymentColumns + `
		FROM PAYMENT_TRANSACTION
		WHERE PAYMENT_ID = ?
	`

	var payment models.PaymentTransaction
	err := dao.db.GetContext(ctx, &payment, query, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment not found: %s", paymentID)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

// GetPendingForPermission returns the pending payment for a permission, or
// nil when none exists. Callers reuse this instead of creating a duplicate
// payment for the same unconfirmed intent.
func (dao *PaymentDAO) GetPendingForPermission(ctx context.Context, permissionID string) (*models.PaymentTransaction, error) {
	query := `SELECT` + paymentColumns + `
		FROM PAYMENT_TRANSACTION
		WHERE PERMISSION_ID = ? AND CURRENT_STATUS = ?
		ORDER BY CREATED_TIME DESC
		LIMIT 1
	`

	var payment models.PaymentTransaction
	err := dao.db.GetContext(ctx, &payment, query, permissionID, models.PaymentStatusPending)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending payment: %w", err)
	}

	return &payment, nil
}

// GetByTransactionHash retrieves a payment by its on-chain hash
func (dao *PaymentDAO) GetByTransactionHash(ctx context.Context, txHash string) (*models.PaymentTransaction, error) {
	query := `SELECT` + paymentColumns + `
		FROM PAYMENT_TRANSACTION
		WHERE TRANSACTION_HASH = ?
	`

	var payment models.PaymentTransaction
	err := dao.db.GetContext(ctx, &payment, query, txHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment by hash: %w", err)
	}

	return &payment, nil
}

// UpdateStatus transitions a payment to a new status
func (dao *PaymentDAO) UpdateStatus(ctx context.Context, paymentID, status string, txHash *string, confirmedTime *int64) error {
	query := `
		UPDATE PAYMENT_TRANSACTION
		SET CURRENT_STATUS = ?, TRANSACTION_HASH = COALESCE(?, TRANSACTION_HASH), CONFIRMED_TIME = ?
		WHERE PAYMENT_ID = ?
	`

	result, err := dao.db.ExecContext(ctx, query, status, txHash, confirmedTime, paymentID)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment not found: %s", paymentID)
	}

	return nil
}

// SumConfirmedByProvider returns count and total amount of confirmed payments
func (dao *PaymentDAO) SumConfirmedByProvider(ctx context.Context, providerID string) (count int64, total int64, err error) {
	query := `
		SELECT COUNT(*) AS CNT, COALESCE(SUM(AMOUNT), 0) AS TOTAL
		FROM PAYMENT_TRANSACTION
		WHERE PROVIDER_ID = ? AND CURRENT_STATUS = ?
	`

	row := dao.db.QueryRowxContext(ctx, query, providerID, models.PaymentStatusConfirmed)
	if err := row.Scan(&count, &total); err != nil {
		return 0, 0, fmt.Errorf("failed to sum payments: %w", err)
	}

	return count, total, nil
}
