package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/models"
)

// FileRecordDAO handles database operations for file retrieval descriptors
type FileRecordDAO struct {
	db *database.DB
}

// NewFileRecordDAO creates a new FileRecordDAO instance
func NewFileRecordDAO(db *database.DB) *FileRecordDAO {
	return &FileRecordDAO{db: db}
}

const fileColumns = `
	FILE_ID, PATIENT_ID, CONTENT_HASH, FILE_NAME, MIME_TYPE, FILE_SIZE,
	DATA_TYPE, IS_ENCRYPTED, ENCRYPTION_SALT, ENCRYPTION_IV,
	ENCRYPTION_AUTH_TAG, ORIGINAL_SIZE, ALGORITHM, OWNER_WALLET_ADDRESS,
	CREATED_TIME`

// Create inserts a new file record
func (dao *FileRecordDAO) Create(ctx context.Context, file *models.FileRecord) error {
	query := `
		INSERT INTO FILE_RECORD (
			FILE_ID, PATIENT_ID, CONTENT_HASH, FILE_NAME, MIME_TYPE, FILE_SIZE,
			DATA_TYPE, IS_ENCRYPTED, ENCRYPTION_SALT, ENCRYPTION_IV,
			ENCRYPTION_AUTH_TAG, ORIGINAL_SIZE, ALGORITHM, OWNER_WALLET_ADDRESS,
			CREATED_TIME
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		file.FileID,
		file.PatientID,
		file.ContentHash,
		file.FileName,
		file.MimeType,
		file.Size,
		file.DataType,
		file.IsEncrypted,
		file.EncryptionSalt,
		file.EncryptionIV,
		file.EncryptionAuthTag,
		file.OriginalSize,
		file.Algorithm,
		file.OwnerWalletAddress,
		file.CreatedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}

	return nil
}

// GetByID retrieves a file record by ID
func (dao *FileRecordDAO) GetByID(ctx context.Context, fileID string) (*models.FileRecord, error) {
	query := `SELECT` + fileColumns + `
		FROM FILE_RECORD
		WHERE FILE_ID = ?
	`

	var file models.FileRecord
	err := dao.db.GetContext(ctx, &file, query, fileID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("file not found: %s", fileID)
		}
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}

	return &file, nil
}

// ListByPatient retrieves file records owned by a patient
func (dao *FileRecordDAO) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]models.FileRecord, error) {
	query := `SELECT` + fileColumns + `
		FROM FILE_RECORD
		WHERE PATIENT_ID = ?
		ORDER BY CREATED_TIME DESC
		LIMIT ? OFFSET ?
	`

	files := []models.FileRecord{}
	err := dao.db.SelectContext(ctx, &files, query, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list file records: %w", err)
	}

	return files, nil
}
