package models

import "fmt"

// FileRecord represents the FILE_RECORD table: the retrieval descriptor for
// one stored medical file. The underlying content is immutable once stored;
// the content hash alone identifies it on the storage network.
type FileRecord struct {
	FileID             string  `db:"FILE_ID" json:"fileId"`
	PatientID          string  `db:"PATIENT_ID" json:"patientId"`
	ContentHash        string  `db:"CONTENT_HASH" json:"contentHash"`
	FileName           string  `db:"FILE_NAME" json:"fileName"`
	MimeType           string  `db:"MIME_TYPE" json:"mimeType"`
	Size               int64   `db:"FILE_SIZE" json:"size"`
	DataType           string  `db:"DATA_TYPE" json:"dataType"`
	IsEncrypted        bool    `db:"IS_ENCRYPTED" json:"isEncrypted"`
	EncryptionSalt     *string `db:"ENCRYPTION_SALT" json:"encryptionSalt,omitempty"`
	EncryptionIV       *string `db:"ENCRYPTION_IV" json:"encryptionIv,omitempty"`
	EncryptionAuthTag  *string `db:"ENCRYPTION_AUTH_TAG" json:"encryptionAuthTag,omitempty"`
	OriginalSize       *int64  `db:"ORIGINAL_SIZE" json:"originalSize,omitempty"`
	Algorithm          *string `db:"ALGORITHM" json:"algorithm,omitempty"`
	OwnerWalletAddress *string `db:"OWNER_WALLET_ADDRESS" json:"ownerWalletAddress,omitempty"`
	CreatedTime        int64   `db:"CREATED_TIME" json:"createdTime"`
}

// FileRegisterRequest is the API request body for registering a stored file.
// The content itself already lives on the storage network; this records the
// retrieval descriptor.
type FileRegisterRequest struct {
	PatientID          string  `json:"patientId" binding:"required"`
	ContentHash        string  `json:"contentHash" binding:"required"`
	FileName           string  `json:"fileName" binding:"required"`
	MimeType           string  `json:"mimeType"`
	Size               int64   `json:"size"`
	DataType           string  `json:"dataType"`
	IsEncrypted        bool    `json:"isEncrypted"`
	EncryptionSalt     *string `json:"encryptionSalt,omitempty"`
	EncryptionIV       *string `json:"encryptionIv,omitempty"`
	EncryptionAuthTag  *string `json:"encryptionAuthTag,omitempty"`
	OriginalSize       *int64  `json:"originalSize,omitempty"`
	Algorithm          *string `json:"algorithm,omitempty"`
	OwnerWalletAddress *string `json:"ownerWalletAddress,omitempty"`
}

// FileDownloadResult carries one decrypted file back to the caller
type FileDownloadResult struct {
	File        *FileRecord `json:"file"`
	Data        []byte      `json:"-"`
	DownloadURL string      `json:"downloadUrl,omitempty"`
	AttemptID   string      `json:"attemptId"`
}

// EncryptionMetadata is the bundle the decryption engine requires. All fields
// are mandatory together when a record is encrypted.
type EncryptionMetadata struct {
	Salt         string `json:"salt"`
	IV           string `json:"iv"`
	AuthTag      string `json:"authTag"`
	OriginalSize int64  `json:"originalSize"`
	Algorithm    string `json:"algorithm"`
}

// EncryptionMetadata assembles the metadata bundle from the record columns.
// Returns an error naming the first missing field.
func (f *FileRecord) EncryptionMetadata() (*EncryptionMetadata, error) {
	if !f.IsEncrypted {
		return nil, fmt.Errorf("file %s is not encrypted", f.FileID)
	}
	if f.EncryptionSalt == nil || *f.EncryptionSalt == "" {
		return nil, fmt.Errorf("encryption salt is missing for file %s", f.FileID)
	}
	if f.EncryptionIV == nil || *f.EncryptionIV == "" {
		return nil, fmt.Errorf("encryption IV is missing for file %s", f.FileID)
	}
	if f.EncryptionAuthTag == nil || *f.EncryptionAuthTag == "" {
		return nil, fmt.Errorf("encryption auth tag is missing for file %s", f.FileID)
	}
	if f.Algorithm == nil || *f.Algorithm == "" {
		return nil, fmt.Errorf("encryption algorithm is missing for file %s", f.FileID)
	}

	meta := &EncryptionMetadata{
		Salt:      *f.EncryptionSalt,
		IV:        *f.EncryptionIV,
		AuthTag:   *f.EncryptionAuthTag,
		Algorithm: *f.Algorithm,
	}
	if f.OriginalSize != nil {
		meta.OriginalSize = *f.OriginalSize
	}
	return meta, nil
}
