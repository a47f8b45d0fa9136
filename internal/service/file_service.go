package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medivault/access-management-api/internal/decryption"
	"github.com/medivault/access-management-api/internal/download"
	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/retrieval"
	"github.com/medivault/access-management-api/internal/serviceerror"
	"github.com/medivault/access-management-api/pkg/utils"
)

// FileService registers file records and serves gated downloads. Every
// download runs through the access control service first; only a granted
// attempt reaches the storage network.
type FileService struct {
	files         FileStore
	accessControl *AccessControlService
	downloads     *download.Manager
	logger        *logrus.Logger
}

// NewFileService creates a new file service
func NewFileService(files FileStore, accessControl *AccessControlService, downloads *download.Manager, logger *logrus.Logger) *FileService {
	return &FileService{
		files:         files,
		accessControl: accessControl,
		downloads:     downloads,
		logger:        logger,
	}
}

// RegisterFile records the retrieval descriptor for content already stored on
// the storage network. An encrypted record must carry its full metadata
// bundle; this is checked at registration so downloads never discover a
// half-written record.
func (s *FileService) RegisterFile(ctx context.Context, req *models.FileRegisterRequest) (*models.FileRecord, *serviceerror.ServiceError) {
	if err := utils.ValidatePatientID(req.PatientID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateContentHash(req.ContentHash); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateRequired("fileName", req.FileName); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	file := &models.FileRecord{
		FileID:             utils.GenerateID(),
		PatientID:          req.PatientID,
		ContentHash:        req.ContentHash,
		FileName:           utils.SanitizeString(req.FileName),
		MimeType:           req.MimeType,
		Size:               req.Size,
		DataType:           req.DataType,
		IsEncrypted:        req.IsEncrypted,
		EncryptionSalt:     req.EncryptionSalt,
		EncryptionIV:       req.EncryptionIV,
		EncryptionAuthTag:  req.EncryptionAuthTag,
		OriginalSize:       req.OriginalSize,
		Algorithm:          req.Algorithm,
		OwnerWalletAddress: req.OwnerWalletAddress,
		CreatedTime:        utils.GetCurrentTimeMillis(),
	}

	if file.IsEncrypted {
		if _, err := file.EncryptionMetadata(); err != nil {
			return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
		}
	}

	if err := s.files.Create(ctx, file); err != nil {
		s.logger.WithError(err).Error("Failed to create file record")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to create file record")
	}

	s.logger.WithFields(logrus.Fields{
		"fileId":    file.FileID,
		"patientId": file.PatientID,
		"encrypted": file.IsEncrypted,
	}).Info("File record registered")

	return file, nil
}

// GetFile returns a file record by ID
func (s *FileService) GetFile(ctx context.Context, fileID string) (*models.FileRecord, *serviceerror.ServiceError) {
	if err := utils.ValidateRequired("fileId", fileID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("file %s not found", fileID))
	}
	return file, nil
}

// ListPatientFiles returns a patient's file records, newest first
func (s *FileService) ListPatientFiles(ctx context.Context, patientID string, limit, offset int) ([]models.FileRecord, *serviceerror.ServiceError) {
	if err := utils.ValidatePatientID(patientID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	files, err := s.files.ListByPatient(ctx, patientID, utils.ValidateLimit(limit), utils.ValidateOffset(offset))
	if err != nil {
		s.logger.WithError(err).Error("Failed to list file records")
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to list file records")
	}
	return files, nil
}

// DownloadFile gates, downloads and decrypts one file inside an active
// session. The access decision and its audit row happen before any network
// retrieval.
func (s *FileService) DownloadFile(ctx context.Context, sessionID, fileID, keySecret string) (*models.FileDownloadResult, *serviceerror.ServiceError) {
	granted, svcErr := s.accessControl.AccessFile(ctx, sessionID, &models.AccessFileRequest{
		FileID:     fileID,
		AccessType: models.AccessTypeDownload,
	})
	if svcErr != nil {
		return nil, svcErr
	}

	if err := utils.ValidateContentHash(granted.File.ContentHash); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	data, err := s.downloads.DownloadAndDecryptFile(ctx, granted.File, keySecret)
	if err != nil {
		return nil, mapDownloadError(err)
	}

	return &models.FileDownloadResult{
		File:        granted.File,
		Data:        data,
		DownloadURL: s.downloads.CreateDownloadURL(data, granted.File.MimeType),
		AttemptID:   granted.Attempt,
	}, nil
}

// DownloadFiles gates each requested file and downloads the granted set as
// one bounded-concurrency batch. Denied files are reported per file alongside
// download failures; a batch never fails as a whole.
func (s *FileService) DownloadFiles(ctx context.Context, sessionID string, fileIDs []string, keySecret string, progress download.ProgressFunc) (*download.BatchResult, *serviceerror.ServiceError) {
	if len(fileIDs) == 0 {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "at least one file ID is required")
	}

	result := &download.BatchResult{Results: make(map[string]*download.FileResult, len(fileIDs))}
	var grantedFiles []*models.FileRecord

	for _, fileID := range fileIDs {
		granted, svcErr := s.accessControl.AccessFile(ctx, sessionID, &models.AccessFileRequest{
			FileID:     fileID,
			AccessType: models.AccessTypeDownload,
		})
		if svcErr != nil {
			result.Results[fileID] = &download.FileResult{FileID: fileID, Error: svcErr.ErrorDescription}
			result.FailureCount++
			continue
		}
		grantedFiles = append(grantedFiles, granted.File)
	}

	batch := s.downloads.DownloadMultipleFiles(ctx, grantedFiles, keySecret, progress)
	for fileID, fr := range batch.Results {
		result.Results[fileID] = fr
	}
	result.SuccessCount += batch.SuccessCount
	result.FailureCount += batch.FailureCount

	return result, nil
}

// CacheStats returns the download manager's in-memory cache counters
func (s *FileService) CacheStats() download.CacheStats {
	return s.downloads.CacheStats()
}

// ClearCache drops the download manager's in-memory cache
func (s *FileService) ClearCache() {
	s.downloads.ClearCache()
}

// mapDownloadError translates download and decryption failures into the
// service error taxonomy.
func mapDownloadError(err error) *serviceerror.ServiceError {
	var decErr *decryption.Error
	if errors.As(err, &decErr) {
		switch decErr.Category {
		case decryption.CategoryIntegrity:
			return serviceerror.CustomServiceError(serviceerror.DecryptionIntegrityError, decErr.Err.Error())
		case decryption.CategoryMetadata:
			return serviceerror.CustomServiceError(serviceerror.DecryptionMetadataError, decErr.Err.Error())
		default:
			return serviceerror.CustomServiceError(serviceerror.DecryptionKeyError, decErr.Err.Error())
		}
	}

	switch {
	case errors.Is(err, retrieval.ErrNotFound):
		return serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, err.Error())
	case errors.Is(err, context.Canceled):
		return serviceerror.CustomServiceError(serviceerror.CancelledError, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return serviceerror.CustomServiceError(serviceerror.TimeoutError, err.Error())
	default:
		// Exhausted retries wrap the last transport fault, so everything
		// left is network-class.
		return serviceerror.CustomServiceError(serviceerror.NetworkError, err.Error())
	}
}
