package download

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/medivault/access-management-api/internal/config"
	"github.com/medivault/access-management-api/internal/decryption"
	"github.com/medivault/access-management-api/internal/metrics"
	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/retrieval"
	"github.com/medivault/access-management-api/pkg/utils"
)

// Fetcher retrieves raw bytes by content hash from the storage network
type Fetcher interface {
	Fetch(ctx context.Context, contentHash string) ([]byte, error)
}

// Blockstore is the optional persistent content cache tier
type Blockstore interface {
	Get(contentHash string) ([]byte, bool)
	Put(contentHash string, data []byte)
}

// FileResult is the outcome of one file in a batch download
type FileResult struct {
	FileID string `json:"fileId"`
	Data   []byte `json:"-"`
	Error  string `json:"error,omitempty"`
}

// BatchResult aggregates a multi-file download. A batch never fails fast:
// every file gets an individual outcome.
type BatchResult struct {
	Results      map[string]*FileResult `json:"results"`
	SuccessCount int                    `json:"successCount"`
	FailureCount int                    `json:"failureCount"`
}

// ProgressFunc receives batch progress as files complete. Progress is the
// completed fraction across all files.
type ProgressFunc func(completed, total int, progress float64)

// Manager orchestrates content retrieval: hash validation, the two cache
// tiers, bounded retries with exponential backoff, and decryption. The
// retrieval client underneath stays single-shot; all download policy lives
// here.
type Manager struct {
	fetcher    Fetcher
	blockstore Blockstore
	engine     *decryption.Engine
	cache      *contentCache
	config     *config.DownloadConfig
	logger     *logrus.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a new download manager. The blockstore may be nil, which
// disables the disk tier.
func NewManager(fetcher Fetcher, blockstore Blockstore, engine *decryption.Engine, cfg *config.DownloadConfig, logger *logrus.Logger) *Manager {
	return &Manager{
		fetcher:    fetcher,
		blockstore: blockstore,
		engine:     engine,
		cache:      newContentCache(cfg.CacheCapacity, cfg.CacheTTL),
		config:     cfg,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// DownloadFile retrieves the raw (possibly encrypted) bytes for a content
// hash. Lookup order is memory cache, disk blockstore, then the storage
// network with up to MaxRetries retries on transient failures. Only network
// faults are retried; not-found, cancellation and validation failures
// surface immediately.
func (m *Manager) DownloadFile(ctx context.Context, contentHash string) ([]byte, error) {
	if err := utils.ValidateContentHash(contentHash); err != nil {
		return nil, err
	}

	if data, ok := m.cache.get(contentHash); ok {
		metrics.CacheRequests.WithLabelValues("memory", "hit").Inc()
		return data, nil
	}
	metrics.CacheRequests.WithLabelValues("memory", "miss").Inc()

	if m.blockstore != nil {
		if data, ok := m.blockstore.Get(contentHash); ok {
			metrics.CacheRequests.WithLabelValues("disk", "hit").Inc()
			m.cache.put(contentHash, data)
			return data, nil
		}
		metrics.CacheRequests.WithLabelValues("disk", "miss").Inc()
	}

	startTime := time.Now()
	data, err := m.fetchWithRetry(ctx, contentHash)
	metrics.DownloadDuration.Observe(time.Since(startTime).Seconds())

	if err != nil {
		metrics.Downloads.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.Downloads.WithLabelValues("success").Inc()

	m.cache.put(contentHash, data)
	if m.blockstore != nil {
		m.blockstore.Put(contentHash, data)
	}

	return data, nil
}

// fetchWithRetry runs the single-shot fetch with exponential backoff. The
// attempt budget is MaxRetries+1 total attempts.
func (m *Manager) fetchWithRetry(ctx context.Context, contentHash string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= m.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := m.config.BaseDelay * time.Duration(1<<uint(attempt-1))
			m.logger.WithFields(logrus.Fields{
				"contentHash": contentHash,
				"attempt":     attempt,
				"delay":       delay,
			}).Info("Retrying download after transient failure")
			metrics.DownloadRetries.Inc()

			if err := m.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		data, err := m.fetcher.Fetch(ctx, contentHash)
		if err == nil {
			return data, nil
		}

		if !retrieval.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("download failed after %d attempts: %w", m.config.MaxRetries+1, lastErr)
}

// DownloadAndDecryptFile downloads a file record's content and, when the
// record is encrypted, decrypts it with the given key secret. Decryption
// failures are terminal and never retried.
func (m *Manager) DownloadAndDecryptFile(ctx context.Context, file *models.FileRecord, keySecret string) ([]byte, error) {
	data, err := m.DownloadFile(ctx, file.ContentHash)
	if err != nil {
		return nil, err
	}

	if !file.IsEncrypted {
		return data, nil
	}

	meta, err := file.EncryptionMetadata()
	if err != nil {
		metrics.DecryptionFailures.WithLabelValues(string(decryption.CategoryMetadata)).Inc()
		return nil, &decryption.Error{Category: decryption.CategoryMetadata, Err: err}
	}

	plaintext, err := m.engine.Decrypt(data, meta, keySecret)
	if err != nil {
		var decErr *decryption.Error
		if errors.As(err, &decErr) {
			metrics.DecryptionFailures.WithLabelValues(string(decErr.Category)).Inc()
		}
		return nil, err
	}

	// Size mismatch is advisory only: the authenticated tag already proved
	// the content, so a stale metadata row should not block access.
	if meta.OriginalSize > 0 && int64(len(plaintext)) != meta.OriginalSize {
		m.logger.WithFields(logrus.Fields{
			"fileId":       file.FileID,
			"expectedSize": meta.OriginalSize,
			"actualSize":   len(plaintext),
		}).Warn("Decrypted size does not match recorded original size")
	}

	return plaintext, nil
}

// DownloadMultipleFiles downloads and decrypts a set of files with bounded
// concurrency. Individual failures are recorded per file and do not abort
// the rest of the batch; only cancellation of the parent context stops
// remaining work.
func (m *Manager) DownloadMultipleFiles(ctx context.Context, files []*models.FileRecord, keySecret string, progress ProgressFunc) *BatchResult {
	result := &BatchResult{
		Results: make(map[string]*FileResult, len(files)),
	}
	if len(files) == 0 {
		return result
	}

	width := m.config.BatchWidth
	if width <= 0 {
		width = 1
	}

	type outcome struct {
		fileID string
		data   []byte
		err    error
	}
	outcomes := make(chan outcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(width)

	for _, file := range files {
		file := file
		g.Go(func() error {
			data, err := m.DownloadAndDecryptFile(gctx, file, keySecret)
			outcomes <- outcome{fileID: file.FileID, data: data, err: err}
			// Worker errors are collected per file, never returned, so the
			// group only stops on context cancellation.
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		completed := 0
		for o := range outcomes {
			fr := &FileResult{FileID: o.fileID}
			if o.err != nil {
				fr.Error = o.err.Error()
				result.FailureCount++
			} else {
				fr.Data = o.data
				result.SuccessCount++
			}
			result.Results[o.fileID] = fr

			completed++
			if progress != nil {
				progress(completed, len(files), float64(completed)/float64(len(files)))
			}
		}
		close(done)
	}()

	_ = g.Wait()
	close(outcomes)
	<-done

	m.logger.WithFields(logrus.Fields{
		"total":     len(files),
		"succeeded": result.SuccessCount,
		"failed":    result.FailureCount,
	}).Info("Batch download completed")

	return result
}

// CreateDownloadURL encodes content as a data URL for direct client delivery
func (m *Manager) CreateDownloadURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// CacheStats returns a snapshot of the in-memory cache counters
func (m *Manager) CacheStats() CacheStats {
	return m.cache.stats()
}

// ClearCache drops all in-memory cached content
func (m *Manager) ClearCache() {
	m.cache.clear()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
