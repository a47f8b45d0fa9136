package download

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medivault/access-management-api/internal/config"
	"github.com/medivault/access-management-api/internal/decryption"
	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/retrieval"
)

const testHash = "abcdef0123456789abcdef0123456789"

type fakeFetcher struct {
	calls int32
	fn    func(ctx context.Context, contentHash string) ([]byte, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, contentHash string) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fn(ctx, contentHash)
}

type fakeBlockstore struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeBlockstore() *fakeBlockstore {
	return &fakeBlockstore{store: make(map[string][]byte)}
}

func (b *fakeBlockstore) Get(contentHash string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.store[contentHash]
	return data, ok
}

func (b *fakeBlockstore) Put(contentHash string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store[contentHash] = data
}

func testManager(fetcher Fetcher, blockstore Blockstore) *Manager {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &config.DownloadConfig{
		MaxRetries:    3,
		BaseDelay:     time.Millisecond,
		CacheTTL:      time.Minute,
		CacheCapacity: 8,
		BatchWidth:    2,
	}
	m := NewManager(fetcher, blockstore, decryption.NewEngine(logger), cfg, logger)
	m.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return m
}

// TestDownloadFile_RetriesTransientFailures tests the attempt budget: three
// retries means four total attempts before giving up
func TestDownloadFile_RetriesTransientFailures(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return nil, &retrieval.NetworkError{ContentHash: hash, Err: fmt.Errorf("connection refused")}
	}}
	m := testManager(fetcher, nil)

	_, err := m.DownloadFile(context.Background(), testHash)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 4 attempts")
	assert.Equal(t, int32(4), atomic.LoadInt32(&fetcher.calls))
}

// TestDownloadFile_RecoversAfterTransientFailure tests that a mid-sequence
// success returns the content and stops retrying
func TestDownloadFile_RecoversAfterTransientFailure(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, hash string) ([]byte, error) {
		if atomic.LoadInt32(&fetcher.calls) < 3 {
			return nil, &retrieval.NetworkError{ContentHash: hash, Err: fmt.Errorf("timeout")}
		}
		return []byte("content"), nil
	}
	m := testManager(fetcher, nil)

	data, err := m.DownloadFile(context.Background(), testHash)

	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
	assert.Equal(t, int32(3), atomic.LoadInt32(&fetcher.calls))
}

// TestDownloadFile_NotFoundIsNotRetried tests that a missing hash fails
// immediately
func TestDownloadFile_NotFoundIsNotRetried(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return nil, fmt.Errorf("%w: %s", retrieval.ErrNotFound, hash)
	}}
	m := testManager(fetcher, nil)

	_, err := m.DownloadFile(context.Background(), testHash)

	require.ErrorIs(t, err, retrieval.ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
}

// TestDownloadFile_CancellationStopsRetries tests that a cancelled context
// aborts the backoff loop instead of burning the attempt budget
func TestDownloadFile_CancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		cancel()
		return nil, &retrieval.NetworkError{ContentHash: hash, Err: fmt.Errorf("reset")}
	}}
	m := testManager(fetcher, nil)

	_, err := m.DownloadFile(ctx, testHash)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
}

// TestDownloadFile_RejectsInvalidHash tests that placeholder hashes never
// reach the network
func TestDownloadFile_RejectsInvalidHash(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return []byte("content"), nil
	}}
	m := testManager(fetcher, nil)

	for _, hash := range []string{"", "pending", "local-12345678901234567890", "short"} {
		_, err := m.DownloadFile(context.Background(), hash)
		assert.Error(t, err, "hash %q should be rejected", hash)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))
}

// TestDownloadFile_MemoryCacheSkipsFetch tests that a repeat download is
// served from memory
func TestDownloadFile_MemoryCacheSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return []byte("content"), nil
	}}
	m := testManager(fetcher, nil)

	_, err := m.DownloadFile(context.Background(), testHash)
	require.NoError(t, err)
	data, err := m.DownloadFile(context.Background(), testHash)
	require.NoError(t, err)

	assert.Equal(t, []byte("content"), data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
	assert.Equal(t, int64(1), m.CacheStats().Hits)
}

// TestDownloadFile_BlockstoreTier tests that the disk tier serves misses
// without touching the network and promotes into memory
func TestDownloadFile_BlockstoreTier(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return nil, &retrieval.NetworkError{ContentHash: hash, Err: fmt.Errorf("unreachable")}
	}}
	bs := newFakeBlockstore()
	bs.Put(testHash, []byte("persisted"))
	m := testManager(fetcher, bs)

	data, err := m.DownloadFile(context.Background(), testHash)

	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), data)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))

	m.ClearCache()
	bs.mu.Lock()
	delete(bs.store, testHash)
	bs.mu.Unlock()
	// Memory was cleared along with the disk copy, so this hits the network.
	_, err = m.DownloadFile(context.Background(), testHash)
	assert.Error(t, err)
}

func encryptedRecord(t *testing.T, m *Manager, plaintext []byte, secret, hash string) *models.FileRecord {
	t.Helper()
	ciphertext, meta, err := m.engine.Encrypt(plaintext, secret, []byte("0123456789abcdef"), []byte("0123456789ab"))
	require.NoError(t, err)

	m.cache.put(hash, ciphertext)

	size := meta.OriginalSize
	return &models.FileRecord{
		FileID:            "file-" + hash[:8],
		PatientID:         "patient-1",
		ContentHash:       hash,
		IsEncrypted:       true,
		EncryptionSalt:    &meta.Salt,
		EncryptionIV:      &meta.IV,
		EncryptionAuthTag: &meta.AuthTag,
		OriginalSize:      &size,
		Algorithm:         &meta.Algorithm,
	}
}

// TestDownloadAndDecryptFile_RoundTrip tests the full path through cache and
// decryption
func TestDownloadAndDecryptFile_RoundTrip(t *testing.T) {
	m := testManager(&fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return nil, fmt.Errorf("%w: %s", retrieval.ErrNotFound, hash)
	}}, nil)
	file := encryptedRecord(t, m, []byte("scan results"), "secret", testHash)

	data, err := m.DownloadAndDecryptFile(context.Background(), file, "secret")

	require.NoError(t, err)
	assert.Equal(t, []byte("scan results"), data)
}

// TestDownloadAndDecryptFile_WrongKeyNotRetried tests that a decryption
// failure surfaces with its category and triggers no re-download
func TestDownloadAndDecryptFile_WrongKeyNotRetried(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return nil, &retrieval.NetworkError{ContentHash: hash, Err: fmt.Errorf("unreachable")}
	}}
	m := testManager(fetcher, nil)
	file := encryptedRecord(t, m, []byte("scan results"), "secret", testHash)

	_, err := m.DownloadAndDecryptFile(context.Background(), file, "not-the-secret")

	var decErr *decryption.Error
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, decryption.CategoryKey, decErr.Category)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))
}

// TestDownloadAndDecryptFile_Unencrypted tests the passthrough for plain
// content
func TestDownloadAndDecryptFile_Unencrypted(t *testing.T) {
	m := testManager(&fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return []byte("plain content"), nil
	}}, nil)
	file := &models.FileRecord{FileID: "file-1", ContentHash: testHash}

	data, err := m.DownloadAndDecryptFile(context.Background(), file, "")

	require.NoError(t, err)
	assert.Equal(t, []byte("plain content"), data)
}

// TestDownloadMultipleFiles_PartialFailure tests that a batch reports per
// file outcomes and one failure never aborts the rest
func TestDownloadMultipleFiles_PartialFailure(t *testing.T) {
	goodHash1 := "aaaa0123456789abcdef0123456789"
	goodHash2 := "bbbb0123456789abcdef0123456789"
	missingHash := "cccc0123456789abcdef0123456789"

	m := testManager(&fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		if hash == missingHash {
			return nil, fmt.Errorf("%w: %s", retrieval.ErrNotFound, hash)
		}
		return []byte("content-" + hash[:4]), nil
	}}, nil)

	files := []*models.FileRecord{
		{FileID: "file-1", ContentHash: goodHash1},
		{FileID: "file-2", ContentHash: missingHash},
		{FileID: "file-3", ContentHash: goodHash2},
	}

	var progressCalls int32
	var lastProgress atomic.Value
	result := m.DownloadMultipleFiles(context.Background(), files, "", func(completed, total int, progress float64) {
		atomic.AddInt32(&progressCalls, 1)
		lastProgress.Store(progress)
	})

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Results, 3)
	assert.Equal(t, []byte("content-aaaa"), result.Results["file-1"].Data)
	assert.Contains(t, result.Results["file-2"].Error, "not found")
	assert.Equal(t, []byte("content-bbbb"), result.Results["file-3"].Data)
	assert.Equal(t, int32(3), atomic.LoadInt32(&progressCalls))
	assert.Equal(t, 1.0, lastProgress.Load().(float64))
}

// TestDownloadMultipleFiles_Empty tests the empty batch
func TestDownloadMultipleFiles_Empty(t *testing.T) {
	m := testManager(&fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return nil, nil
	}}, nil)

	result := m.DownloadMultipleFiles(context.Background(), nil, "", nil)

	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 0, result.FailureCount)
	assert.Empty(t, result.Results)
}

// TestCreateDownloadURL tests data URL construction
func TestCreateDownloadURL(t *testing.T) {
	m := testManager(&fakeFetcher{fn: func(ctx context.Context, hash string) ([]byte, error) {
		return nil, nil
	}}, nil)

	url := m.CreateDownloadURL([]byte("hello"), "text/plain")
	assert.Equal(t, "data:text/plain;base64,aGVsbG8=", url)

	url = m.CreateDownloadURL([]byte("hello"), "")
	assert.Contains(t, url, "data:application/octet-stream;base64,")
}
