package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medivault/access-management-api/internal/config"
)

// ErrNotFound reports that the storage network does not hold content for the
// requested hash. It is informative, not transient: retrying cannot succeed.
var ErrNotFound = errors.New("content not found on storage network")

// NetworkError wraps transient transport failures so the download layer can
// classify them as retryable.
type NetworkError struct {
	ContentHash string
	Err         error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("storage network error for %s: %v", e.ContentHash, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a retrieval error may be retried. Only
// transport-class failures qualify; not-found and cancellation never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// Client fetches raw bytes by content hash from the storage network gateway.
// It is a single-shot primitive: retry, caching and backoff live in the
// download manager that wraps it.
type Client struct {
	httpClient     *http.Client
	gatewayURL     string
	maxContentSize int64
	logger         *logrus.Logger
}

// NewClient creates a new retrieval client
func NewClient(cfg *config.StorageConfig, maxContentSize int64, logger *logrus.Logger) *Client {
	timeout := 60 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		gatewayURL:     cfg.GatewayURL,
		maxContentSize: maxContentSize,
		logger:         logger,
	}
}

// Fetch retrieves the content for a hash. No existence round trip precedes
// the fetch; a 404 is itself the answer and surfaces as ErrNotFound,
// distinguished from transport failures for retry classification.
func (c *Client) Fetch(ctx context.Context, contentHash string) ([]byte, error) {
	url := fmt.Sprintf("%s/blocks/%s", c.gatewayURL, contentHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch request: %w", err)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		// Context cancellation propagates as-is so callers can tell a
		// user-initiated abort from a network fault.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"contentHash": contentHash,
			"duration":    duration,
		}).Warn("Storage network fetch failed")
		return nil, &NetworkError{ContentHash: contentHash, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contentHash)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &NetworkError{
			ContentHash: contentHash,
			Err:         fmt.Errorf("gateway returned status %d", resp.StatusCode),
		}
	}

	var reader io.Reader = resp.Body
	if c.maxContentSize > 0 {
		reader = io.LimitReader(resp.Body, c.maxContentSize+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{ContentHash: contentHash, Err: err}
	}

	if c.maxContentSize > 0 && int64(len(data)) > c.maxContentSize {
		return nil, fmt.Errorf("content %s exceeds maximum size of %d bytes", contentHash, c.maxContentSize)
	}

	c.logger.WithFields(logrus.Fields{
		"contentHash": contentHash,
		"size":        len(data),
		"duration":    duration,
	}).Debug("Content fetched from storage network")

	return data, nil
}

// Close closes the HTTP client connections
func (c *Client) Close() {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}
