package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medivault/access-management-api/internal/config"
	"github.com/medivault/access-management-api/internal/middleware"
)

// Client is a thin adapter over the distributed consent ledger. It only
// confirms or refreshes state; access decisions stay local. The ledger is
// eventually consistent, so callers re-validate instead of trusting cached
// local copies indefinitely.
type Client struct {
	httpClient *http.Client
	config     *config.LedgerConfig
	logger     *logrus.Logger
}

// ConsentDetails is the on-chain view of a consent record
type ConsentDetails struct {
	ConsentID    string `json:"consentId"`
	ProviderID   string `json:"providerId"`
	PatientID    string `json:"patientId"`
	AccessLevel  string `json:"accessLevel"`
	DurationDays int    `json:"durationDays"`
	CreatedTime  int64  `json:"createdTime"`
	Active       bool   `json:"active"`
}

type createConsentRequest struct {
	ProviderID   string `json:"providerId"`
	PatientID    string `json:"patientId"`
	AccessLevel  string `json:"accessLevel"`
	DurationDays int    `json:"durationDays"`
	Purpose      string `json:"purpose"`
}

type createConsentResponse struct {
	ConsentID string `json:"consentId"`
}

type consentActionRequest struct {
	Reason string `json:"reason,omitempty"`
}

type consentValidityResponse struct {
	Valid bool `json:"valid"`
}

// NewClient creates a new ledger client instance
func NewClient(cfg *config.LedgerConfig, logger *logrus.Logger) *Client {
	timeout := 30 * time.Second
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
		config: cfg,
		logger: logger,
	}
}

// CreateConsentRequest registers a new consent on the ledger and returns the
// on-chain consent ID. The record stays pending until block-confirmed.
func (c *Client) CreateConsentRequest(ctx context.Context, providerID, patientID, accessLevel string, durationDays int, purpose string) (string, error) {
	req := createConsentRequest{
		ProviderID:   providerID,
		PatientID:    patientID,
		AccessLevel:  accessLevel,
		DurationDays: durationDays,
		Purpose:      purpose,
	}

	var resp createConsentResponse
	if err := c.post(ctx, "/consents", req, &resp); err != nil {
		return "", err
	}

	c.logger.WithFields(logrus.Fields{
		"consentId":  resp.ConsentID,
		"providerId": providerID,
		"patientId":  patientID,
	}).Info("Consent request registered on ledger")

	return resp.ConsentID, nil
}

// ApproveConsentRequest approves a pending consent on the ledger
func (c *Client) ApproveConsentRequest(ctx context.Context, consentID string) error {
	return c.post(ctx, fmt.Sprintf("/consents/%s/approve", consentID), consentActionRequest{}, nil)
}

// RevokeConsent revokes a consent on the ledger
func (c *Client) RevokeConsent(ctx context.Context, consentID, reason string) error {
	return c.post(ctx, fmt.Sprintf("/consents/%s/revoke", consentID), consentActionRequest{Reason: reason}, nil)
}

// IsConsentValid checks whether a consent is currently valid on-chain
func (c *Client) IsConsentValid(ctx context.Context, consentID string) (bool, error) {
	var resp consentValidityResponse
	if err := c.get(ctx, fmt.Sprintf("/consents/%s/validity", consentID), &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// GetConsentDetails reads a consent's on-chain state
func (c *Client) GetConsentDetails(ctx context.Context, consentID string) (*ConsentDetails, error) {
	var details ConsentDetails
	if err := c.get(ctx, fmt.Sprintf("/consents/%s", consentID), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// post executes a JSON POST against the ledger gateway
func (c *Client) post(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create ledger request: %w", err)
	}

	return c.execute(req, out)
}

// get executes a JSON GET against the ledger gateway
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create ledger request: %w", err)
	}

	return c.execute(req, out)
}

func (c *Client) execute(req *http.Request, out interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if correlationID, ok := middleware.CorrelationIDFromContext(req.Context()); ok {
		req.Header.Set(middleware.CorrelationIDHeader, correlationID)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url":      req.URL.String(),
			"duration": duration,
		}).Error("Ledger call failed")
		return fmt.Errorf("ledger call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read ledger response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"statusCode": resp.StatusCode,
		"duration":   duration,
		"url":        req.URL.String(),
	}).Debug("Ledger response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ledger returned status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to unmarshal ledger response: %w", err)
		}
	}

	return nil
}

// Close closes the HTTP client connections
func (c *Client) Close() {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}
