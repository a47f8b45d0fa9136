package payment

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
)

// Gateway settles per-access fees on the payment ledger. Amounts are
// denominated in the ledger's smallest native unit; no floating point
// crosses this boundary.
type Gateway struct {
	httpClient *http.Client
	config     *config.PaymentConfig
	logger     *logrus.Logger
}

// Transaction is the gateway's view of a payment
type Transaction struct {
	TransactionHash string `json:"transactionHash"`
	CurrentStatus   string `json:"status"`
	Amount          int64  `json:"amount"`
	ConfirmedTime   *int64 `json:"confirmedTime,omitempty"`
}

type processPaymentRequest struct {
	ProviderID string `json:"providerId"`
	PatientID  string `json:"patientId"`
	ResourceID string `json:"resourceId"`
	Amount     int64  `json:"amount"`
}

// NewGateway creates a new payment gateway client
func NewGateway(cfg *config.PaymentConfig, logger *logrus.Logger) *Gateway {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &Gateway{
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

// AccessFee returns the configured per-session fee
func (g *Gateway) AccessFee() int64 {
	return g.config.AccessFee
}

// ProcessAccessPayment initiates a payment and returns the resulting pending
// transaction. Settlement is asynchronous; callers must verify before
// treating the payment as complete.
func (g *Gateway) ProcessAccessPayment(ctx context.Context, providerID, patientID, resourceID string, amount int64) (*Transaction, error) {
	req := processPaymentRequest{
		ProviderID: providerID,
		PatientID:  patientID,
		ResourceID: resourceID,
		Amount:     amount,
	}

	var tx Transaction
	if err := g.post(ctx, "/payments", req, &tx); err != nil {
		return nil, err
	}

	g.logger.WithFields(logrus.Fields{
		"providerId": providerID,
		"patientId":  patientID,
		"amount":     amount,
		"txHash":     tx.TransactionHash,
	}).Info("Access payment initiated")

	return &tx, nil
}

// VerifyPaymentOnBlockchain checks a transaction hash against the ledger.
// Returns nil when the transaction does not exist.
func (g *Gateway) VerifyPaymentOnBlockchain(ctx context.Context, txHash, paymentRef string) (*Transaction, error) {
	url := fmt.Sprintf("%s/payments/%s?ref=%s", g.config.BaseURL, txHash, paymentRef)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment verification request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment response: %w", err)
	}

	return &tx, nil
}

func (g *Gateway) post(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read payment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to unmarshal payment response: %w", err)
		}
	}

	return nil
}

// Close closes the HTTP client connections
func (g *Gateway) Close() {
	if g.httpClient != nil {
		g.httpClient.CloseIdleConnections()
	}
}
