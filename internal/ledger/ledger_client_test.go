package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medivault/access-management-api/internal/config"
	"github.com/medivault/access-management-api/internal/middleware"
)

func testClient(baseURL string) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewClient(&config.LedgerConfig{BaseURL: baseURL}, logger)
}

// TestCreateConsentRequest tests request shape and on-chain ID extraction
func TestCreateConsentRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/consents", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "provider-1", req["providerId"])
		assert.Equal(t, "patient-1", req["patientId"])
		assert.Equal(t, "edit", req["accessLevel"])
		assert.Equal(t, float64(30), req["durationDays"])

		json.NewEncoder(w).Encode(map[string]string{"consentId": "LEDGER-REF-1"})
	}))
	defer server.Close()

	consentID, err := testClient(server.URL).CreateConsentRequest(
		context.Background(), "provider-1", "patient-1", "edit", 30, "treatment")

	require.NoError(t, err)
	assert.Equal(t, "LEDGER-REF-1", consentID)
}

// TestConsentActions tests the approve and revoke endpoints
func TestConsentActions(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/consents/LEDGER-REF-1/revoke" {
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "patient request", req["reason"])
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(server.URL)
	require.NoError(t, client.ApproveConsentRequest(context.Background(), "LEDGER-REF-1"))
	require.NoError(t, client.RevokeConsent(context.Background(), "LEDGER-REF-1", "patient request"))

	assert.Equal(t, []string{
		"/consents/LEDGER-REF-1/approve",
		"/consents/LEDGER-REF-1/revoke",
	}, paths)
}

// TestIsConsentValid tests validity parsing and non-2xx handling
func TestIsConsentValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/consents/LEDGER-REF-1/validity":
			json.NewEncoder(w).Encode(map[string]bool{"valid": true})
		case "/consents/LEDGER-REF-2/validity":
			json.NewEncoder(w).Encode(map[string]bool{"valid": false})
		default:
			http.Error(w, "ledger unavailable", http.StatusBadGateway)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)

	valid, err := client.IsConsentValid(context.Background(), "LEDGER-REF-1")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = client.IsConsentValid(context.Background(), "LEDGER-REF-2")
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = client.IsConsentValid(context.Background(), "LEDGER-REF-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

// TestGetConsentDetails tests the on-chain state read
func TestGetConsentDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/consents/LEDGER-REF-1", r.URL.Path)
		json.NewEncoder(w).Encode(ConsentDetails{
			ConsentID:   "LEDGER-REF-1",
			ProviderID:  "provider-1",
			PatientID:   "patient-1",
			AccessLevel: "edit",
			Active:      true,
		})
	}))
	defer server.Close()

	details, err := testClient(server.URL).GetConsentDetails(context.Background(), "LEDGER-REF-1")

	require.NoError(t, err)
	assert.Equal(t, "provider-1", details.ProviderID)
	assert.True(t, details.Active)
}

// TestCorrelationIDForwarded tests that a correlation ID carried by the
// context reaches the ledger gateway as a header
func TestCorrelationIDForwarded(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Get(middleware.CorrelationIDHeader)
		json.NewEncoder(w).Encode(map[string]bool{"valid": true})
	}))
	defer server.Close()

	ctx := middleware.ContextWithCorrelationID(context.Background(), "corr-123")
	_, err := testClient(server.URL).IsConsentValid(ctx, "LEDGER-REF-1")

	require.NoError(t, err)
	assert.Equal(t, "corr-123", received)
}

// TestLedgerUnreachable tests the wrapped transport error
func TestLedgerUnreachable(t *testing.T) {
	client := testClient("http://127.0.0.1:1")

	_, err := client.CreateConsentRequest(context.Background(), "p", "q", "view", 1, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger call failed")
}
