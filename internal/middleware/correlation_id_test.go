package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCorrelationID_PropagatesSuppliedID tests that a caller-supplied ID is
// echoed on the response and lands on the request context for outbound calls
func TestCorrelationID_PropagatesSuppliedID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var fromContext string
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/ping", func(c *gin.Context) {
		id, ok := CorrelationIDFromContext(c.Request.Context())
		require.True(t, ok)
		fromContext = id
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(CorrelationIDHeader, "corr-123")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, "corr-123", fromContext)
	assert.Equal(t, "corr-123", recorder.Header().Get(CorrelationIDHeader))
}

// TestCorrelationID_GeneratesWhenMissing tests ID generation for bare requests
func TestCorrelationID_GeneratesWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var fromContext string
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/ping", func(c *gin.Context) {
		fromContext, _ = CorrelationIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.NotEmpty(t, fromContext)
	assert.Equal(t, fromContext, recorder.Header().Get(CorrelationIDHeader))
}
