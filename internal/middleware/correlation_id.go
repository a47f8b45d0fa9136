package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/medivault/access-management-api/pkg/utils"
)

// CorrelationIDHeader is the header carrying the request correlation ID
const CorrelationIDHeader = "X-Correlation-ID"

type correlationIDKey struct{}

// ContextWithCorrelationID returns a context carrying the correlation ID for
// outbound clients.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFromContext returns the correlation ID carried by the context,
// if any.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	correlationID, ok := ctx.Value(correlationIDKey{}).(string)
	return correlationID, ok
}

// CorrelationID ensures every request carries a correlation ID, generating
// one when the caller did not supply it. The ID is echoed on the response and
// placed on the request context so outbound clients can forward it.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = utils.GenerateID()
		}

		c.Set("correlationID", correlationID)
		c.Request = c.Request.WithContext(ContextWithCorrelationID(c.Request.Context(), correlationID))
		c.Header(CorrelationIDHeader, correlationID)
		c.Next()
	}
}
