package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/serviceerror"
)

// SendErrorResponse sends an error JSON response
func SendErrorResponse(c *gin.Context, statusCode int, errCode, message, details string) {
	c.JSON(statusCode, models.ErrorResponse{
		Code:    errCode,
		Message: message,
		Details: details,
	})
}

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendNoContentResponse sends a 204 No Content response
func SendNoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, message, details)
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeValidationError, "Validation failed", details)
}

// SendNotFoundError sends a 404 Not Found error
func SendNotFoundError(c *gin.Context, message string) {
	SendErrorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, message, "")
}

// SendInternalServerError sends a 500 Internal Server Error
func SendInternalServerError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, message, details)
}

// SendServiceError maps a service error onto the HTTP surface by kind
func SendServiceError(c *gin.Context, svcErr *serviceerror.ServiceError) {
	statusCode := http.StatusInternalServerError

	switch svcErr.Kind {
	case serviceerror.KindValidation:
		statusCode = http.StatusBadRequest
	case serviceerror.KindAccessDenied:
		statusCode = http.StatusForbidden
	case serviceerror.KindPayment:
		statusCode = http.StatusPaymentRequired
	case serviceerror.KindNotFound:
		statusCode = http.StatusNotFound
	case serviceerror.KindConflict:
		statusCode = http.StatusConflict
	case serviceerror.KindDecryptionKey, serviceerror.KindDecryptionIntegrity, serviceerror.KindDecryptionMetadata:
		statusCode = http.StatusUnprocessableEntity
	case serviceerror.KindCancelled:
		// Client closed request; 499 is the conventional nginx code.
		statusCode = 499
	case serviceerror.KindNetwork, serviceerror.KindLedger:
		statusCode = http.StatusBadGateway
	case serviceerror.KindTimeout:
		statusCode = http.StatusGatewayTimeout
	}

	SendErrorResponse(c, statusCode, svcErr.Code, svcErr.Error, svcErr.ErrorDescription)
}
