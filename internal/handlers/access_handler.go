package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/service"
	"github.com/medivault/access-management-api/internal/utils"
)

// AccessHandler handles access control HTTP requests
type AccessHandler struct {
	accessService *service.AccessControlService
}

// NewAccessHandler creates a new access handler instance
func NewAccessHandler(accessService *service.AccessControlService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

// CheckAccess handles GET /access/check
func (h *AccessHandler) CheckAccess(c *gin.Context) {
	result, svcErr := h.accessService.CheckAccess(
		c.Request.Context(),
		c.Query("providerId"),
		c.Query("patientId"),
		c.Query("accessLevel"),
	)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, result)
}

// StartSession handles POST /access/sessions
func (h *AccessHandler) StartSession(c *gin.Context) {
	var request models.StartSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	result, svcErr := h.accessService.StartAccessSession(c.Request.Context(), &request)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	// A payment-gated start answers 402 with the pending transaction to
	// settle, not an error body.
	if result.PaymentRequired {
		c.JSON(402, result)
		return
	}

	utils.SendCreatedResponse(c, result)
}

// AccessFile handles POST /access/sessions/:sessionId/files
func (h *AccessHandler) AccessFile(c *gin.Context) {
	var request models.AccessFileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	result, svcErr := h.accessService.AccessFile(c.Request.Context(), c.Param("sessionId"), &request)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, result)
}

// EndSession handles DELETE /access/sessions/:sessionId
func (h *AccessHandler) EndSession(c *gin.Context) {
	if svcErr := h.accessService.EndAccessSession(c.Request.Context(), c.Param("sessionId")); svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendNoContentResponse(c)
}

// RevokePermission handles POST /access/permissions/:permissionId/revoke
func (h *AccessHandler) RevokePermission(c *gin.Context) {
	var request models.ConsentDecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	if svcErr := h.accessService.RevokeAccess(c.Request.Context(), c.Param("permissionId"), request.Reason, request.ActionBy); svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendNoContentResponse(c)
}

// EmergencyAccess handles POST /access/emergency
func (h *AccessHandler) EmergencyAccess(c *gin.Context) {
	var request models.EmergencyAccessRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	attempt, svcErr := h.accessService.RecordEmergencyAccess(c.Request.Context(), &request)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendCreatedResponse(c, attempt)
}

// GetAccessHistory handles GET /access/providers/:providerId/history
func (h *AccessHandler) GetAccessHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	attempts, svcErr := h.accessService.GetAccessHistory(c.Request.Context(), c.Param("providerId"), limit, offset)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, gin.H{"attempts": attempts, "count": len(attempts)})
}

// GetProviderStats handles GET /access/providers/:providerId/stats
func (h *AccessHandler) GetProviderStats(c *gin.Context) {
	stats, svcErr := h.accessService.GetProviderStats(c.Request.Context(), c.Param("providerId"))
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, stats)
}
