package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/service"
	"github.com/medivault/access-management-api/internal/utils"
)

// ConsentHandler handles consent-related HTTP requests
type ConsentHandler struct {
	consentService *service.ConsentService
}

// NewConsentHandler creates a new consent handler instance
func NewConsentHandler(consentService *service.ConsentService) *ConsentHandler {
	return &ConsentHandler{consentService: consentService}
}

// CreateConsent handles POST /consents
func (h *ConsentHandler) CreateConsent(c *gin.Context) {
	var request models.ConsentCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	consent, svcErr := h.consentService.CreateConsent(c.Request.Context(), &request)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendCreatedResponse(c, consent)
}

// GetConsent handles GET /consents/:consentId
func (h *ConsentHandler) GetConsent(c *gin.Context) {
	consent, svcErr := h.consentService.GetConsent(c.Request.Context(), c.Param("consentId"))
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, consent)
}

// ListPatientConsents handles GET /patients/:patientId/consents
func (h *ConsentHandler) ListPatientConsents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	consents, svcErr := h.consentService.ListPatientConsents(c.Request.Context(), c.Param("patientId"), limit, offset)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, gin.H{"consents": consents, "count": len(consents)})
}

// GetConsentAudit handles GET /consents/:consentId/audit
func (h *ConsentHandler) GetConsentAudit(c *gin.Context) {
	audits, svcErr := h.consentService.GetConsentAudit(c.Request.Context(), c.Param("consentId"))
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, gin.H{"audits": audits, "count": len(audits)})
}

// ApproveConsent handles POST /consents/:consentId/approve
func (h *ConsentHandler) ApproveConsent(c *gin.Context) {
	var request models.ConsentDecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	permission, svcErr := h.consentService.ApproveConsent(c.Request.Context(), c.Param("consentId"), &request)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, gin.H{"permission": permission})
}

// DenyConsent handles POST /consents/:consentId/deny
func (h *ConsentHandler) DenyConsent(c *gin.Context) {
	var request models.ConsentDecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	if svcErr := h.consentService.DenyConsent(c.Request.Context(), c.Param("consentId"), &request); svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendNoContentResponse(c)
}

// RevokeConsent handles POST /consents/:consentId/revoke
func (h *ConsentHandler) RevokeConsent(c *gin.Context) {
	var request models.ConsentDecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	if svcErr := h.consentService.RevokeConsent(c.Request.Context(), c.Param("consentId"), &request); svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendNoContentResponse(c)
}
