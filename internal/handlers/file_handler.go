package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medivault/access-management-api/internal/models"
	"github.com/medivault/access-management-api/internal/service"
	"github.com/medivault/access-management-api/internal/utils"
)

// FileHandler handles file record and download HTTP requests
type FileHandler struct {
	fileService *service.FileService
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

type downloadRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	KeySecret string `json:"keySecret"`
}

type batchDownloadRequest struct {
	SessionID string   `json:"sessionId" binding:"required"`
	FileIDs   []string `json:"fileIds" binding:"required"`
	KeySecret string   `json:"keySecret"`
}

// RegisterFile handles POST /files
func (h *FileHandler) RegisterFile(c *gin.Context) {
	var request models.FileRegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	file, svcErr := h.fileService.RegisterFile(c.Request.Context(), &request)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendCreatedResponse(c, file)
}

// GetFile handles GET /files/:fileId
func (h *FileHandler) GetFile(c *gin.Context) {
	file, svcErr := h.fileService.GetFile(c.Request.Context(), c.Param("fileId"))
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, file)
}

// ListPatientFiles handles GET /patients/:patientId/files
func (h *FileHandler) ListPatientFiles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	files, svcErr := h.fileService.ListPatientFiles(c.Request.Context(), c.Param("patientId"), limit, offset)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, gin.H{"files": files, "count": len(files)})
}

// DownloadFile handles POST /files/:fileId/download
func (h *FileHandler) DownloadFile(c *gin.Context) {
	var request downloadRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	result, svcErr := h.fileService.DownloadFile(c.Request.Context(), request.SessionID, c.Param("fileId"), request.KeySecret)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, result)
}

// DownloadFiles handles POST /files/download
func (h *FileHandler) DownloadFiles(c *gin.Context) {
	var request batchDownloadRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	result, svcErr := h.fileService.DownloadFiles(c.Request.Context(), request.SessionID, request.FileIDs, request.KeySecret, nil)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, result)
}

// GetCacheStats handles GET /files/cache/stats
func (h *FileHandler) GetCacheStats(c *gin.Context) {
	utils.SendOKResponse(c, h.fileService.CacheStats())
}

// ClearCache handles DELETE /files/cache
func (h *FileHandler) ClearCache(c *gin.Context) {
	h.fileService.ClearCache()
	utils.SendNoContentResponse(c)
}
