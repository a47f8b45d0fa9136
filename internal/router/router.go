package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medivault/access-management-api/internal/config"
	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/handlers"
	"github.com/medivault/access-management-api/internal/middleware"
	"github.com/medivault/access-management-api/internal/service"
)

// SetupRouter configures all API routes
func SetupRouter(
	cfg *config.Config,
	db *database.DB,
	consentService *service.ConsentService,
	accessService *service.AccessControlService,
	fileService *service.FileService,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CorrelationID())
	if cfg.CORS.Enabled {
		router.Use(middleware.CORS(&cfg.CORS))
	}

	router.GET("/health", func(c *gin.Context) {
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy", "details": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "healthy"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	consentHandler := handlers.NewConsentHandler(consentService)
	accessHandler := handlers.NewAccessHandler(accessService)
	fileHandler := handlers.NewFileHandler(fileService)

	v1 := router.Group("/api/v1")
	{
		// Consent lifecycle routes
		consents := v1.Group("/consents")
		{
			consents.POST("", consentHandler.CreateConsent)
			consents.GET("/:consentId", consentHandler.GetConsent)
			consents.GET("/:consentId/audit", consentHandler.GetConsentAudit)
			consents.POST("/:consentId/approve", consentHandler.ApproveConsent)
			consents.POST("/:consentId/deny", consentHandler.DenyConsent)
			consents.POST("/:consentId/revoke", consentHandler.RevokeConsent)
		}

		// Access control routes
		access := v1.Group("/access")
		{
			access.GET("/check", accessHandler.CheckAccess)
			access.POST("/sessions", accessHandler.StartSession)
			access.POST("/sessions/:sessionId/files", accessHandler.AccessFile)
			access.DELETE("/sessions/:sessionId", accessHandler.EndSession)
			access.POST("/permissions/:permissionId/revoke", accessHandler.RevokePermission)
			access.POST("/emergency", accessHandler.EmergencyAccess)
			access.GET("/providers/:providerId/history", accessHandler.GetAccessHistory)
			access.GET("/providers/:providerId/stats", accessHandler.GetProviderStats)
		}

		// File record and download routes
		files := v1.Group("/files")
		{
			files.POST("", fileHandler.RegisterFile)
			files.POST("/download", fileHandler.DownloadFiles)
			files.GET("/cache/stats", fileHandler.GetCacheStats)
			files.DELETE("/cache", fileHandler.ClearCache)
			files.GET("/:fileId", fileHandler.GetFile)
			files.POST("/:fileId/download", fileHandler.DownloadFile)
		}

		// Patient-scoped listings
		patients := v1.Group("/patients")
		{
			patients.GET("/:patientId/consents", consentHandler.ListPatientConsents)
			patients.GET("/:patientId/files", fileHandler.ListPatientFiles)
		}
	}

	return router
}
