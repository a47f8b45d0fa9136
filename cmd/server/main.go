package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medivault/access-management-api/internal/config"
	"github.com/medivault/access-management-api/internal/dao"
	"github.com/medivault/access-management-api/internal/database"
	"github.com/medivault/access-management-api/internal/decryption"
	"github.com/medivault/access-management-api/internal/download"
	"github.com/medivault/access-management-api/internal/ledger"
	"github.com/medivault/access-management-api/internal/payment"
	"github.com/medivault/access-management-api/internal/retrieval"
	"github.com/medivault/access-management-api/internal/router"
	"github.com/medivault/access-management-api/internal/service"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_date": buildDate,
	}).Info("Starting Access Management API Server...")

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger.WithFields(logrus.Fields{
		"config_path": configPath,
		"log_level":   logger.GetLevel().String(),
	}).Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.Initialize(&cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		logger.WithError(err).Fatal("Database health check failed")
	}
	logger.Info("Database connection established successfully")

	// Initialize DAOs
	consentDAO := dao.NewConsentDAO(db)
	permissionDAO := dao.NewAccessPermissionDAO(db)
	sessionDAO := dao.NewAccessSessionDAO(db)
	attemptDAO := dao.NewAccessAttemptDAO(db)
	paymentDAO := dao.NewPaymentDAO(db)
	fileDAO := dao.NewFileRecordDAO(db)
	logger.Info("DAOs initialized successfully")

	// Initialize external clients
	ledgerClient := ledger.NewClient(&cfg.Ledger, logger)
	defer ledgerClient.Close()

	paymentGateway := payment.NewGateway(&cfg.Payment, logger)
	defer paymentGateway.Close()

	retrievalClient := retrieval.NewClient(&cfg.Storage, cfg.Download.MaxContentSize, logger)
	defer retrievalClient.Close()

	// Optional persistent block cache
	var blockstore download.Blockstore
	if cfg.Storage.BlockstorePath != "" {
		bs, err := retrieval.OpenBlockstore(cfg.Storage.BlockstorePath, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open blockstore")
		}
		defer bs.Close()
		blockstore = bs
	}

	// Download pipeline
	engine := decryption.NewEngine(logger)
	downloadManager := download.NewManager(retrievalClient, blockstore, engine, &cfg.Download, logger)

	// Initialize services
	accessService := service.NewAccessControlService(
		consentDAO,
		permissionDAO,
		sessionDAO,
		attemptDAO,
		paymentDAO,
		fileDAO,
		ledgerClient,
		paymentGateway,
		db,
		logger,
	)
	consentService := service.NewConsentService(consentDAO, ledgerClient, accessService, logger)
	fileService := service.NewFileService(fileDAO, accessService, downloadManager, logger)
	logger.Info("Services initialized successfully")

	// Periodic consent expiry sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if _, svcErr := consentService.ExpireOverdueConsents(sweepCtx); svcErr != nil {
					logger.WithField("error", svcErr.ErrorDescription).Warn("Consent expiry sweep failed")
				}
			}
		}
	}()

	ginRouter := router.SetupRouter(cfg, db, consentService, accessService, fileService)

	serverAddr := cfg.Server.GetServerAddress()
	server := &http.Server{
		Addr:           serverAddr,
		Handler:        ginRouter,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		logger.WithField("addr", serverAddr).Info("Starting HTTP server...")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited gracefully")
}
