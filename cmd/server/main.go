// Package main initializes and starts the TenderBoard sync and audit
// server, setting up configuration, logging, file-backed repositories,
// services, and HTTP handlers.
package main

import (
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/tenderboard/tenderboard/internal/config"
	"github.com/tenderboard/tenderboard/internal/logger"
	"github.com/tenderboard/tenderboard/internal/repository"
	"github.com/tenderboard/tenderboard/internal/server/handler/http"
	"github.com/tenderboard/tenderboard/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// orDefault returns s, or def if s is empty. It matches cmp.Or for
// strings; cmp.Or itself needs Go 1.22 and this build runs on 1.21.
func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.Port
	dataDir := options.DataDir

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", orDefault(version, "N/A"))
	fmt.Printf("Build date: %s\n", orDefault(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize file-backed repositories under the data directory.
	snapshotRepo, err := repository.NewFileSnapshotRepository(dataDir)
	if err != nil {
		zapLogger.Fatal("cannot init snapshot store", zap.Error(err))
	}
	auditRepo, err := repository.NewFileAuditRepository(dataDir)
	if err != nil {
		zapLogger.Fatal("cannot init audit store", zap.Error(err))
	}
	fileRepo, err := repository.NewFileRepository(dataDir)
	if err != nil {
		zapLogger.Fatal("cannot init file store", zap.Error(err))
	}

	// Initialize business-logic services.
	syncService := service.NewSyncService(snapshotRepo)
	auditService, err := service.NewAuditService(auditRepo)
	if err != nil {
		zapLogger.Fatal("cannot load audit log", zap.Error(err))
	}
	fileService := service.NewFileService(fileRepo)
	presence := service.NewPresenceTracker()

	// Sweep idle sessions between requests as well.
	service.StartSweeper(context.Background(), presence, time.Minute, zapLogger)

	// Create HTTP handlers for the sync, changelog, presence, and file
	// endpoints.
	syncHandler := &http.SyncHandler{SyncService: syncService, Log: zapLogger}
	changelogHandler := &http.ChangelogHandler{AuditService: auditService, Log: zapLogger}
	presenceHandler := &http.PresenceHandler{Registry: presence}
	filesHandler := &http.FilesHandler{FileService: fileService, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(syncHandler, changelogHandler, presenceHandler, filesHandler, zapLogger)

	// Create and start the HTTP server. Identity is supplied by the
	// dashboard clients, not verified here; deployments needing TLS or
	// auth put a proxy in front.
	server := &nethttp.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	zapLogger.Info("starting HTTP server",
		zap.String("addr", addr),
		zap.String("dataDir", dataDir),
	)
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
