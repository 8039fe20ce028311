package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datasyncfood/datasync-worker/internal/auth"
	"github.com/datasyncfood/datasync-worker/internal/config"
	"github.com/datasyncfood/datasync-worker/internal/database"
	"github.com/datasyncfood/datasync-worker/internal/erp"
	"github.com/datasyncfood/datasync-worker/internal/logger"
	"github.com/datasyncfood/datasync-worker/internal/marketplace"
	"github.com/datasyncfood/datasync-worker/internal/repository"
	"github.com/datasyncfood/datasync-worker/internal/scheduler"
	"github.com/datasyncfood/datasync-worker/internal/server"
	"github.com/datasyncfood/datasync-worker/internal/syncer"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Debug); err != nil {
		return err
	}
	defer logger.Sync()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)

	logger.Log.Info("database connected")

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		return err
	}
	logger.Log.Info("migrations applied")

	// Initialize repositories
	companyRepo := repository.NewCompanyRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	pairingRepo := repository.NewTaskCompanyRepository(db)
	erpMirror := repository.NewERPMirrorRepository(db)
	mcMirror := repository.NewMarketplaceMirrorRepository(db)

	// Initialize provider clients. The token manager sits between the
	// clients and the credential store, so each side is wired to the
	// other after construction.
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	earlyExpiry := time.Duration(cfg.TokenEarlyExpirySeconds) * time.Second
	erpClient := erp.NewClient(cfg.ERPTokenURL, timeout, earlyExpiry)
	mcClient := marketplace.NewClient(cfg.MarketplaceBaseURL, timeout, earlyExpiry)

	tokenManager := auth.NewManager(companyRepo, erpClient, mcClient, timeout)
	erpClient.SetSource(tokenManager)
	mcClient.SetSource(tokenManager)

	sync := syncer.New(companyRepo, erpClient, mcClient, erpMirror, mcMirror,
		time.Duration(cfg.SettleDelaySeconds)*time.Second)

	// Start the task poller
	sched := scheduler.New(pairingRepo, sync, cfg.PollIntervalSeconds)
	if err := sched.Start(); err != nil {
		return err
	}

	// Start the management API
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(companyRepo, taskRepo, pairingRepo, erpClient).Routes(),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("http server shutdown failed", zap.Error(err))
		}

		// Let any in-flight synchronization run finish
		select {
		case <-sched.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Log.Warn("shutdown timeout exceeded")
		}

		logger.Log.Info("application stopped")
		return nil

	case err := <-errChan:
		return err
	}
}
