package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cashvault/config"
	httpHandler "cashvault/internal/adapter/http/handler"
	"cashvault/internal/adapter/storage/sqlite"
	"cashvault/internal/core/ports"
	"cashvault/internal/service"
	"cashvault/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("addr", cfg.Server.Addr()).
		Str("storage", cfg.Storage.Path).
		Msg("Starting cashvault")

	ctx := context.Background()

	// Open the SQLite store (runs migrations)
	db, err := sqlite.Open(cfg.Storage.Path, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open SQLite store")
	}
	defer db.Close()
	log.Info().Msg("SQLite store ready")

	// Initialize repositories
	walletRepo := sqlite.NewWalletRepo(db)
	txRepo := sqlite.NewTransactionRepo(db)
	debtRepo := sqlite.NewDebtRepo(db)
	consumedRepo := sqlite.NewConsumedPaymentRepo(db)
	auditRepo := sqlite.NewAuditRepo(db)
	pinRepo := sqlite.NewPinRepo(db)

	// Session tokens live only as long as the process; an ephemeral secret is
	// fine when none is configured.
	secret := cfg.Session.Secret
	if secret == "" {
		secret = randomSecret()
		log.Info().Msg("No session secret configured, generated an ephemeral one")
	}

	// Initialize core services
	locks := service.NewWalletLocks()
	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, db, locks, log)
	freezeSvc := service.NewFreezeService(ledgerSvc, log)
	transferSvc := service.NewTransferService(walletRepo, db, ledgerSvc, locks, log)
	debtSvc := service.NewDebtService(debtRepo, txRepo, walletRepo, db, log)
	paymentSvc := service.NewBusinessPaymentService(walletRepo, consumedRepo, db, ledgerSvc, locks, cfg.Payments.RequestTTL, log)
	walletSvc := service.NewWalletService(walletRepo, db, log)
	exportSvc := service.NewExportService(walletRepo, txRepo, debtRepo, log)
	pinSvc := service.NewPinService(pinRepo)
	tokenSvc := service.NewJWTTokenService(secret, cfg.Session.Expiry, cfg.Session.Issuer)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Startup reconcile: verify every cached balance mirror against its log
	// and repair drift before serving requests.
	wallets, err := walletSvc.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list wallets for reconcile")
	}
	for i := range wallets {
		result, err := ledgerSvc.Reconcile(ctx, wallets[i].ID)
		if err != nil {
			log.Fatal().Err(err).Str("wallet_id", wallets[i].ID.String()).Msg("Reconcile failed")
		}
		if result.Drifted {
			log.Warn().
				Str("wallet_id", result.WalletID.String()).
				Int64("balance", result.Balance).
				Int64("frozen_total", result.FrozenTotal).
				Msg("Balance mirror drifted, repaired from log")
		}
	}
	log.Info().Int("wallets", len(wallets)).Msg("Startup reconcile complete")

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		LedgerSvc:      ledgerSvc,
		FreezeSvc:      freezeSvc,
		TransferSvc:    transferSvc,
		DebtSvc:        debtSvc,
		PaymentSvc:     paymentSvc,
		ExportSvc:      exportSvc,
		PinSvc:         pinSvc,
		TokenSvc:       tokenSvc,
		AuditSvc:       auditSvc,
		AuditRepo:      auditRepo,
		HealthCheckers: []ports.HealthChecker{db},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
