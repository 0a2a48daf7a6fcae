package handler

import (
	"cashvault/internal/adapter/http/middleware"
	"cashvault/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	LedgerSvc      ports.LedgerService
	FreezeSvc      ports.FreezeService
	TransferSvc    ports.TransferService
	DebtSvc        ports.DebtService
	PaymentSvc     ports.BusinessPaymentService
	ExportSvc      ports.ExportService
	PinSvc         ports.PinService
	TokenSvc       ports.TokenService
	AuditSvc       ports.AuditService      // nil = audit logging disabled
	AuditRepo      ports.AuditRepository   // nil = audit trail endpoint disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (verifies the SQLite store)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (the unlock gate itself) ---
	unlockHandler := NewUnlockHandler(deps.PinSvc, deps.TokenSvc)
	unlock := v1.Group("/unlock")
	{
		unlock.GET("/status", unlockHandler.Status)
		unlock.POST("/setup", unlockHandler.Setup)
		unlock.POST("", unlockHandler.Unlock)
	}

	// --- Unlock-gated routes (everything touching wallet state) ---
	gate := middleware.UnlockRequired(deps.PinSvc, deps.TokenSvc, deps.Logger)

	walletHandler := NewWalletHandler(deps.WalletSvc, deps.LedgerSvc)
	txnHandler := NewTransactionHandler(deps.LedgerSvc)
	freezeHandler := NewFreezeHandler(deps.FreezeSvc)

	wallets := v1.Group("/wallets", gate)
	{
		wallets.POST("", walletHandler.Create)
		wallets.GET("", walletHandler.List)
		wallets.GET("/:id", walletHandler.Get)
		wallets.PUT("/:id", walletHandler.Update)
		wallets.POST("/:id/activate", walletHandler.Activate)
		wallets.DELETE("/:id", walletHandler.Delete)
		wallets.GET("/:id/balance", walletHandler.GetBalance)
		wallets.POST("/:id/reconcile", walletHandler.Reconcile)

		wallets.POST("/:id/transactions", txnHandler.Append)
		wallets.GET("/:id/transactions", txnHandler.List)

		wallets.POST("/:id/freeze", freezeHandler.Freeze)
		wallets.POST("/:id/unfreeze", freezeHandler.Unfreeze)
		wallets.POST("/:id/freeze/spend", freezeHandler.SpendFromFrozen)
	}

	transactions := v1.Group("/transactions", gate)
	{
		transactions.PUT("/:id/invoice-image", txnHandler.AttachInvoiceImage)
		transactions.DELETE("/:id/invoice-image", txnHandler.RemoveInvoiceImage)
	}

	transferHandler := NewTransferHandler(deps.TransferSvc)
	v1.POST("/transfers", gate, transferHandler.Execute)

	debtHandler := NewDebtHandler(deps.DebtSvc)
	debts := v1.Group("/debts", gate)
	{
		debts.POST("", debtHandler.Create)
		debts.GET("", debtHandler.List)
		debts.GET("/:id", debtHandler.Get)
		debts.POST("/:id/payments", debtHandler.AddPayment)
		debts.POST("/:id/mark-paid", debtHandler.MarkPaid)
		debts.DELETE("/:id", debtHandler.Delete)
	}

	paymentHandler := NewBusinessPaymentHandler(deps.PaymentSvc)
	payments := v1.Group("/business-payments", gate)
	{
		payments.POST("/request", paymentHandler.BuildRequest)
		payments.POST("/confirm", paymentHandler.Confirm)
		payments.POST("/reject", paymentHandler.Reject)
	}

	exportHandler := NewExportHandler(deps.ExportSvc)
	v1.GET("/export", gate, exportHandler.Snapshot)

	if deps.AuditRepo != nil {
		auditHandler := NewAuditHandler(deps.AuditRepo)
		v1.GET("/audit", gate, auditHandler.ListRecent)
	}

	return r
}
