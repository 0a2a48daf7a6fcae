package ports

import (
	"context"
	"time"

	"cashvault/internal/core/domain"

	"github.com/google/uuid"
)

// DraftTransaction is caller-supplied input for a ledger append. ID,
// timestamp and the balance stamps are assigned by the ledger, never by
// callers.
type DraftTransaction struct {
	Type       domain.TransactionType
	Amount     int64
	Sender     string
	Receiver   string
	Category   string
	CategoryID *string
	Method     domain.Method
}

// ReconcileResult reports a replay of a wallet's log from empty.
type ReconcileResult struct {
	WalletID    uuid.UUID `json:"wallet_id"`
	Balance     int64     `json:"balance"`
	FrozenTotal int64     `json:"frozen_total"`
	Drifted     bool      `json:"drifted"` // cached mirror disagreed and was repaired
}

// LedgerService is the ledger store plus balance engine: the only financial
// write path and the derived-balance read surface.
type LedgerService interface {
	Append(ctx context.Context, walletID uuid.UUID, draft DraftTransaction) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, filter TransactionFilter) ([]domain.Transaction, error)
	GetBalance(ctx context.Context, walletID uuid.UUID) (int64, error)
	GetFrozenTotal(ctx context.Context, walletID uuid.UUID) (int64, error)
	GetAvailable(ctx context.Context, walletID uuid.UUID) (int64, error)
	CanDebit(ctx context.Context, walletID uuid.UUID, amount int64, kind domain.TransactionType) (bool, error)
	Reconcile(ctx context.Context, walletID uuid.UUID) (*ReconcileResult, error)
	AttachInvoiceImage(ctx context.Context, transactionID uuid.UUID, image string) error
	RemoveInvoiceImage(ctx context.Context, transactionID uuid.UUID) error
}

// FreezeService manages the frozen sub-ledger of a wallet.
type FreezeService interface {
	Freeze(ctx context.Context, walletID uuid.UUID, amount int64) (*domain.Transaction, error)
	Unfreeze(ctx context.Context, walletID uuid.UUID, amount int64) (*domain.Transaction, error)
	SpendFromFrozen(ctx context.Context, walletID uuid.UUID, amount int64) (*domain.Transaction, error)
}

// TransferRequest holds validated input for an inter-wallet transfer.
// ExchangeRate is required when the wallet currencies differ; for
// same-currency transfers it must be nil or exactly 1.
type TransferRequest struct {
	SourceWalletID uuid.UUID
	DestWalletID   uuid.UUID
	Amount         int64 // debited from source, in source minor units
	ExchangeRate   *float64
}

// TransferResult holds both legs of a completed transfer.
type TransferResult struct {
	SourceTx *domain.Transaction `json:"source_tx"`
	DestTx   *domain.Transaction `json:"dest_tx"`
}

// TransferService coordinates the two-leg atomic movement between wallets.
type TransferService interface {
	ExecuteTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// CreateDebtRequest holds input for a new debt record.
type CreateDebtRequest struct {
	WalletID   uuid.UUID
	Type       domain.DebtType
	PersonName string
	Amount     int64
}

// DebtService maintains debt records cross-referencing ledger payments.
type DebtService interface {
	CreateDebt(ctx context.Context, req CreateDebtRequest) (*domain.Debt, error)
	// AddPayment links an existing ledger transaction as a payment against the debt.
	AddPayment(ctx context.Context, debtID, transactionID uuid.UUID, amount int64) (*domain.Debt, error)
	// MarkPaid is the explicit write-off escape hatch: remaining is zeroed
	// without a matching payment sum and the debt is flagged written off.
	MarkPaid(ctx context.Context, debtID uuid.UUID) (*domain.Debt, error)
	Get(ctx context.Context, debtID uuid.UUID) (*domain.Debt, error)
	List(ctx context.Context, walletID *uuid.UUID) ([]domain.Debt, error)
	Delete(ctx context.Context, debtID uuid.UUID) error
}

// PaymentCompletion is the ledger effect of consuming one confirmation.
// SendTx is nil when the paying side is not tracked on this device.
type PaymentCompletion struct {
	SendTx    *domain.Transaction `json:"send_tx,omitempty"`
	ReceiveTx *domain.Transaction `json:"receive_tx"`
}

// BusinessPaymentService implements the QR request/confirm protocol with
// replay protection keyed by payment ID.
type BusinessPaymentService interface {
	BuildRequest(ctx context.Context, merchantWalletID uuid.UUID, amount int64) (*domain.BusinessPaymentRequest, string, error)
	ParseConfirm(raw string) (*domain.BusinessPaymentConfirm, error)
	CompleteAsMerchant(ctx context.Context, confirm *domain.BusinessPaymentConfirm) (*PaymentCompletion, error)
	// Reject drops a pending request; terminal, no state retained.
	Reject(paymentID string) error
}

// CreateWalletRequest holds input for wallet creation.
type CreateWalletRequest struct {
	Name                    string
	Currency                string
	Type                    domain.WalletType
	Theme                   string
	ExchangeRateToReference *float64
}

// UpdateWalletRequest holds partial edits; nil fields are left unchanged.
type UpdateWalletRequest struct {
	Name                    *string
	Theme                   *string
	ExchangeRateToReference *float64
}

// WalletService manages wallet lifecycle.
type WalletService interface {
	Create(ctx context.Context, req CreateWalletRequest) (*domain.Wallet, error)
	Get(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	List(ctx context.Context) ([]domain.Wallet, error)
	Update(ctx context.Context, walletID uuid.UUID, req UpdateWalletRequest) (*domain.Wallet, error)
	SetActive(ctx context.Context, walletID uuid.UUID) error
	// Delete removes a wallet; if it was active, another wallet becomes
	// active. The last remaining wallet cannot be deleted.
	Delete(ctx context.Context, walletID uuid.UUID) error
}

// ExportService produces the read-only export snapshot.
type ExportService interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
}

// PinService is the local unlock gate. The core services contain no auth
// logic; handlers call this before dispatching mutations.
type PinService interface {
	SetPin(ctx context.Context, pin string) error
	VerifyPin(ctx context.Context, pin string) (bool, error)
	IsSet(ctx context.Context) (bool, error)
}

// TokenService issues and validates unlock session tokens.
type TokenService interface {
	Generate() (string, time.Time, error)
	Validate(tokenString string) error
}

// AuditService records mutating API calls.
type AuditService interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}
