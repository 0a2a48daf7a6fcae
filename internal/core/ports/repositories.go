package ports

import (
	"context"
	"errors"
	"time"

	"cashvault/internal/core/domain"

	"github.com/google/uuid"
)

// ErrAlreadyExists is returned by create operations that hit a uniqueness
// constraint, e.g. consuming the same payment ID twice.
var ErrAlreadyExists = errors.New("record already exists")

// Tx is one atomic unit of work against the durable store. Methods accepting
// a Tx run inside it; the caller commits or rolls back.
type Tx interface {
	Commit() error
	Rollback() error
}

// DBTransactor provides storage transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// WalletRepository defines persistence operations for wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	List(ctx context.Context) ([]domain.Wallet, error)
	// Update persists name, currency, type, theme, exchange rate and active flag.
	Update(ctx context.Context, wallet *domain.Wallet) error
	// UpdateBalances writes the cached balance/frozen mirror within a transaction.
	UpdateBalances(ctx context.Context, tx Tx, walletID uuid.UUID, balance, frozen int64) error
	SetActive(ctx context.Context, tx Tx, walletID uuid.UUID) error
	Delete(ctx context.Context, tx Tx, walletID uuid.UUID) error
}

// TransactionFilter narrows ListByWallet results.
type TransactionFilter struct {
	Types     []domain.TransactionType
	Method    *domain.Method
	From      *time.Time
	To        *time.Time
	Limit     int  // 0 = no limit
	Ascending bool // default newest first; ascending is the invariant-check order
}

// TransactionRepository defines persistence for the append-only ledger.
type TransactionRepository interface {
	// Create appends one ledger entry within a transaction and assigns its Seq.
	Create(ctx context.Context, tx Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, filter TransactionFilter) ([]domain.Transaction, error)
	ListAll(ctx context.Context) ([]domain.Transaction, error)
	// SumsByWallet replays the log in aggregate: signed balance total and
	// frozen total derived purely from the wallet's transactions.
	SumsByWallet(ctx context.Context, walletID uuid.UUID) (balance int64, frozen int64, err error)
	// UpdateInvoiceImage is the only permitted mutation of a written entry.
	UpdateInvoiceImage(ctx context.Context, id uuid.UUID, image *string) error
}

// DebtRepository defines persistence for debts and their payment links.
type DebtRepository interface {
	Create(ctx context.Context, debt *domain.Debt) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error)
	List(ctx context.Context, walletID *uuid.UUID) ([]domain.Debt, error)
	// AddPaymentLink appends a payment transaction reference within a transaction.
	AddPaymentLink(ctx context.Context, tx Tx, debtID, transactionID uuid.UUID, amount int64) error
	// UpdateAmounts persists remaining amount, status and write-off flag.
	UpdateAmounts(ctx context.Context, tx Tx, debt *domain.Debt) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConsumedPaymentRepository is the durable replay-protection set. Create must
// return ErrAlreadyExists when the payment ID was consumed before; it runs in
// the same transaction as the ledger appends it guards.
type ConsumedPaymentRepository interface {
	Create(ctx context.Context, tx Tx, cp *domain.ConsumedPayment) error
	Get(ctx context.Context, paymentID string) (*domain.ConsumedPayment, error)
}

// AuditRepository persists audit entries for mutating API calls.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// PinRepository stores the single device PIN hash.
type PinRepository interface {
	GetPinHash(ctx context.Context) (string, error) // empty string when unset
	SetPinHash(ctx context.Context, hash string) error
}
