package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeSend        TransactionType = "send"
	TransactionTypeReceive     TransactionType = "receive"
	TransactionTypeFreeze      TransactionType = "freeze"
	TransactionTypeUnfreeze    TransactionType = "unfreeze"
	TransactionTypeFreezeSpend TransactionType = "freeze_spend"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeTransferIn  TransactionType = "transfer_in"

	TransactionTypeBusinessPaymentSend    TransactionType = "business_payment_send"
	TransactionTypeBusinessPaymentReceive TransactionType = "business_payment_receive"
)

// Method records how a transaction was captured.
type Method string

const (
	MethodManual Method = "MANUAL"
	MethodQR     Method = "QR"
)

// Transaction is an immutable ledger entry. Once appended, only the invoice
// image reference (a non-financial field) may change; corrections are new
// offsetting entries.
type Transaction struct {
	ID       uuid.UUID       `json:"id"`
	Seq      int64           `json:"seq"` // storage-assigned, breaks timestamp ties
	WalletID uuid.UUID       `json:"wallet_id"`
	Type     TransactionType `json:"type"`
	Amount   int64           `json:"amount"` // minor units, always > 0

	// Stamped by the ledger append path, never by callers. Read in log order
	// these form a telescoping sequence per wallet.
	BalanceBefore int64 `json:"balance_before"`
	BalanceAfter  int64 `json:"balance_after"`

	Sender       string  `json:"sender,omitempty"`
	Receiver     string  `json:"receiver,omitempty"`
	Category     string  `json:"category,omitempty"`
	CategoryID   *string `json:"category_id,omitempty"`
	Method       Method  `json:"method"`
	InvoiceImage *string `json:"invoice_image,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ValidTransactionType reports whether t is one of the known movement kinds.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeSend, TransactionTypeReceive,
		TransactionTypeFreeze, TransactionTypeUnfreeze, TransactionTypeFreezeSpend,
		TransactionTypeTransferOut, TransactionTypeTransferIn,
		TransactionTypeBusinessPaymentSend, TransactionTypeBusinessPaymentReceive:
		return true
	}
	return false
}

// BalanceDelta returns the signed effect of t on the wallet's total balance.
// freeze and unfreeze move funds between the available and frozen sub-ledgers
// of the same wallet, so they are neutral here.
func (t TransactionType) BalanceDelta(amount int64) int64 {
	switch t {
	case TransactionTypeReceive, TransactionTypeTransferIn, TransactionTypeBusinessPaymentReceive:
		return amount
	case TransactionTypeSend, TransactionTypeFreezeSpend, TransactionTypeTransferOut, TransactionTypeBusinessPaymentSend:
		return -amount
	default:
		return 0
	}
}

// FrozenDelta returns the signed effect of t on the wallet's frozen total.
func (t TransactionType) FrozenDelta(amount int64) int64 {
	switch t {
	case TransactionTypeFreeze:
		return amount
	case TransactionTypeUnfreeze, TransactionTypeFreezeSpend:
		return -amount
	default:
		return 0
	}
}

// IsDebit reports whether t requires an admission check before it may be
// appended: ordinary debits check the available balance, frozen-side debits
// check the frozen total.
func (t TransactionType) IsDebit() bool {
	return t.BalanceDelta(1) < 0 || t == TransactionTypeFreeze || t == TransactionTypeUnfreeze
}

// SpendsFromFrozen reports whether the admission check for t runs against the
// frozen total rather than the available balance.
func (t TransactionType) SpendsFromFrozen() bool {
	return t == TransactionTypeUnfreeze || t == TransactionTypeFreezeSpend
}
