package domain

import (
	"time"

	"github.com/google/uuid"
)

// DebtType says which direction the informal debt runs.
type DebtType string

const (
	DebtTypeOwe  DebtType = "owe"  // the user owes personName
	DebtTypeOwed DebtType = "owed" // personName owes the user
)

// DebtStatus is a pure function of remaining vs original amount.
type DebtStatus string

const (
	DebtStatusActive  DebtStatus = "active"
	DebtStatusPartial DebtStatus = "partial"
	DebtStatusPaid    DebtStatus = "paid"
)

// Debt tracks an informal debt. Payments against it are ordinary ledger
// transactions created first and then cross-referenced here; the debt tracker
// never writes to the ledger itself.
type Debt struct {
	ID              uuid.UUID  `json:"id"`
	WalletID        uuid.UUID  `json:"wallet_id"`
	Type            DebtType   `json:"type"`
	PersonName      string     `json:"person_name"`
	OriginalAmount  int64      `json:"original_amount"`  // minor units
	RemainingAmount int64      `json:"remaining_amount"` // 0 <= remaining <= original
	Status          DebtStatus `json:"status"`

	// WrittenOff marks a forced MarkPaid: remaining was zeroed without a
	// matching payment sum, so the sum law intentionally does not hold.
	WrittenOff bool `json:"written_off"`

	// Ledger transaction IDs of payments against this debt, in payment order.
	RelatedTransactionIDs []uuid.UUID `json:"related_transaction_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeriveDebtStatus computes status from the two amounts.
func DeriveDebtStatus(original, remaining int64) DebtStatus {
	switch {
	case remaining == 0:
		return DebtStatusPaid
	case remaining < original:
		return DebtStatusPartial
	default:
		return DebtStatusActive
	}
}

// ValidDebtType reports whether t is a known debt direction.
func ValidDebtType(t DebtType) bool {
	return t == DebtTypeOwe || t == DebtTypeOwed
}
