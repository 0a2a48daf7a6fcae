package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletType classifies a wallet by usage.
type WalletType string

const (
	WalletTypePersonal WalletType = "personal"
	WalletTypeBusiness WalletType = "business"
	WalletTypeFamily   WalletType = "family"
)

// Wallet is a cash wallet tracked entirely on-device.
//
// Balance and FrozenTotal are cached mirrors of the transaction log for O(1)
// reads. The log is authoritative: both values must always be re-derivable by
// replaying the wallet's transactions from empty (see LedgerService.Reconcile).
type Wallet struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Currency string     `json:"currency"` // free-text ISO-like code, e.g. "DZD"
	Type     WalletType `json:"type"`

	Balance     int64 `json:"balance"`      // minor units (centimes)
	FrozenTotal int64 `json:"frozen_total"` // minor units, never negative

	// Units of the reference currency per 1 unit of this wallet's currency.
	// Nil means no rate has been set; display code falls back to 1.
	ExchangeRateToReference *float64 `json:"exchange_rate_to_reference,omitempty"`

	Theme  string `json:"theme,omitempty"`
	Active bool   `json:"active"` // the wallet currently shown by the UI

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Available returns the ceiling for ordinary debits.
func (w *Wallet) Available() int64 {
	return w.Balance - w.FrozenTotal
}

// ValidWalletType reports whether t is one of the known wallet types.
func ValidWalletType(t WalletType) bool {
	switch t {
	case WalletTypePersonal, WalletTypeBusiness, WalletTypeFamily:
		return true
	}
	return false
}
