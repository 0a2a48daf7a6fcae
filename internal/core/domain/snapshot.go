package domain

import "time"

// Snapshot is the read-only export projection. It carries no write semantics.
type Snapshot struct {
	Wallets      []Wallet      `json:"wallets"`
	Transactions []Transaction `json:"transactions"`
	Debts        []Debt        `json:"debts"`
	ExportDate   time.Time     `json:"exportDate"`
}
