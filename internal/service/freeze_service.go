package service

import (
	"context"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FreezeServiceImpl implements ports.FreezeService. Freezing moves funds
// between the available and frozen sub-ledgers of one wallet; only
// SpendFromFrozen makes funds leave the wallet.
type FreezeServiceImpl struct {
	ledger ports.LedgerService
	log    zerolog.Logger
}

// NewFreezeService creates a new FreezeServiceImpl.
func NewFreezeService(ledger ports.LedgerService, log zerolog.Logger) *FreezeServiceImpl {
	return &FreezeServiceImpl{ledger: ledger, log: log}
}

// Freeze sets amount aside for savings. Requires amount <= available; total
// balance is unchanged.
func (s *FreezeServiceImpl) Freeze(ctx context.Context, walletID uuid.UUID, amount int64) (*domain.Transaction, error) {
	return s.ledger.Append(ctx, walletID, ports.DraftTransaction{
		Type:   domain.TransactionTypeFreeze,
		Amount: amount,
	})
}

// Unfreeze returns amount to availability. Requires amount <= frozen total.
func (s *FreezeServiceImpl) Unfreeze(ctx context.Context, walletID uuid.UUID, amount int64) (*domain.Transaction, error) {
	return s.ledger.Append(ctx, walletID, ports.DraftTransaction{
		Type:   domain.TransactionTypeUnfreeze,
		Amount: amount,
	})
}

// SpendFromFrozen spends directly out of the frozen sub-ledger; the funds
// leave the wallet entirely. Requires amount <= frozen total.
func (s *FreezeServiceImpl) SpendFromFrozen(ctx context.Context, walletID uuid.UUID, amount int64) (*domain.Transaction, error) {
	return s.ledger.Append(ctx, walletID, ports.DraftTransaction{
		Type:   domain.TransactionTypeFreezeSpend,
		Amount: amount,
	})
}
