package service

import (
	"context"
	"fmt"
	"time"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"

	"github.com/rs/zerolog"
)

// ExportServiceImpl implements ports.ExportService: a read-only snapshot of
// everything the store holds, for backup or device migration.
type ExportServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	debtRepo   ports.DebtRepository
	log        zerolog.Logger
}

// NewExportService creates a new ExportServiceImpl.
func NewExportService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	debtRepo ports.DebtRepository,
	log zerolog.Logger,
) *ExportServiceImpl {
	return &ExportServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		debtRepo:   debtRepo,
		log:        log,
	}
}

// Snapshot collects all wallets, transactions and debts. Reads only; the
// snapshot never feeds back into state.
func (s *ExportServiceImpl) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	wallets, err := s.walletRepo.List(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list wallets: %w", err))
	}
	txns, err := s.txRepo.ListAll(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list transactions: %w", err))
	}
	debts, err := s.debtRepo.List(ctx, nil)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list debts: %w", err))
	}

	s.log.Info().
		Int("wallets", len(wallets)).
		Int("transactions", len(txns)).
		Int("debts", len(debts)).
		Msg("export snapshot produced")

	return &domain.Snapshot{
		Wallets:      wallets,
		Transactions: txns,
		Debts:        debts,
		ExportDate:   time.Now().UTC(),
	}, nil
}
