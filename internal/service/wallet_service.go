package service

import (
	"context"
	"fmt"
	"time"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(walletRepo ports.WalletRepository, transactor ports.DBTransactor, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{walletRepo: walletRepo, transactor: transactor, log: log}
}

// Create adds a wallet with zero balance. The first wallet created becomes
// the active one.
func (s *WalletServiceImpl) Create(ctx context.Context, req ports.CreateWalletRequest) (*domain.Wallet, error) {
	if req.Name == "" {
		return nil, apperror.Validation("wallet name is required")
	}
	if req.Currency == "" {
		return nil, apperror.Validation("currency is required")
	}
	if !domain.ValidWalletType(req.Type) {
		return nil, apperror.Validation(fmt.Sprintf("unknown wallet type %q", req.Type))
	}
	if req.ExchangeRateToReference != nil && *req.ExchangeRateToReference <= 0 {
		return nil, apperror.Validation("exchange rate must be greater than zero")
	}

	existing, err := s.walletRepo.List(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list wallets: %w", err))
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:                      uuid.New(),
		Name:                    req.Name,
		Currency:                req.Currency,
		Type:                    req.Type,
		Theme:                   req.Theme,
		ExchangeRateToReference: req.ExchangeRateToReference,
		Active:                  len(existing) == 0,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("name", wallet.Name).
		Str("currency", wallet.Currency).
		Bool("active", wallet.Active).
		Msg("wallet created")

	return wallet, nil
}

// Get fetches one wallet.
func (s *WalletServiceImpl) Get(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

// List returns all wallets.
func (s *WalletServiceImpl) List(ctx context.Context) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.List(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list wallets: %w", err))
	}
	return wallets, nil
}

// Update applies partial edits to display fields and the exchange rate.
// Currency and type are fixed at creation: changing them would reinterpret
// the wallet's whole history.
func (s *WalletServiceImpl) Update(ctx context.Context, walletID uuid.UUID, req ports.UpdateWalletRequest) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperror.Validation("wallet name is required")
		}
		wallet.Name = *req.Name
	}
	if req.Theme != nil {
		wallet.Theme = *req.Theme
	}
	if req.ExchangeRateToReference != nil {
		if *req.ExchangeRateToReference <= 0 {
			return nil, apperror.Validation("exchange rate must be greater than zero")
		}
		wallet.ExchangeRateToReference = req.ExchangeRateToReference
	}
	wallet.UpdatedAt = time.Now().UTC()

	if err := s.walletRepo.Update(ctx, wallet); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update wallet: %w", err))
	}
	return wallet, nil
}

// SetActive makes the wallet the single active one.
func (s *WalletServiceImpl) SetActive(ctx context.Context, walletID uuid.UUID) error {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrWalletNotFound()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.walletRepo.SetActive(ctx, tx, walletID); err != nil {
		return apperror.ErrStorage(fmt.Errorf("set active wallet: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// Delete removes a wallet and its history. The last remaining wallet cannot
// be deleted; if the deleted wallet was active, the oldest survivor becomes
// active in the same transaction.
func (s *WalletServiceImpl) Delete(ctx context.Context, walletID uuid.UUID) error {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrWalletNotFound()
	}

	wallets, err := s.walletRepo.List(ctx)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("list wallets: %w", err))
	}
	if len(wallets) <= 1 {
		return apperror.ErrLastWallet()
	}

	var successor *domain.Wallet
	if wallet.Active {
		for i := range wallets {
			if wallets[i].ID != walletID {
				if successor == nil || wallets[i].CreatedAt.Before(successor.CreatedAt) {
					successor = &wallets[i]
				}
			}
		}
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.walletRepo.Delete(ctx, tx, walletID); err != nil {
		return apperror.ErrStorage(fmt.Errorf("delete wallet: %w", err))
	}
	if successor != nil {
		if err := s.walletRepo.SetActive(ctx, tx, successor.ID); err != nil {
			return apperror.ErrStorage(fmt.Errorf("reassign active wallet: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Bool("was_active", wallet.Active).
		Msg("wallet deleted")

	return nil
}
