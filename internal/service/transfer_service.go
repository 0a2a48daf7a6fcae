package service

import (
	"context"
	"fmt"
	"math"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"

	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService: a two-leg atomic
// movement of value between wallets, converting when currencies differ.
type TransferServiceImpl struct {
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	ledger     *LedgerServiceImpl
	locks      *WalletLocks
	log        zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	ledger *LedgerServiceImpl,
	locks *WalletLocks,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		walletRepo: walletRepo,
		transactor: transactor,
		ledger:     ledger,
		locks:      locks,
		log:        log,
	}
}

// ExecuteTransfer debits the source wallet and credits the destination in one
// storage transaction: both legs are retained or neither is. Both wallet
// locks are held (in lexicographic order) for the whole operation.
func (s *TransferServiceImpl) ExecuteTransfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if req.SourceWalletID == req.DestWalletID {
		return nil, apperror.ErrSameWalletTransfer()
	}
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	unlock := s.locks.LockPair(req.SourceWalletID, req.DestWalletID)
	defer unlock()

	source, err := s.walletRepo.GetByID(ctx, req.SourceWalletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load source wallet: %w", err))
	}
	if source == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	dest, err := s.walletRepo.GetByID(ctx, req.DestWalletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load destination wallet: %w", err))
	}
	if dest == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	rate, err := resolveRate(source.Currency, dest.Currency, req.ExchangeRate)
	if err != nil {
		return nil, err
	}
	destAmount := convert(req.Amount, rate)
	if destAmount <= 0 {
		return nil, apperror.ErrInvalidExchangeRate()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	sourceTx, err := s.ledger.appendInTx(ctx, tx, source, ports.DraftTransaction{
		Type:     domain.TransactionTypeTransferOut,
		Amount:   req.Amount,
		Receiver: dest.Name,
	})
	if err != nil {
		return nil, err
	}

	destTx, err := s.ledger.appendInTx(ctx, tx, dest, ports.DraftTransaction{
		Type:   domain.TransactionTypeTransferIn,
		Amount: destAmount,
		Sender: source.Name,
	})
	if err != nil {
		// The deferred rollback undoes the source leg: the one sanctioned
		// exception to "no deletion", scoped to this call.
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("source_wallet_id", req.SourceWalletID.String()).
		Str("dest_wallet_id", req.DestWalletID.String()).
		Int64("amount", req.Amount).
		Int64("dest_amount", destAmount).
		Float64("rate", rate).
		Msg("transfer executed")

	return &ports.TransferResult{SourceTx: sourceTx, DestTx: destTx}, nil
}

// resolveRate applies the default-rate-of-1 policy for same-currency
// transfers and requires a positive explicit rate across currencies.
func resolveRate(sourceCurrency, destCurrency string, supplied *float64) (float64, error) {
	if sourceCurrency == destCurrency {
		if supplied != nil && *supplied != 1 {
			return 0, apperror.ErrInvalidExchangeRate()
		}
		return 1, nil
	}
	if supplied == nil || *supplied <= 0 {
		return 0, apperror.ErrInvalidExchangeRate()
	}
	return *supplied, nil
}

// convert rounds half away from zero in the destination's minor units.
func convert(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}
