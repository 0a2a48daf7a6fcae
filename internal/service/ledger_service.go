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

// LedgerServiceImpl implements ports.LedgerService: the append-only ledger
// store plus the derived-balance engine over it.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	locks      *WalletLocks
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	locks *WalletLocks,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		locks:      locks,
		log:        log,
	}
}

// Append is the only write path for financial history. It stamps ID,
// timestamp and the balance pair, validates admission against the latest
// derived state under the wallet lock, and persists the entry together with
// the cached balance mirror in one storage transaction.
func (s *LedgerServiceImpl) Append(ctx context.Context, walletID uuid.UUID, draft ports.DraftTransaction) (*domain.Transaction, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(walletID)
	defer unlock()

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	txn, err := s.appendInTx(ctx, tx, wallet, draft)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("wallet_id", walletID.String()).
		Str("type", string(txn.Type)).
		Int64("amount", txn.Amount).
		Int64("balance_after", txn.BalanceAfter).
		Msg("ledger entry appended")

	return txn, nil
}

// appendInTx validates admission and writes one entry plus the wallet mirror
// inside an already-open transaction. The caller must hold the wallet lock.
// On success the in-memory wallet is advanced so a later leg in the same
// transaction sees the updated state.
func (s *LedgerServiceImpl) appendInTx(ctx context.Context, tx ports.Tx, wallet *domain.Wallet, draft ports.DraftTransaction) (*domain.Transaction, error) {
	if err := admit(wallet, draft.Type, draft.Amount); err != nil {
		return nil, err
	}

	method := draft.Method
	if method == "" {
		method = domain.MethodManual
	}

	newBalance := wallet.Balance + draft.Type.BalanceDelta(draft.Amount)
	newFrozen := wallet.FrozenTotal + draft.Type.FrozenDelta(draft.Amount)

	txn := &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          draft.Type,
		Amount:        draft.Amount,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  newBalance,
		Sender:        draft.Sender,
		Receiver:      draft.Receiver,
		Category:      draft.Category,
		CategoryID:    draft.CategoryID,
		Method:        method,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.txRepo.Create(ctx, tx, txn); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("create transaction: %w", err))
	}
	if err := s.walletRepo.UpdateBalances(ctx, tx, wallet.ID, newBalance, newFrozen); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update balance mirror: %w", err))
	}

	wallet.Balance = newBalance
	wallet.FrozenTotal = newFrozen

	return txn, nil
}

// ListByWallet returns the wallet's transactions, newest first unless the
// filter requests ascending (log) order.
func (s *LedgerServiceImpl) ListByWallet(ctx context.Context, walletID uuid.UUID, filter ports.TransactionFilter) ([]domain.Transaction, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	txns, err := s.txRepo.ListByWallet(ctx, walletID, filter)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}

// GetBalance returns the wallet's total balance.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	wallet, err := s.loadWallet(ctx, walletID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// GetFrozenTotal returns the wallet's frozen total.
func (s *LedgerServiceImpl) GetFrozenTotal(ctx context.Context, walletID uuid.UUID) (int64, error) {
	wallet, err := s.loadWallet(ctx, walletID)
	if err != nil {
		return 0, err
	}
	return wallet.FrozenTotal, nil
}

// GetAvailable returns balance minus frozen total.
func (s *LedgerServiceImpl) GetAvailable(ctx context.Context, walletID uuid.UUID) (int64, error) {
	wallet, err := s.loadWallet(ctx, walletID)
	if err != nil {
		return 0, err
	}
	return wallet.Available(), nil
}

// CanDebit reports whether a debit of the given kind would be admitted
// against the wallet's current derived state.
func (s *LedgerServiceImpl) CanDebit(ctx context.Context, walletID uuid.UUID, amount int64, kind domain.TransactionType) (bool, error) {
	if amount <= 0 {
		return false, nil
	}
	wallet, err := s.loadWallet(ctx, walletID)
	if err != nil {
		return false, err
	}
	return admit(wallet, kind, amount) == nil, nil
}

// Reconcile recomputes balance and frozen total by replaying the wallet's log
// from empty and repairs the cached mirror if it drifted. This is the
// authoritative crash-recovery path.
func (s *LedgerServiceImpl) Reconcile(ctx context.Context, walletID uuid.UUID) (*ports.ReconcileResult, error) {
	unlock := s.locks.Lock(walletID)
	defer unlock()

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	balance, frozen, err := s.txRepo.SumsByWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("replay wallet log: %w", err))
	}

	result := &ports.ReconcileResult{
		WalletID:    walletID,
		Balance:     balance,
		FrozenTotal: frozen,
		Drifted:     balance != wallet.Balance || frozen != wallet.FrozenTotal,
	}
	if !result.Drifted {
		return result, nil
	}

	s.log.Warn().
		Str("wallet_id", walletID.String()).
		Int64("cached_balance", wallet.Balance).
		Int64("replayed_balance", balance).
		Int64("cached_frozen", wallet.FrozenTotal).
		Int64("replayed_frozen", frozen).
		Msg("balance mirror drifted from log, repairing")

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.walletRepo.UpdateBalances(ctx, tx, walletID, balance, frozen); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("repair balance mirror: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	return result, nil
}

// AttachInvoiceImage sets the invoice image reference on a written entry.
// This is the only permitted post-write mutation (non-financial field).
func (s *LedgerServiceImpl) AttachInvoiceImage(ctx context.Context, transactionID uuid.UUID, image string) error {
	if image == "" {
		return apperror.Validation("invoice image reference is required")
	}
	return s.setInvoiceImage(ctx, transactionID, &image)
}

// RemoveInvoiceImage clears the invoice image reference.
func (s *LedgerServiceImpl) RemoveInvoiceImage(ctx context.Context, transactionID uuid.UUID) error {
	return s.setInvoiceImage(ctx, transactionID, nil)
}

func (s *LedgerServiceImpl) setInvoiceImage(ctx context.Context, transactionID uuid.UUID, image *string) error {
	txn, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("load transaction: %w", err))
	}
	if txn == nil {
		return apperror.ErrTransactionNotFound()
	}
	if err := s.txRepo.UpdateInvoiceImage(ctx, transactionID, image); err != nil {
		return apperror.ErrStorage(fmt.Errorf("update invoice image: %w", err))
	}
	return nil
}

func (s *LedgerServiceImpl) loadWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

// validateDraft checks caller-controlled fields.
func validateDraft(draft ports.DraftTransaction) error {
	if draft.Amount <= 0 {
		return apperror.ErrInvalidAmount()
	}
	if !domain.ValidTransactionType(draft.Type) {
		return apperror.Validation(fmt.Sprintf("unknown transaction type %q", draft.Type))
	}
	if draft.Method != "" && draft.Method != domain.MethodManual && draft.Method != domain.MethodQR {
		return apperror.Validation(fmt.Sprintf("unknown method %q", draft.Method))
	}
	return nil
}

// admit enforces the non-negativity invariants before an entry may be
// written: ordinary debits (and freezes) are capped by the available
// balance, frozen-side debits by the frozen total.
func admit(wallet *domain.Wallet, kind domain.TransactionType, amount int64) error {
	switch {
	case kind.SpendsFromFrozen():
		if amount > wallet.FrozenTotal {
			return apperror.ErrInsufficientFrozenFunds()
		}
	case kind.IsDebit():
		if amount > wallet.Available() {
			return apperror.ErrInsufficientFunds()
		}
	}
	return nil
}
