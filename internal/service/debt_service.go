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

// DebtServiceImpl implements ports.DebtService. Debts cross-reference ledger
// transactions but never create them; the linked payment must already exist.
type DebtServiceImpl struct {
	debtRepo   ports.DebtRepository
	txRepo     ports.TransactionRepository
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewDebtService creates a new DebtServiceImpl.
func NewDebtService(
	debtRepo ports.DebtRepository,
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *DebtServiceImpl {
	return &DebtServiceImpl{
		debtRepo:   debtRepo,
		txRepo:     txRepo,
		walletRepo: walletRepo,
		transactor: transactor,
		log:        log,
	}
}

// CreateDebt records a new informal debt.
func (s *DebtServiceImpl) CreateDebt(ctx context.Context, req ports.CreateDebtRequest) (*domain.Debt, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if !domain.ValidDebtType(req.Type) {
		return nil, apperror.Validation(fmt.Sprintf("unknown debt type %q", req.Type))
	}
	if req.PersonName == "" {
		return nil, apperror.Validation("person name is required")
	}

	wallet, err := s.walletRepo.GetByID(ctx, req.WalletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	now := time.Now().UTC()
	debt := &domain.Debt{
		ID:              uuid.New(),
		WalletID:        req.WalletID,
		Type:            req.Type,
		PersonName:      req.PersonName,
		OriginalAmount:  req.Amount,
		RemainingAmount: req.Amount,
		Status:          domain.DebtStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.debtRepo.Create(ctx, debt); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("create debt: %w", err))
	}

	s.log.Info().
		Str("debt_id", debt.ID.String()).
		Str("wallet_id", req.WalletID.String()).
		Int64("amount", req.Amount).
		Msg("debt created")

	return debt, nil
}

// AddPayment links an existing ledger transaction as a payment against the
// debt and recomputes remaining amount and status. Requires
// 0 < amount <= remaining.
func (s *DebtServiceImpl) AddPayment(ctx context.Context, debtID, transactionID uuid.UUID, amount int64) (*domain.Debt, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	debt, err := s.debtRepo.GetByID(ctx, debtID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load debt: %w", err))
	}
	if debt == nil {
		return nil, apperror.ErrDebtNotFound()
	}
	if amount > debt.RemainingAmount {
		return nil, apperror.ErrPaymentExceedsRemaining()
	}

	// The payment transaction must already exist in the ledger; the debt
	// tracker only cross-references it.
	txn, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load payment transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}

	debt.RemainingAmount -= amount
	debt.Status = domain.DeriveDebtStatus(debt.OriginalAmount, debt.RemainingAmount)
	debt.RelatedTransactionIDs = append(debt.RelatedTransactionIDs, transactionID)
	debt.UpdatedAt = time.Now().UTC()

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.debtRepo.AddPaymentLink(ctx, tx, debtID, transactionID, amount); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("link payment: %w", err))
	}
	if err := s.debtRepo.UpdateAmounts(ctx, tx, debt); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update debt amounts: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("debt_id", debtID.String()).
		Str("tx_id", transactionID.String()).
		Int64("amount", amount).
		Int64("remaining", debt.RemainingAmount).
		Str("status", string(debt.Status)).
		Msg("debt payment recorded")

	return debt, nil
}

// MarkPaid is the explicit write-off escape hatch: it zeroes the remaining
// amount without requiring a matching payment sum and flags the debt so the
// broken sum law is visible.
func (s *DebtServiceImpl) MarkPaid(ctx context.Context, debtID uuid.UUID) (*domain.Debt, error) {
	debt, err := s.debtRepo.GetByID(ctx, debtID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load debt: %w", err))
	}
	if debt == nil {
		return nil, apperror.ErrDebtNotFound()
	}

	if debt.RemainingAmount > 0 {
		debt.WrittenOff = true
	}
	debt.RemainingAmount = 0
	debt.Status = domain.DebtStatusPaid
	debt.UpdatedAt = time.Now().UTC()

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.debtRepo.UpdateAmounts(ctx, tx, debt); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update debt amounts: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("debt_id", debtID.String()).
		Bool("written_off", debt.WrittenOff).
		Msg("debt marked paid")

	return debt, nil
}

// Get fetches one debt.
func (s *DebtServiceImpl) Get(ctx context.Context, debtID uuid.UUID) (*domain.Debt, error) {
	debt, err := s.debtRepo.GetByID(ctx, debtID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load debt: %w", err))
	}
	if debt == nil {
		return nil, apperror.ErrDebtNotFound()
	}
	return debt, nil
}

// List returns debts, optionally scoped to one wallet.
func (s *DebtServiceImpl) List(ctx context.Context, walletID *uuid.UUID) ([]domain.Debt, error) {
	debts, err := s.debtRepo.List(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list debts: %w", err))
	}
	return debts, nil
}

// Delete removes a debt record. Linked ledger transactions are untouched.
func (s *DebtServiceImpl) Delete(ctx context.Context, debtID uuid.UUID) error {
	debt, err := s.debtRepo.GetByID(ctx, debtID)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("load debt: %w", err))
	}
	if debt == nil {
		return apperror.ErrDebtNotFound()
	}
	if err := s.debtRepo.Delete(ctx, debtID); err != nil {
		return apperror.ErrStorage(fmt.Errorf("delete debt: %w", err))
	}
	return nil
}
