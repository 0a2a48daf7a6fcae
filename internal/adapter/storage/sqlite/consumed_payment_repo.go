package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"

	"github.com/google/uuid"
)

// ConsumedPaymentRepo implements ports.ConsumedPaymentRepository. The primary
// key on payment_id is the replay protection: a second insert of the same ID
// fails inside the same transaction as the ledger legs it would have funded.
type ConsumedPaymentRepo struct {
	db *DB
}

// NewConsumedPaymentRepo creates a new ConsumedPaymentRepo.
func NewConsumedPaymentRepo(db *DB) *ConsumedPaymentRepo {
	return &ConsumedPaymentRepo{db: db}
}

// Create inserts one consumed-payment row inside tx.
func (r *ConsumedPaymentRepo) Create(ctx context.Context, tx ports.Tx, cp *domain.ConsumedPayment) error {
	_, err := r.db.on(tx).ExecContext(ctx,
		`INSERT INTO consumed_payments (payment_id, transaction_id, consumed_at)
		 VALUES (?, ?, ?)`,
		cp.PaymentID, cp.TransactionID.String(), toMillis(cp.ConsumedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("create consumed payment: %w", err)
	}
	return nil
}

// Get returns the consumed-payment record or nil when absent.
func (r *ConsumedPaymentRepo) Get(ctx context.Context, paymentID string) (*domain.ConsumedPayment, error) {
	row := r.db.sqlDB.QueryRowContext(ctx,
		`SELECT payment_id, transaction_id, consumed_at
		   FROM consumed_payments WHERE payment_id = ?`, paymentID)

	var (
		cp         domain.ConsumedPayment
		txnID      string
		consumedAt int64
	)
	if err := row.Scan(&cp.PaymentID, &txnID, &consumedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get consumed payment: %w", err)
	}
	parsed, err := uuid.Parse(txnID)
	if err != nil {
		return nil, fmt.Errorf("parse transaction id: %w", err)
	}
	cp.TransactionID = parsed
	cp.ConsumedAt = fromMillis(consumedAt)
	return &cp, nil
}
