package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"

	"github.com/google/uuid"
)

// DebtRepo implements ports.DebtRepository on SQLite. Payment links live in
// their own table so the debt row itself stays small.
type DebtRepo struct {
	db *DB
}

// NewDebtRepo creates a new DebtRepo.
func NewDebtRepo(db *DB) *DebtRepo {
	return &DebtRepo{db: db}
}

const debtColumns = `id, wallet_id, type, person_name, original_amount,
	remaining_amount, status, written_off, created_at, updated_at`

// Create inserts a new debt.
func (r *DebtRepo) Create(ctx context.Context, debt *domain.Debt) error {
	_, err := r.db.sqlDB.ExecContext(ctx,
		`INSERT INTO debts (`+debtColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.ID.String(),
		debt.WalletID.String(),
		string(debt.Type),
		debt.PersonName,
		debt.OriginalAmount,
		debt.RemainingAmount,
		string(debt.Status),
		debt.WrittenOff,
		toMillis(debt.CreatedAt),
		toMillis(debt.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("create debt: %w", err)
	}
	return nil
}

// GetByID returns the debt with its payment links, or nil when absent.
func (r *DebtRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	row := r.db.sqlDB.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE id = ?`, id.String())
	debt, err := scanDebt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get debt: %w", err)
	}
	if err := r.loadPaymentLinks(ctx, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

// List returns debts, optionally scoped to one wallet, newest first.
func (r *DebtRepo) List(ctx context.Context, walletID *uuid.UUID) ([]domain.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts`
	var args []any
	if walletID != nil {
		query += ` WHERE wallet_id = ?`
		args = append(args, walletID.String())
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var debts []domain.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("list debts: %w", err)
		}
		debts = append(debts, *debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	for i := range debts {
		if err := r.loadPaymentLinks(ctx, &debts[i]); err != nil {
			return nil, err
		}
	}
	return debts, nil
}

// AddPaymentLink records one payment transaction against the debt inside tx.
func (r *DebtRepo) AddPaymentLink(ctx context.Context, tx ports.Tx, debtID, transactionID uuid.UUID, amount int64) error {
	_, err := r.db.on(tx).ExecContext(ctx,
		`INSERT INTO debt_payments (debt_id, transaction_id, amount, created_at)
		 VALUES (?, ?, ?, ?)`,
		debtID.String(), transactionID.String(), amount, time.Now().UTC().UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("add debt payment link: %w", err)
	}
	return nil
}

// UpdateAmounts persists remaining amount, status and the write-off flag.
func (r *DebtRepo) UpdateAmounts(ctx context.Context, tx ports.Tx, debt *domain.Debt) error {
	res, err := r.db.on(tx).ExecContext(ctx,
		`UPDATE debts
		    SET remaining_amount = ?, status = ?, written_off = ?, updated_at = ?
		  WHERE id = ?`,
		debt.RemainingAmount,
		string(debt.Status),
		debt.WrittenOff,
		toMillis(debt.UpdatedAt),
		debt.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update debt amounts: %w", err)
	}
	return requireRow(res, "update debt amounts")
}

// Delete removes the debt; payment links cascade.
func (r *DebtRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.sqlDB.ExecContext(ctx,
		`DELETE FROM debts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return requireRow(res, "delete debt")
}

func (r *DebtRepo) loadPaymentLinks(ctx context.Context, debt *domain.Debt) error {
	rows, err := r.db.sqlDB.QueryContext(ctx,
		`SELECT transaction_id FROM debt_payments
		  WHERE debt_id = ? ORDER BY created_at ASC`,
		debt.ID.String())
	if err != nil {
		return fmt.Errorf("load debt payment links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("load debt payment links: %w", err)
		}
		txnID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse payment transaction id: %w", err)
		}
		debt.RelatedTransactionIDs = append(debt.RelatedTransactionIDs, txnID)
	}
	return rows.Err()
}

func scanDebt(row rowScanner) (*domain.Debt, error) {
	var (
		debt      domain.Debt
		id        string
		walletID  string
		kind      string
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&id,
		&walletID,
		&kind,
		&debt.PersonName,
		&debt.OriginalAmount,
		&debt.RemainingAmount,
		&status,
		&debt.WrittenOff,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse debt id: %w", err)
	}
	parsedWalletID, err := uuid.Parse(walletID)
	if err != nil {
		return nil, fmt.Errorf("parse wallet id: %w", err)
	}
	debt.ID = parsedID
	debt.WalletID = parsedWalletID
	debt.Type = domain.DebtType(kind)
	debt.Status = domain.DebtStatus(status)
	debt.CreatedAt = fromMillis(createdAt)
	debt.UpdatedAt = fromMillis(updatedAt)
	return &debt, nil
}
