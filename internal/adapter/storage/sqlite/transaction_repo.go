package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"

	"github.com/google/uuid"
)

// TransactionRepo implements ports.TransactionRepository on SQLite. Rows are
// append-only: there is no update or delete path apart from the invoice image
// reference.
type TransactionRepo struct {
	db *DB
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(db *DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const transactionColumns = `seq, id, wallet_id, type, amount, balance_before,
	balance_after, sender, receiver, category, category_id, method,
	invoice_image, created_at`

// Create appends one ledger entry inside tx and assigns its Seq.
func (r *TransactionRepo) Create(ctx context.Context, tx ports.Tx, t *domain.Transaction) error {
	var categoryID sql.NullString
	if t.CategoryID != nil {
		categoryID = sql.NullString{String: *t.CategoryID, Valid: true}
	}
	var invoiceImage sql.NullString
	if t.InvoiceImage != nil {
		invoiceImage = sql.NullString{String: *t.InvoiceImage, Valid: true}
	}

	res, err := r.db.on(tx).ExecContext(ctx,
		`INSERT INTO transactions (
		   id, wallet_id, type, amount, balance_before, balance_after,
		   sender, receiver, category, category_id, method, invoice_image,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(),
		t.WalletID.String(),
		string(t.Type),
		t.Amount,
		t.BalanceBefore,
		t.BalanceAfter,
		t.Sender,
		t.Receiver,
		t.Category,
		categoryID,
		string(t.Method),
		invoiceImage,
		toMillis(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read transaction seq: %w", err)
	}
	t.Seq = seq
	return nil
}

// GetByID returns the transaction or nil when absent.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.sqlDB.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id.String())
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

// ListByWallet returns the wallet's transactions. Default order is newest
// first; filter.Ascending flips to append (log) order.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, filter ports.TransactionFilter) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE wallet_id = ?`
	args := []any{walletID.String()}

	if len(filter.Types) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Types))
		query += ` AND type IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, t := range filter.Types {
			args = append(args, string(t))
		}
	}
	if filter.Method != nil {
		query += ` AND method = ?`
		args = append(args, string(*filter.Method))
	}
	if filter.From != nil {
		query += ` AND created_at >= ?`
		args = append(args, toMillis(*filter.From))
	}
	if filter.To != nil {
		query += ` AND created_at < ?`
		args = append(args, toMillis(*filter.To))
	}
	if filter.Ascending {
		query += ` ORDER BY seq ASC`
	} else {
		query += ` ORDER BY seq DESC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	return r.queryTransactions(ctx, query, args...)
}

// ListAll returns every transaction in append order, for export.
func (r *TransactionRepo) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY seq ASC`)
}

// SumsByWallet derives balance and frozen total purely from the log.
func (r *TransactionRepo) SumsByWallet(ctx context.Context, walletID uuid.UUID) (int64, int64, error) {
	row := r.db.sqlDB.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE
		     WHEN type IN ('receive', 'transfer_in', 'business_payment_receive') THEN amount
		     WHEN type IN ('send', 'freeze_spend', 'transfer_out', 'business_payment_send') THEN -amount
		     ELSE 0 END), 0),
		   COALESCE(SUM(CASE
		     WHEN type = 'freeze' THEN amount
		     WHEN type IN ('unfreeze', 'freeze_spend') THEN -amount
		     ELSE 0 END), 0)
		 FROM transactions WHERE wallet_id = ?`,
		walletID.String())

	var balance, frozen int64
	if err := row.Scan(&balance, &frozen); err != nil {
		return 0, 0, fmt.Errorf("sum wallet log: %w", err)
	}
	return balance, frozen, nil
}

// UpdateInvoiceImage sets or clears the invoice image reference.
func (r *TransactionRepo) UpdateInvoiceImage(ctx context.Context, id uuid.UUID, image *string) error {
	var value sql.NullString
	if image != nil {
		value = sql.NullString{String: *image, Valid: true}
	}
	res, err := r.db.sqlDB.ExecContext(ctx,
		`UPDATE transactions SET invoice_image = ? WHERE id = ?`,
		value, id.String())
	if err != nil {
		return fmt.Errorf("update invoice image: %w", err)
	}
	return requireRow(res, "update invoice image")
}

func (r *TransactionRepo) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		txn          domain.Transaction
		id           string
		walletID     string
		kind         string
		categoryID   sql.NullString
		method       string
		invoiceImage sql.NullString
		createdAt    int64
	)
	if err := row.Scan(
		&txn.Seq,
		&id,
		&walletID,
		&kind,
		&txn.Amount,
		&txn.BalanceBefore,
		&txn.BalanceAfter,
		&txn.Sender,
		&txn.Receiver,
		&txn.Category,
		&categoryID,
		&method,
		&invoiceImage,
		&createdAt,
	); err != nil {
		return nil, err
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse transaction id: %w", err)
	}
	parsedWalletID, err := uuid.Parse(walletID)
	if err != nil {
		return nil, fmt.Errorf("parse wallet id: %w", err)
	}
	txn.ID = parsedID
	txn.WalletID = parsedWalletID
	txn.Type = domain.TransactionType(kind)
	txn.Method = domain.Method(method)
	if categoryID.Valid {
		txn.CategoryID = &categoryID.String
	}
	if invoiceImage.Valid {
		txn.InvoiceImage = &invoiceImage.String
	}
	txn.CreatedAt = fromMillis(createdAt)
	return &txn, nil
}
