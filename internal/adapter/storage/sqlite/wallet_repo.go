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

// WalletRepo implements ports.WalletRepository on SQLite.
type WalletRepo struct {
	db *DB
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(db *DB) *WalletRepo {
	return &WalletRepo{db: db}
}

const walletColumns = `id, name, currency, type, balance, frozen_total,
	exchange_rate_to_reference, theme, active, created_at, updated_at`

// Create inserts a new wallet.
func (r *WalletRepo) Create(ctx context.Context, wallet *domain.Wallet) error {
	var rate sql.NullFloat64
	if wallet.ExchangeRateToReference != nil {
		rate = sql.NullFloat64{Float64: *wallet.ExchangeRateToReference, Valid: true}
	}
	_, err := r.db.sqlDB.ExecContext(ctx,
		`INSERT INTO wallets (`+walletColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wallet.ID.String(),
		wallet.Name,
		wallet.Currency,
		string(wallet.Type),
		wallet.Balance,
		wallet.FrozenTotal,
		rate,
		wallet.Theme,
		wallet.Active,
		toMillis(wallet.CreatedAt),
		toMillis(wallet.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("create wallet: %w", err)
	}
	return nil
}

// GetByID returns the wallet or nil when absent.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	row := r.db.sqlDB.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = ?`, id.String())
	wallet, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return wallet, nil
}

// List returns all wallets, oldest first.
func (r *WalletRepo) List(ctx context.Context) ([]domain.Wallet, error) {
	rows, err := r.db.sqlDB.QueryContext(ctx,
		`SELECT `+walletColumns+` FROM wallets ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("list wallets: %w", err)
		}
		wallets = append(wallets, *wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

// Update persists display fields and the exchange rate. Balance columns are
// only touched by UpdateBalances.
func (r *WalletRepo) Update(ctx context.Context, wallet *domain.Wallet) error {
	var rate sql.NullFloat64
	if wallet.ExchangeRateToReference != nil {
		rate = sql.NullFloat64{Float64: *wallet.ExchangeRateToReference, Valid: true}
	}
	res, err := r.db.sqlDB.ExecContext(ctx,
		`UPDATE wallets
		    SET name = ?, currency = ?, type = ?, exchange_rate_to_reference = ?,
		        theme = ?, active = ?, updated_at = ?
		  WHERE id = ?`,
		wallet.Name,
		wallet.Currency,
		string(wallet.Type),
		rate,
		wallet.Theme,
		wallet.Active,
		toMillis(wallet.UpdatedAt),
		wallet.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	return requireRow(res, "update wallet")
}

// UpdateBalances writes the cached balance mirror inside tx.
func (r *WalletRepo) UpdateBalances(ctx context.Context, tx ports.Tx, walletID uuid.UUID, balance, frozen int64) error {
	res, err := r.db.on(tx).ExecContext(ctx,
		`UPDATE wallets SET balance = ?, frozen_total = ? WHERE id = ?`,
		balance, frozen, walletID.String())
	if err != nil {
		return fmt.Errorf("update wallet balances: %w", err)
	}
	return requireRow(res, "update wallet balances")
}

// SetActive makes walletID the single active wallet.
func (r *WalletRepo) SetActive(ctx context.Context, tx ports.Tx, walletID uuid.UUID) error {
	_, err := r.db.on(tx).ExecContext(ctx,
		`UPDATE wallets SET active = (id = ?)`, walletID.String())
	if err != nil {
		return fmt.Errorf("set active wallet: %w", err)
	}
	return nil
}

// Delete removes the wallet; transactions and debts cascade.
func (r *WalletRepo) Delete(ctx context.Context, tx ports.Tx, walletID uuid.UUID) error {
	res, err := r.db.on(tx).ExecContext(ctx,
		`DELETE FROM wallets WHERE id = ?`, walletID.String())
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return requireRow(res, "delete wallet")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*domain.Wallet, error) {
	var (
		wallet    domain.Wallet
		id        string
		kind      string
		rate      sql.NullFloat64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&id,
		&wallet.Name,
		&wallet.Currency,
		&kind,
		&wallet.Balance,
		&wallet.FrozenTotal,
		&rate,
		&wallet.Theme,
		&wallet.Active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse wallet id: %w", err)
	}
	wallet.ID = parsed
	wallet.Type = domain.WalletType(kind)
	if rate.Valid {
		wallet.ExchangeRateToReference = &rate.Float64
	}
	wallet.CreatedAt = fromMillis(createdAt)
	wallet.UpdatedAt = fromMillis(updatedAt)
	return &wallet, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: no row matched", op)
	}
	return nil
}
