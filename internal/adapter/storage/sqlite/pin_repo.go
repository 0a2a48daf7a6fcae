package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const pinHashKey = "pin_hash"

// PinRepo implements ports.PinRepository using the settings table.
type PinRepo struct {
	db *DB
}

// NewPinRepo creates a new PinRepo.
func NewPinRepo(db *DB) *PinRepo {
	return &PinRepo{db: db}
}

// GetPinHash returns the stored hash, or "" when no PIN has been set.
func (r *PinRepo) GetPinHash(ctx context.Context) (string, error) {
	row := r.db.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, pinHashKey)
	var hash string
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash, nil
}

// SetPinHash stores the hash, replacing any previous one.
func (r *PinRepo) SetPinHash(ctx context.Context, hash string) error {
	_, err := r.db.sqlDB.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		pinHashKey, hash)
	if err != nil {
		return fmt.Errorf("set pin hash: %w", err)
	}
	return nil
}
