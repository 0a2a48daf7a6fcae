package sqlite

import (
	"context"
	"fmt"

	"cashvault/internal/core/domain"

	"github.com/google/uuid"
)

// AuditRepo implements ports.AuditRepository on SQLite.
type AuditRepo struct {
	db *DB
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Create inserts one audit entry.
func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.db.sqlDB.ExecContext(ctx,
		`INSERT INTO audit_entries (id, method, path, status, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID.String(),
		entry.Method,
		entry.Path,
		entry.Status,
		entry.LatencyMS,
		toMillis(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the latest entries, newest first.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.sqlDB.QueryContext(ctx,
		`SELECT id, method, path, status, latency_ms, created_at
		   FROM audit_entries ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			entry     domain.AuditEntry
			id        string
			createdAt int64
		)
		if err := rows.Scan(&id, &entry.Method, &entry.Path, &entry.Status, &entry.LatencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("list audit entries: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse audit entry id: %w", err)
		}
		entry.ID = parsed
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
