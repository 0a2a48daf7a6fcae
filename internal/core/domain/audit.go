package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records one mutating API call for local troubleshooting.
type AuditEntry struct {
	ID        uuid.UUID `json:"id"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}
