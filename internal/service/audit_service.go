package service

import (
	"context"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit entries are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists an audit entry asynchronously (fire-and-forget).
func (s *auditService) Record(ctx context.Context, entry domain.AuditEntry) {
	go func() {
		s.log.Info().
			Str("method", entry.Method).
			Str("path", entry.Path).
			Int("status", entry.Status).
			Int64("latency_ms", entry.LatencyMS).
			Msg("audit")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), &entry); err != nil {
				s.log.Warn().Err(err).Str("path", entry.Path).Msg("failed to persist audit entry")
			}
		}
	}()
}
