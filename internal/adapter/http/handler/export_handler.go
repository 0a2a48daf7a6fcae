package handler

import (
	"strconv"

	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"
	"cashvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// ExportHandler handles the snapshot export endpoint.
type ExportHandler struct {
	exportSvc ports.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportSvc ports.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// Snapshot handles GET /api/v1/export.
func (h *ExportHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.exportSvc.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snapshot)
}

// AuditHandler exposes the local audit trail.
type AuditHandler struct {
	auditRepo ports.AuditRepository
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditRepo ports.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

// ListRecent handles GET /api/v1/audit.
func (h *AuditHandler) ListRecent(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			response.Error(c, apperror.Validation("invalid limit"))
			return
		}
		limit = v
	}
	entries, err := h.auditRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, apperror.ErrStorage(err))
		return
	}
	response.OK(c, entries)
}
