package handler

import (
	"strconv"
	"strings"
	"time"

	"cashvault/internal/adapter/http/dto"
	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"
	"cashvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionHandler handles ledger endpoints.
type TransactionHandler struct {
	ledgerSvc ports.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc}
}

// Append handles POST /api/v1/wallets/:id/transactions.
func (h *TransactionHandler) Append(c *gin.Context) {
	walletID, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var req dto.AppendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := h.ledgerSvc.Append(c.Request.Context(), walletID, ports.DraftTransaction{
		Type:       domain.TransactionType(req.Type),
		Amount:     req.Amount,
		Sender:     req.Sender,
		Receiver:   req.Receiver,
		Category:   req.Category,
		CategoryID: req.CategoryID,
		Method:     domain.Method(req.Method),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(txn))
}

// List handles GET /api/v1/wallets/:id/transactions. Filters: types
// (comma-separated), method, from/to (RFC 3339), limit, order=asc|desc.
func (h *TransactionHandler) List(c *gin.Context) {
	walletID, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var filter ports.TransactionFilter
	if raw := c.Query("types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			kind := domain.TransactionType(strings.TrimSpace(part))
			if !domain.ValidTransactionType(kind) {
				response.Error(c, apperror.Validation("unknown transaction type "+string(kind)))
				return
			}
			filter.Types = append(filter.Types, kind)
		}
	}
	if raw := c.Query("method"); raw != "" {
		if raw != string(domain.MethodManual) && raw != string(domain.MethodQR) {
			response.Error(c, apperror.Validation("unknown method "+raw))
			return
		}
		method := domain.Method(raw)
		filter.Method = &method
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid from timestamp"))
			return
		}
		filter.From = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid to timestamp"))
			return
		}
		filter.To = &ts
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.Error(c, apperror.Validation("invalid limit"))
			return
		}
		filter.Limit = limit
	}
	filter.Ascending = c.Query("order") == "asc"

	txns, err := h.ledgerSvc.ListByWallet(c.Request.Context(), walletID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	response.OK(c, items)
}

// AttachInvoiceImage handles PUT /api/v1/transactions/:id/invoice-image.
func (h *TransactionHandler) AttachInvoiceImage(c *gin.Context) {
	txnID, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	var req dto.InvoiceImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.ledgerSvc.AttachInvoiceImage(c.Request.Context(), txnID, req.Image); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"transaction_id": txnID.String()})
}

// RemoveInvoiceImage handles DELETE /api/v1/transactions/:id/invoice-image.
func (h *TransactionHandler) RemoveInvoiceImage(c *gin.Context) {
	txnID, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}
	if err := h.ledgerSvc.RemoveInvoiceImage(c.Request.Context(), txnID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"transaction_id": txnID.String()})
}
