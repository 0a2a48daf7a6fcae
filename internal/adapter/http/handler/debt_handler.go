package handler

import (
	"cashvault/internal/adapter/http/dto"
	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"
	"cashvault/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DebtHandler handles debt tracking endpoints.
type DebtHandler struct {
	debtSvc ports.DebtService
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(debtSvc ports.DebtService) *DebtHandler {
	return &DebtHandler{debtSvc: debtSvc}
}

// Create handles POST /api/v1/debts.
func (h *DebtHandler) Create(c *gin.Context) {
	var req dto.CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	walletID, _ := uuid.Parse(req.WalletID)
	debt, err := h.debtSvc.CreateDebt(c.Request.Context(), ports.CreateDebtRequest{
		WalletID:   walletID,
		Type:       domain.DebtType(req.Type),
		PersonName: req.PersonName,
		Amount:     req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toDebtResponse(debt))
}

// List handles GET /api/v1/debts. An optional wallet_id query narrows the
// result to one wallet.
func (h *DebtHandler) List(c *gin.Context) {
	var walletID *uuid.UUID
	if raw := c.Query("wallet_id"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			response.Error(c, apperror.Validation("invalid wallet id"))
			return
		}
		walletID = &id
	}

	debts, err := h.debtSvc.List(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]dto.DebtResponse, 0, len(debts))
	for i := range debts {
		items = append(items, toDebtResponse(&debts[i]))
	}
	response.OK(c, items)
}

// Get handles GET /api/v1/debts/:id.
func (h *DebtHandler) Get(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, apperror.Validation("invalid debt id"))
		return
	}
	debt, err := h.debtSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toDebtResponse(debt))
}

// AddPayment handles POST /api/v1/debts/:id/payments.
func (h *DebtHandler) AddPayment(c *gin.Context) {
	debtID, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, apperror.Validation("invalid debt id"))
		return
	}

	var req dto.DebtPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txnID, _ := uuid.Parse(req.TransactionID)
	debt, err := h.debtSvc.AddPayment(c.Request.Context(), debtID, txnID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toDebtResponse(debt))
}

// MarkPaid handles POST /api/v1/debts/:id/mark-paid.
func (h *DebtHandler) MarkPaid(c *gin.Context) {
	debtID, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, apperror.Validation("invalid debt id"))
		return
	}
	debt, err := h.debtSvc.MarkPaid(c.Request.Context(), debtID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toDebtResponse(debt))
}

// Delete handles DELETE /api/v1/debts/:id.
func (h *DebtHandler) Delete(c *gin.Context) {
	debtID, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, apperror.Validation("invalid debt id"))
		return
	}
	if err := h.debtSvc.Delete(c.Request.Context(), debtID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
