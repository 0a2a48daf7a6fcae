package handler

import (
	"context"

	"cashvault/internal/adapter/http/dto"
	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"
	"cashvault/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FreezeHandler handles the frozen sub-ledger endpoints.
type FreezeHandler struct {
	freezeSvc ports.FreezeService
}

// NewFreezeHandler creates a new FreezeHandler.
func NewFreezeHandler(freezeSvc ports.FreezeService) *FreezeHandler {
	return &FreezeHandler{freezeSvc: freezeSvc}
}

// Freeze handles POST /api/v1/wallets/:id/freeze.
func (h *FreezeHandler) Freeze(c *gin.Context) {
	h.run(c, h.freezeSvc.Freeze)
}

// Unfreeze handles POST /api/v1/wallets/:id/unfreeze.
func (h *FreezeHandler) Unfreeze(c *gin.Context) {
	h.run(c, h.freezeSvc.Unfreeze)
}

// SpendFromFrozen handles POST /api/v1/wallets/:id/freeze/spend.
func (h *FreezeHandler) SpendFromFrozen(c *gin.Context) {
	h.run(c, h.freezeSvc.SpendFromFrozen)
}

func (h *FreezeHandler) run(c *gin.Context, op func(ctx context.Context, walletID uuid.UUID, amount int64) (*domain.Transaction, error)) {
	walletID, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := op(c.Request.Context(), walletID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(result))
}
