package handler

import (
	"cashvault/internal/adapter/http/dto"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"
	"cashvault/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles inter-wallet transfers.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Execute handles POST /api/v1/transfers.
func (h *TransferHandler) Execute(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	sourceID, _ := uuid.Parse(req.SourceWalletID)
	destID, _ := uuid.Parse(req.DestWalletID)

	result, err := h.transferSvc.ExecuteTransfer(c.Request.Context(), ports.TransferRequest{
		SourceWalletID: sourceID,
		DestWalletID:   destID,
		Amount:         req.Amount,
		ExchangeRate:   req.ExchangeRate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.TransferResponse{
		SourceTx: toTransactionResponse(result.SourceTx),
		DestTx:   toTransactionResponse(result.DestTx),
	})
}
