package handler

import (
	"cashvault/internal/adapter/http/dto"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"
	"cashvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// BusinessPaymentHandler handles the QR payment protocol endpoints.
type BusinessPaymentHandler struct {
	paymentSvc ports.BusinessPaymentService
}

// NewBusinessPaymentHandler creates a new BusinessPaymentHandler.
func NewBusinessPaymentHandler(paymentSvc ports.BusinessPaymentService) *BusinessPaymentHandler {
	return &BusinessPaymentHandler{paymentSvc: paymentSvc}
}

// BuildRequest handles POST /api/v1/business-payments/request. The returned
// payload is rendered as a QR code by the UI.
func (h *BusinessPaymentHandler) BuildRequest(c *gin.Context) {
	var req dto.BuildPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	walletID, ok := parseID(req.WalletID)
	if !ok {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	pending, payload, err := h.paymentSvc.BuildRequest(c.Request.Context(), walletID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.BuildPaymentResponse{
		PaymentID:        pending.PaymentID,
		MerchantWalletID: pending.MerchantWalletID.String(),
		MerchantName:     pending.MerchantName,
		Amount:           pending.Amount,
		Currency:         pending.Currency,
		Payload:          payload,
	})
}

// Confirm handles POST /api/v1/business-payments/confirm. The body carries
// the scanned confirmation payload verbatim; parsing and replay protection
// happen in the service.
func (h *BusinessPaymentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	confirm, err := h.paymentSvc.ParseConfirm(req.Payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	completion, err := h.paymentSvc.CompleteAsMerchant(c.Request.Context(), confirm)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.PaymentCompletionResponse{
		ReceiveTx: toTransactionResponse(completion.ReceiveTx),
	}
	if completion.SendTx != nil {
		sendTx := toTransactionResponse(completion.SendTx)
		resp.SendTx = &sendTx
	}
	response.Created(c, resp)
}

// Reject handles POST /api/v1/business-payments/reject.
func (h *BusinessPaymentHandler) Reject(c *gin.Context) {
	var req dto.RejectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if err := h.paymentSvc.Reject(req.PaymentID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"payment_id": req.PaymentID, "rejected": true})
}
