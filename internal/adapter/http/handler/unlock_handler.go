package handler

import (
	"net/http"

	"cashvault/internal/adapter/http/dto"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"
	"cashvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// UnlockHandler handles the PIN setup and unlock endpoints.
type UnlockHandler struct {
	pinSvc   ports.PinService
	tokenSvc ports.TokenService
}

// NewUnlockHandler creates a new UnlockHandler.
func NewUnlockHandler(pinSvc ports.PinService, tokenSvc ports.TokenService) *UnlockHandler {
	return &UnlockHandler{pinSvc: pinSvc, tokenSvc: tokenSvc}
}

// Setup handles POST /api/v1/unlock/setup. Changing an existing PIN requires
// the current one.
func (h *UnlockHandler) Setup(c *gin.Context) {
	var req dto.PinSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	isSet, err := h.pinSvc.IsSet(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if isSet {
		if req.CurrentPin == nil {
			response.Error(c, apperror.ErrInvalidPin())
			return
		}
		ok, err := h.pinSvc.VerifyPin(c.Request.Context(), *req.CurrentPin)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !ok {
			response.Error(c, apperror.ErrInvalidPin())
			return
		}
	}

	if err := h.pinSvc.SetPin(c.Request.Context(), req.Pin); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"pin_set": true})
}

// Unlock handles POST /api/v1/unlock — exchanges the PIN for a session token.
func (h *UnlockHandler) Unlock(c *gin.Context) {
	var req dto.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	ok, err := h.pinSvc.VerifyPin(c.Request.Context(), req.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ok {
		response.Error(c, apperror.ErrInvalidPin())
		return
	}

	token, expiry, err := h.tokenSvc.Generate()
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	response.OK(c, dto.UnlockResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// Status handles GET /api/v1/unlock/status — whether a PIN is configured.
func (h *UnlockHandler) Status(c *gin.Context) {
	isSet, err := h.pinSvc.IsSet(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"pin_set": isSet})
}

// HealthCheck handles GET /health — verifies the durable store.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
