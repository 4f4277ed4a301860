package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

// PaymentMethodService stores and checks payment methods.
type PaymentMethodService interface {
	TokenizePaymentMethod(ctx context.Context, req *models.TokenizeRequest, gateway models.GatewayType) (*models.TokenizeResponse, error)
	VerifyPaymentMethod(ctx context.Context, token string, gateway models.GatewayType) (*models.VerifyResult, error)
}

// PaymentMethodHandler handles payment method endpoints.
type PaymentMethodHandler struct {
	methods PaymentMethodService
}

// NewPaymentMethodHandler constructs a PaymentMethodHandler.
func NewPaymentMethodHandler(methods PaymentMethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{methods: methods}
}

type tokenizeRequest struct {
	models.TokenizeRequest
	Gateway models.GatewayType `json:"gateway"`
}

type verifyRequest struct {
	Gateway models.GatewayType `json:"gateway"`
	Token   string             `json:"token"`
}

// Tokenize handles POST /v1/payment-methods/tokenize
func (h *PaymentMethodHandler) Tokenize(c *gin.Context) {
	var req tokenizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Gateway == "" {
		utils.Error(c, http.StatusBadRequest, "MISSING_FIELD", "gateway is required")
		return
	}

	resp, err := h.methods.TokenizePaymentMethod(c.Request.Context(), &req.TokenizeRequest, req.Gateway)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !resp.Success {
		utils.ErrorWithData(c, http.StatusUnprocessableEntity, errorCode(resp.ErrorCode, "TOKENIZE_FAILED"), messageOr(resp.ErrorMessage, "Payment method could not be stored"), resp)
		return
	}
	utils.Success(c, http.StatusCreated, "Payment method stored", resp)
}

// Verify handles POST /v1/payment-methods/verify
func (h *PaymentMethodHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Gateway == "" || req.Token == "" {
		utils.Error(c, http.StatusBadRequest, "MISSING_FIELD", "gateway and token are required")
		return
	}

	result, err := h.methods.VerifyPaymentMethod(c.Request.Context(), req.Token, req.Gateway)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Payment method verified", result)
}
