package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

// PaymentService is the orchestrator surface used by PaymentHandler.
type PaymentService interface {
	ProcessPayment(ctx context.Context, req *models.PaymentRequest, preferred models.GatewayType) (*models.PaymentResponse, error)
	RefundPayment(ctx context.Context, req *models.RefundRequest, gateway models.GatewayType) (*models.RefundResponse, error)
	VoidTransaction(ctx context.Context, transactionID string, gateway models.GatewayType) (*models.PaymentResponse, error)
	CaptureAuthorization(ctx context.Context, req *models.CaptureRequest, gateway models.GatewayType) (*models.PaymentResponse, error)
	ResolveTransaction(ctx context.Context, id string) (models.GatewayType, string, error)
}

// PaymentHandler handles payment HTTP endpoints.
type PaymentHandler struct {
	payments PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentRequest struct {
	models.PaymentRequest
	PreferredGateway models.GatewayType `json:"preferred_gateway,omitempty"`
}

type refundRequest struct {
	TransactionID        string             `json:"transaction_id"`
	GatewayTransactionID string             `json:"gateway_transaction_id,omitempty"`
	Gateway              models.GatewayType `json:"gateway,omitempty"`
	Amount               *decimal.Decimal   `json:"amount,omitempty"`
	Currency             string             `json:"currency,omitempty"`
	Reason               string             `json:"reason,omitempty"`
	CardLast4            string             `json:"card_last4,omitempty"`
}

type followOnRequest struct {
	Gateway  models.GatewayType `json:"gateway,omitempty"`
	Amount   *decimal.Decimal   `json:"amount,omitempty"`
	Currency string             `json:"currency,omitempty"`
}

// CreatePayment handles POST /v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	preferred := req.PreferredGateway
	if q := c.Query("gateway"); q != "" {
		preferred = models.GatewayType(q)
	}
	if preferred != "" && !preferred.IsValid() {
		utils.Error(c, http.StatusBadRequest, "INVALID_GATEWAY", "Unknown gateway")
		return
	}

	payment := req.PaymentRequest
	payment.IPAddress = c.ClientIP()
	payment.UserAgent = c.Request.UserAgent()

	resp, err := h.payments.ProcessPayment(c.Request.Context(), &payment, preferred)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writePaymentResponse(c, resp, "Payment")
}

// RefundPayment handles POST /v1/payments/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.TransactionID == "" && req.GatewayTransactionID == "" {
		utils.Error(c, http.StatusBadRequest, "MISSING_FIELD", "transaction_id is required")
		return
	}

	gateway, gatewayTxnID := req.Gateway, req.GatewayTransactionID
	if gatewayTxnID == "" || gateway == "" {
		id := req.TransactionID
		if id == "" {
			id = gatewayTxnID
		}
		var err error
		gateway, gatewayTxnID, err = h.resolve(c.Request.Context(), id, req.Gateway)
		if err != nil {
			writeServiceError(c, err)
			return
		}
	}

	resp, err := h.payments.RefundPayment(c.Request.Context(), &models.RefundRequest{
		TransactionID:        req.TransactionID,
		GatewayTransactionID: gatewayTxnID,
		Amount:               req.Amount,
		Currency:             req.Currency,
		Reason:               req.Reason,
		CardLast4:            req.CardLast4,
	}, gateway)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if !resp.Success {
		utils.ErrorWithData(c, http.StatusUnprocessableEntity, errorCode(resp.ErrorCode, "REFUND_FAILED"), messageOr(resp.ErrorMessage, "Refund failed"), resp)
		return
	}
	utils.Success(c, http.StatusOK, "Refund "+string(resp.Status), resp)
}

// VoidTransaction handles POST /v1/payments/:transactionId/void
func (h *PaymentHandler) VoidTransaction(c *gin.Context) {
	var req followOnRequest
	if !bindOptional(c, &req) {
		return
	}

	gateway, gatewayTxnID, err := h.resolve(c.Request.Context(), c.Param("transactionId"), req.Gateway)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp, err := h.payments.VoidTransaction(c.Request.Context(), gatewayTxnID, gateway)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writePaymentResponse(c, resp, "Void")
}

// CaptureAuthorization handles POST /v1/payments/:transactionId/capture
func (h *PaymentHandler) CaptureAuthorization(c *gin.Context) {
	var req followOnRequest
	if !bindOptional(c, &req) {
		return
	}

	gateway, gatewayTxnID, err := h.resolve(c.Request.Context(), c.Param("transactionId"), req.Gateway)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp, err := h.payments.CaptureAuthorization(c.Request.Context(), &models.CaptureRequest{
		TransactionID: gatewayTxnID,
		Amount:        req.Amount,
		Currency:      req.Currency,
	}, gateway)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writePaymentResponse(c, resp, "Capture")
}

// resolve maps an orchestrator or gateway id to (gateway, gateway id). A
// logged payment wins over the caller's gateway hint.
func (h *PaymentHandler) resolve(ctx context.Context, id string, hint models.GatewayType) (models.GatewayType, string, error) {
	if id == "" {
		return "", "", fmt.Errorf("%w: transaction id is required", utils.ErrInvalidRequest)
	}
	gateway, gatewayTxnID, err := h.payments.ResolveTransaction(ctx, id)
	if err != nil {
		return "", "", err
	}
	if gateway == "" {
		gateway = hint
	}
	if gateway == "" {
		return "", "", utils.ErrTransactionNotFound
	}
	return gateway, gatewayTxnID, nil
}

// writePaymentResponse renders a canonical response: approved 200, pending
// 202, declined 402, provider-reported errors 422.
func writePaymentResponse(c *gin.Context, resp *models.PaymentResponse, op string) {
	switch {
	case resp.Success:
		utils.Success(c, http.StatusOK, op+" "+string(resp.Status), resp)
	case resp.Status == models.StatusPending:
		utils.Success(c, http.StatusAccepted, op+" pending", resp)
	case resp.Status == models.StatusDeclined:
		utils.ErrorWithData(c, http.StatusPaymentRequired, errorCode(resp.ErrorCode, "PAYMENT_DECLINED"), messageOr(resp.ErrorMessage, op+" declined"), resp)
	default:
		utils.ErrorWithData(c, http.StatusUnprocessableEntity, errorCode(resp.ErrorCode, "GATEWAY_ERROR"), messageOr(resp.ErrorMessage, op+" failed"), resp)
	}
}

// bindOptional binds a JSON body when one is present.
func bindOptional(c *gin.Context, out any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(out); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}
	return true
}

func errorCode(code, def string) string {
	if code == "" {
		return def
	}
	return code
}

func messageOr(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
