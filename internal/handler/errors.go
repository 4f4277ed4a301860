package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/internal/utils"
	"github.com/GTDGit/gtd_payments/pkg/redact"
)

// writeServiceError maps orchestrator errors to the response envelope.
// Provider detail never reaches the caller; it is already in the logs.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrInvalidAmount):
		utils.Error(c, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero")
	case errors.Is(err, utils.ErrInvalidRequest):
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", redact.ScrubPANs(err.Error()))
	case errors.Is(err, utils.ErrInvalidGateway):
		utils.Error(c, http.StatusBadRequest, "INVALID_GATEWAY", "Unknown gateway")
	case errors.Is(err, utils.ErrGatewayNotRegistered):
		utils.Error(c, http.StatusServiceUnavailable, "GATEWAY_NOT_REGISTERED", "Gateway is not configured")
	case errors.Is(err, utils.ErrOperationNotSupported):
		utils.Error(c, http.StatusBadRequest, "OPERATION_NOT_SUPPORTED", "Gateway does not support this operation")
	case errors.Is(err, utils.ErrNoGatewayAvailable):
		utils.Error(c, http.StatusServiceUnavailable, "NO_GATEWAY_AVAILABLE", "No payment gateway is available")
	case errors.Is(err, utils.ErrGatewaysExhausted):
		utils.Error(c, http.StatusBadGateway, "ALL_GATEWAYS_FAILED", "All payment gateways failed")
	case errors.Is(err, utils.ErrTransactionNotFound):
		utils.Error(c, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
	default:
		log.Error().
			Str("request_id", c.GetString("request_id")).
			Str("error", redact.ScrubPANs(err.Error())).
			Msg("Unhandled payment error")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
