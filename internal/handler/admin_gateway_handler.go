package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/repository"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

// GatewayConfigAdmin reads and updates gateway configuration records.
type GatewayConfigAdmin interface {
	List(ctx context.Context) ([]*models.PaymentGatewayConfig, error)
	UpdateStatus(ctx context.Context, gatewayType models.GatewayType, status models.GatewayStatus) error
	SetRouting(ctx context.Context, gatewayType models.GatewayType, primary bool) error
}

// TransactionLogQuery reads the gateway transaction log.
type TransactionLogQuery interface {
	ListByTransactionID(ctx context.Context, transactionID string) ([]models.PaymentGatewayTransaction, error)
	List(ctx context.Context, f repository.TransactionFilter) ([]models.PaymentGatewayTransaction, error)
}

// ConfigInvalidator drops cached configuration after an update.
type ConfigInvalidator interface {
	Invalidate(ctx context.Context) error
}

// GatewayRegistry reports which adapters were registered at startup and
// which provider environment each one talks to.
type GatewayRegistry interface {
	RegisteredGateways() []models.GatewayType
	MatchesEnvironment(gatewayType models.GatewayType, status models.GatewayStatus) bool
}

// AdminGatewayHandler handles admin gateway and transaction log endpoints.
type AdminGatewayHandler struct {
	configs  GatewayConfigAdmin
	logs     TransactionLogQuery
	cache    ConfigInvalidator
	registry GatewayRegistry
}

// NewAdminGatewayHandler constructs an AdminGatewayHandler.
func NewAdminGatewayHandler(configs GatewayConfigAdmin, logs TransactionLogQuery, cache ConfigInvalidator, registry GatewayRegistry) *AdminGatewayHandler {
	return &AdminGatewayHandler{
		configs:  configs,
		logs:     logs,
		cache:    cache,
		registry: registry,
	}
}

type gatewayView struct {
	*models.PaymentGatewayConfig
	Registered bool `json:"registered"`
	// RestartRequired is set when the adapter serves the other environment;
	// payments skip the gateway until the service restarts.
	RestartRequired bool `json:"restartRequired"`
}

// ListGateways handles GET /v1/admin/gateways
func (h *AdminGatewayHandler) ListGateways(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list gateway configs")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve gateways")
		return
	}

	registered := make(map[models.GatewayType]bool)
	if h.registry != nil {
		for _, t := range h.registry.RegisteredGateways() {
			registered[t] = true
		}
	}

	views := make([]gatewayView, 0, len(configs))
	for _, cfg := range configs {
		views = append(views, gatewayView{
			PaymentGatewayConfig: cfg,
			Registered:           registered[cfg.GatewayType],
			RestartRequired:      registered[cfg.GatewayType] && !h.registry.MatchesEnvironment(cfg.GatewayType, cfg.Status),
		})
	}
	utils.Success(c, http.StatusOK, "Gateways retrieved", views)
}

// UpdateGatewayStatus handles PUT /v1/admin/gateways/:type/status
func (h *AdminGatewayHandler) UpdateGatewayStatus(c *gin.Context) {
	gatewayType, ok := gatewayParam(c)
	if !ok {
		return
	}

	var req struct {
		Status models.GatewayStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	switch req.Status {
	case models.GatewayStatusActive, models.GatewayStatusInactive, models.GatewayStatusTesting:
	default:
		utils.Error(c, http.StatusBadRequest, "INVALID_STATUS", "Status must be 'active', 'inactive', or 'testing'")
		return
	}

	if err := h.configs.UpdateStatus(c.Request.Context(), gatewayType, req.Status); err != nil {
		h.writeUpdateError(c, err)
		return
	}
	h.invalidate(c)

	restart := h.registry != nil && !h.registry.MatchesEnvironment(gatewayType, req.Status)
	if restart {
		log.Warn().
			Str("gateway", string(gatewayType)).
			Str("status", string(req.Status)).
			Msg("Gateway adapter serves the other environment; skipped for payments until restart")
	}

	log.Info().
		Str("gateway", string(gatewayType)).
		Str("status", string(req.Status)).
		Int("admin_user_id", c.GetInt("user_id")).
		Msg("Gateway status updated")
	utils.Success(c, http.StatusOK, "Gateway status updated", gin.H{
		"gateway":         gatewayType,
		"status":          req.Status,
		"restartRequired": restart,
	})
}

// UpdateGatewayRouting handles PUT /v1/admin/gateways/:type/routing
func (h *AdminGatewayHandler) UpdateGatewayRouting(c *gin.Context) {
	gatewayType, ok := gatewayParam(c)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Role != "primary" && req.Role != "backup") {
		utils.Error(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be 'primary' or 'backup'")
		return
	}

	if err := h.configs.SetRouting(c.Request.Context(), gatewayType, req.Role == "primary"); err != nil {
		h.writeUpdateError(c, err)
		return
	}
	h.invalidate(c)

	log.Info().
		Str("gateway", string(gatewayType)).
		Str("role", req.Role).
		Int("admin_user_id", c.GetInt("user_id")).
		Msg("Gateway routing updated")
	utils.Success(c, http.StatusOK, "Gateway routing updated", gin.H{"gateway": gatewayType, "role": req.Role})
}

// ListTransactions handles GET /v1/admin/transactions
func (h *AdminGatewayHandler) ListTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	records, err := h.logs.List(c.Request.Context(), repository.TransactionFilter{
		Gateway: models.GatewayType(c.Query("gateway")),
		Status:  models.TransactionStatus(c.Query("status")),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list gateway transactions")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve transactions")
		return
	}
	utils.SuccessPage(c, "Transactions retrieved", records, utils.Page{Limit: limit, Offset: offset, Returned: len(records)})
}

// GetTransaction handles GET /v1/admin/transactions/:transactionId
func (h *AdminGatewayHandler) GetTransaction(c *gin.Context) {
	records, err := h.logs.ListByTransactionID(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to get gateway transaction")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve transaction")
		return
	}
	if len(records) == 0 {
		utils.Error(c, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
		return
	}
	utils.Success(c, http.StatusOK, "Transaction retrieved", records)
}

func (h *AdminGatewayHandler) invalidate(c *gin.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate gateway config cache")
	}
}

func (h *AdminGatewayHandler) writeUpdateError(c *gin.Context, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", "Gateway config not found")
		return
	}
	log.Error().Err(err).Msg("Failed to update gateway config")
	utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update gateway")
}

func gatewayParam(c *gin.Context) (models.GatewayType, bool) {
	t := models.GatewayType(c.Param("type"))
	if !t.IsValid() {
		utils.Error(c, http.StatusBadRequest, "INVALID_GATEWAY", "Unknown gateway")
		return "", false
	}
	return t, true
}
