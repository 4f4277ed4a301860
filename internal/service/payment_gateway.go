package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/internal/metrics"
	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
	"github.com/GTDGit/gtd_payments/pkg/redact"
)

// ConfigStore reads gateway configuration records. Missing records are
// returned as nil with a nil error.
type ConfigStore interface {
	GetActive(ctx context.Context) ([]*models.PaymentGatewayConfig, error)
	GetPrimary(ctx context.Context) (*models.PaymentGatewayConfig, error)
	GetBackup(ctx context.Context) (*models.PaymentGatewayConfig, error)
	GetByType(ctx context.Context, gatewayType models.GatewayType) (*models.PaymentGatewayConfig, error)
}

// TransactionLogStore appends gateway transaction records.
type TransactionLogStore interface {
	Append(ctx context.Context, record *models.PaymentGatewayTransaction) (int64, error)
}

// TransactionLogReader looks up logged attempts by transaction id.
type TransactionLogReader interface {
	ListByTransactionID(ctx context.Context, transactionID string) ([]models.PaymentGatewayTransaction, error)
}

// Skip reasons for gateways left out of an attempt
const (
	skipNotRegistered       = "not_registered"
	skipCardRequired        = "card_required"
	skipCurrencyUnsupported = "currency_not_supported"
	skipAmountOutOfRange    = "amount_out_of_range"
	skipEnvironmentMismatch = "environment_mismatch"
)

// PaymentGateway selects a gateway, runs a payment with failover across the
// registered adapters, and writes a sanitized log record per completed attempt.
//
// Adapters are registered at startup; the registry is read-only while serving
// so PaymentGateway is safe for concurrent use.
type PaymentGateway struct {
	configs  ConfigStore
	logs     TransactionLogStore
	adapters map[models.GatewayType]GatewayAdapter
	envs     map[models.GatewayType]adapterEnv
	now      func() time.Time
	newID    func() string
}

// adapterEnv is the provider environment an adapter was built for. pinned
// adapters were forced into the sandbox for the whole process.
type adapterEnv struct {
	sandbox bool
	pinned  bool
}

// NewPaymentGateway creates a new PaymentGateway
func NewPaymentGateway(configs ConfigStore, logs TransactionLogStore) *PaymentGateway {
	return &PaymentGateway{
		configs:  configs,
		logs:     logs,
		adapters: make(map[models.GatewayType]GatewayAdapter),
		envs:     make(map[models.GatewayType]adapterEnv),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// RegisterAdapter adds an adapter. Call before serving requests.
func (p *PaymentGateway) RegisterAdapter(adapter GatewayAdapter) {
	p.adapters[adapter.Type()] = adapter
}

// SetAdapterEnvironment records whether the adapter for gatewayType talks to
// the provider sandbox. pinned means every adapter was forced into the
// sandbox, so config status no longer selects the environment. Call before
// serving requests.
func (p *PaymentGateway) SetAdapterEnvironment(gatewayType models.GatewayType, sandbox, pinned bool) {
	p.envs[gatewayType] = adapterEnv{sandbox: sandbox, pinned: pinned}
}

// MatchesEnvironment reports whether the registered adapter for gatewayType
// serves a config in status. A gateway switched between active and testing
// after startup does not match until the adapter is rebuilt.
func (p *PaymentGateway) MatchesEnvironment(gatewayType models.GatewayType, status models.GatewayStatus) bool {
	env, ok := p.envs[gatewayType]
	if !ok || env.pinned || status == models.GatewayStatusInactive {
		return true
	}
	return env.sandbox == (status == models.GatewayStatusTesting)
}

// Adapter returns the registered adapter for gatewayType
func (p *PaymentGateway) Adapter(gatewayType models.GatewayType) (GatewayAdapter, bool) {
	a, ok := p.adapters[gatewayType]
	return a, ok
}

// RegisteredGateways returns registered gateway types in the fixed fallback order
func (p *PaymentGateway) RegisteredGateways() []models.GatewayType {
	out := make([]models.GatewayType, 0, len(p.adapters))
	for _, t := range models.GatewayFallbackOrder {
		if _, ok := p.adapters[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// SelectGateway picks the first gateway to try: the preferred gateway if its
// config is active, else the active primary, else the first active gateway in
// the fixed fallback order. ok is false when nothing is usable.
func (p *PaymentGateway) SelectGateway(ctx context.Context, preferred models.GatewayType) (models.GatewayType, bool, error) {
	if preferred != "" {
		cfg, err := p.configs.GetByType(ctx, preferred)
		if err != nil {
			return "", false, fmt.Errorf("failed to get %s config: %w", preferred, err)
		}
		if cfg != nil && cfg.IsActive() {
			return preferred, true, nil
		}
	}

	primary, err := p.configs.GetPrimary(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to get primary config: %w", err)
	}
	if primary != nil && primary.IsActive() {
		return primary.GatewayType, true, nil
	}

	active, err := p.configs.GetActive(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to get active configs: %w", err)
	}
	activeSet := make(map[models.GatewayType]bool, len(active))
	for _, cfg := range active {
		if cfg.IsActive() {
			activeSet[cfg.GatewayType] = true
		}
	}
	for _, t := range models.GatewayFallbackOrder {
		if activeSet[t] {
			return t, true, nil
		}
	}
	return "", false, nil
}

// ProcessPayment charges req, trying gateways in attempt-queue order until
// one returns a result. A decline is a result and stops the loop; only adapter
// errors move on to the next gateway. When every gateway fails the error is
// an *ExhaustedError carrying the last cause.
func (p *PaymentGateway) ProcessPayment(ctx context.Context, req *models.PaymentRequest, preferred models.GatewayType) (*models.PaymentResponse, error) {
	if req == nil {
		return nil, utils.ErrInvalidRequest
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %w", utils.ErrInvalidAmount, models.ErrAmountNotPositive)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrInvalidRequest, err)
	}

	selected, ok, err := p.SelectGateway(ctx, preferred)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.ErrNoGatewayAvailable
	}

	backup, err := p.configs.GetBackup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get backup config: %w", err)
	}
	active, err := p.configs.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active configs: %w", err)
	}

	var backupType models.GatewayType
	if backup != nil {
		backupType = backup.GatewayType
	}
	queue := BuildAttemptQueue(selected, backupType, active, p.RegisteredGateways())

	configs := make(map[models.GatewayType]*models.PaymentGatewayConfig, len(active)+1)
	for _, cfg := range active {
		configs[cfg.GatewayType] = cfg
	}
	if backup != nil {
		configs[backup.GatewayType] = backup
	}

	transactionID := p.newID()
	fo := newFailover(queue)

	log.Debug().
		Str("transaction_id", transactionID).
		Str("selected", string(selected)).
		Interface("queue", queue).
		Msg("Starting gateway execution")

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			fo.abort(ctxErr)
			break
		}

		gw, ok := fo.next()
		if !ok {
			break
		}

		adapter, registered := p.adapters[gw]
		if !registered {
			p.skip(fo, transactionID, gw, skipNotRegistered)
			continue
		}
		cfg, known := configs[gw]
		if !known {
			// Not active and not the backup: the record may still carry limits.
			if cfg, err = p.configs.GetByType(ctx, gw); err != nil {
				log.Warn().Err(err).Str("gateway", string(gw)).Msg("Failed to load gateway config")
				cfg = nil
			}
		}
		if cfg != nil && !p.MatchesEnvironment(gw, cfg.Status) {
			p.skip(fo, transactionID, gw, skipEnvironmentMismatch)
			continue
		}
		if reason := eligibility(gw, cfg, req); reason != "" {
			p.skip(fo, transactionID, gw, reason)
			continue
		}

		log.Info().
			Str("transaction_id", transactionID).
			Str("gateway", string(gw)).
			Str("amount", req.Amount.String()).
			Str("currency", req.Currency).
			Msg("Trying gateway")

		start := p.now()
		resp, err := adapter.ProcessPayment(ctx, req)
		elapsed := p.now().Sub(start)
		if err == nil && resp == nil {
			err = fmt.Errorf("%s returned no response", gw)
		}

		if err != nil {
			metrics.ObserveAttempt(string(gw), string(models.OperationPayment), metrics.OutcomeError, elapsed)
			log.Warn().
				Str("transaction_id", transactionID).
				Str("gateway", string(gw)).
				Str("error", redact.ScrubPANs(err.Error())).
				Dur("elapsed", elapsed).
				Msg("Gateway error, moving to next gateway")
			fo.fail(err)
			continue
		}

		fo.succeed()
		outcome := metrics.OutcomeSuccess
		if !resp.Success {
			outcome = metrics.OutcomeDecline
		}
		metrics.ObserveAttempt(string(gw), string(models.OperationPayment), outcome, elapsed)
		if len(fo.tried) > 1 {
			metrics.Failovers.Inc()
		}

		resp.TransactionID = transactionID
		resp.Gateway = gw
		if resp.Currency == "" {
			resp.Currency = req.Currency
		}
		if resp.Amount.IsZero() {
			resp.Amount = req.Amount
		}

		log.Info().
			Str("transaction_id", transactionID).
			Str("gateway", string(gw)).
			Str("gateway_transaction_id", resp.GatewayTransactionID).
			Str("status", string(resp.Status)).
			Bool("success", resp.Success).
			Dur("elapsed", elapsed).
			Msg("Gateway returned result")

		p.logPayment(ctx, req, resp)
		return resp, nil
	}

	metrics.Exhausted.Inc()
	exhausted := fo.err()
	log.Error().
		Str("transaction_id", transactionID).
		Interface("attempted", exhausted.Attempted).
		Str("error", exhausted.Error()).
		Msg("All gateways failed")
	return nil, exhausted
}

func (p *PaymentGateway) skip(fo *failover, transactionID string, gw models.GatewayType, reason string) {
	fo.skip()
	metrics.ObserveAttempt(string(gw), string(models.OperationPayment), metrics.OutcomeSkipped, 0)
	log.Debug().
		Str("transaction_id", transactionID).
		Str("gateway", string(gw)).
		Str("reason", reason).
		Msg("Skipping gateway")
}

// eligibility returns a skip reason, or "" when gw may be attempted.
func eligibility(gw models.GatewayType, cfg *models.PaymentGatewayConfig, req *models.PaymentRequest) string {
	if gw == models.GatewayCyberSource && !req.HasCard() {
		return skipCardRequired
	}
	if cfg == nil {
		return ""
	}
	if !cfg.SupportsCurrency(req.Currency) {
		return skipCurrencyUnsupported
	}
	if !cfg.AmountAllowed(req.Amount) {
		return skipAmountOutOfRange
	}
	return ""
}

// RefundPayment refunds a transaction on the gateway that processed it
func (p *PaymentGateway) RefundPayment(ctx context.Context, req *models.RefundRequest, gateway models.GatewayType) (*models.RefundResponse, error) {
	if req == nil || req.GatewayTransactionID == "" {
		return nil, fmt.Errorf("%w: gateway_transaction_id is required", utils.ErrInvalidRequest)
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, utils.ErrInvalidAmount
	}
	adapter, err := p.adapter(gateway)
	if err != nil {
		return nil, err
	}

	req = p.completeRefund(ctx, req, gateway)
	if req.IsPartial() && req.Currency == "" {
		return nil, fmt.Errorf("%w: currency is required for a partial refund", utils.ErrInvalidRequest)
	}

	start := p.now()
	resp, err := adapter.RefundPayment(ctx, req)
	elapsed := p.now().Sub(start)
	if err != nil {
		metrics.ObserveAttempt(string(gateway), string(models.OperationRefund), metrics.OutcomeError, elapsed)
		return nil, fmt.Errorf("%s refund failed: %w", gateway, err)
	}
	metrics.ObserveAttempt(string(gateway), string(models.OperationRefund), outcomeOf(resp.Success), elapsed)

	resp.Gateway = gateway
	if resp.TransactionID == "" {
		resp.TransactionID = req.TransactionID
	}

	p.appendLog(ctx, &models.PaymentGatewayTransaction{
		TransactionID:        logTransactionID(req.TransactionID, req.GatewayTransactionID),
		GatewayTransactionID: models.StrPtr(resp.RefundID),
		Gateway:              gateway,
		Operation:            models.OperationRefund,
		TransactionType:      models.TrxTypeRefund,
		Amount:               amountOrZero(resp.Amount),
		Currency:             resp.Currency,
		Status:               resp.Status,
		Success:              resp.Success,
		CardLast4:            models.StrPtr(req.CardLast4),
		ErrorCode:            models.StrPtr(resp.ErrorCode),
		ErrorMessage:         models.StrPtr(redact.ScrubPANs(resp.ErrorMessage)),
		RawRequest:           models.NullableRawMessage(redact.Struct(req)),
		RawResponse:          sanitizedResponse(resp.RawResponse, resp),
	})
	return resp, nil
}

// VoidTransaction voids a transaction on the gateway that processed it
func (p *PaymentGateway) VoidTransaction(ctx context.Context, transactionID string, gateway models.GatewayType) (*models.PaymentResponse, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", utils.ErrInvalidRequest)
	}
	adapter, err := p.adapter(gateway)
	if err != nil {
		return nil, err
	}

	start := p.now()
	resp, err := adapter.VoidTransaction(ctx, transactionID)
	elapsed := p.now().Sub(start)
	if err != nil {
		metrics.ObserveAttempt(string(gateway), string(models.OperationVoid), metrics.OutcomeError, elapsed)
		return nil, fmt.Errorf("%s void failed: %w", gateway, err)
	}
	metrics.ObserveAttempt(string(gateway), string(models.OperationVoid), outcomeOf(resp.Success), elapsed)

	resp.Gateway = gateway
	if resp.TransactionID == "" {
		resp.TransactionID = transactionID
	}
	p.logFollowOn(ctx, models.OperationVoid, models.TrxTypeVoid, map[string]string{"transaction_id": transactionID}, resp)
	return resp, nil
}

// CaptureAuthorization captures an authorization on the gateway that holds it.
// A nil amount captures the full authorized amount.
func (p *PaymentGateway) CaptureAuthorization(ctx context.Context, req *models.CaptureRequest, gateway models.GatewayType) (*models.PaymentResponse, error) {
	if req == nil || req.TransactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", utils.ErrInvalidRequest)
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, utils.ErrInvalidAmount
	}
	adapter, err := p.adapter(gateway)
	if err != nil {
		return nil, err
	}

	req = p.completeCapture(ctx, req, gateway)
	if req.Amount != nil && req.Currency == "" {
		return nil, fmt.Errorf("%w: currency is required for a partial capture", utils.ErrInvalidRequest)
	}

	start := p.now()
	resp, err := adapter.CaptureAuthorization(ctx, req)
	elapsed := p.now().Sub(start)
	if err != nil {
		metrics.ObserveAttempt(string(gateway), string(models.OperationCapture), metrics.OutcomeError, elapsed)
		return nil, fmt.Errorf("%s capture failed: %w", gateway, err)
	}
	metrics.ObserveAttempt(string(gateway), string(models.OperationCapture), outcomeOf(resp.Success), elapsed)

	resp.Gateway = gateway
	if resp.TransactionID == "" {
		resp.TransactionID = req.TransactionID
	}
	p.logFollowOn(ctx, models.OperationCapture, models.TrxTypeCapture, req, resp)
	return resp, nil
}

// TokenizePaymentMethod stores a card with a gateway that supports it
func (p *PaymentGateway) TokenizePaymentMethod(ctx context.Context, req *models.TokenizeRequest, gateway models.GatewayType) (*models.TokenizeResponse, error) {
	if req == nil || req.Card.Number == "" {
		return nil, fmt.Errorf("%w: card is required", utils.ErrInvalidRequest)
	}
	adapter, err := p.adapter(gateway)
	if err != nil {
		return nil, err
	}
	tokenizer, ok := adapter.(PaymentMethodTokenizer)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot tokenize payment methods", utils.ErrOperationNotSupported, gateway)
	}
	resp, err := tokenizer.TokenizePaymentMethod(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s tokenize failed: %w", gateway, err)
	}
	resp.Gateway = gateway
	return resp, nil
}

// VerifyPaymentMethod checks a stored payment method with a gateway that supports it
func (p *PaymentGateway) VerifyPaymentMethod(ctx context.Context, token string, gateway models.GatewayType) (*models.VerifyResult, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", utils.ErrInvalidRequest)
	}
	adapter, err := p.adapter(gateway)
	if err != nil {
		return nil, err
	}
	verifier, ok := adapter.(PaymentMethodVerifier)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot verify payment methods", utils.ErrOperationNotSupported, gateway)
	}
	result, err := verifier.VerifyPaymentMethod(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s verify failed: %w", gateway, err)
	}
	return result, nil
}

// ResolveTransaction maps an id to the gateway and gateway-native id that
// produced it. Ids the log does not know are returned as given.
func (p *PaymentGateway) ResolveTransaction(ctx context.Context, id string) (models.GatewayType, string, error) {
	reader, ok := p.logs.(TransactionLogReader)
	if !ok {
		return "", id, nil
	}
	records, err := reader.ListByTransactionID(ctx, id)
	if err != nil {
		return "", "", fmt.Errorf("failed to look up transaction: %w", err)
	}
	for _, r := range records {
		if r.Operation == models.OperationPayment && r.GatewayTransactionID != nil {
			return r.Gateway, *r.GatewayTransactionID, nil
		}
	}
	return "", id, nil
}

// completeRefund fills the amount, currency and card digits a refund left
// out from the logged payment it refers to. An omitted amount becomes what
// is left after earlier successful refunds.
func (p *PaymentGateway) completeRefund(ctx context.Context, req *models.RefundRequest, gateway models.GatewayType) *models.RefundRequest {
	payment, history := p.loggedPayment(ctx, gateway, req.GatewayTransactionID, req.TransactionID)
	if payment == nil {
		return req
	}

	out := *req
	if out.TransactionID == "" {
		out.TransactionID = payment.TransactionID
	}
	if out.Currency == "" {
		out.Currency = payment.Currency
	}
	if out.CardLast4 == "" && payment.CardLast4 != nil {
		out.CardLast4 = *payment.CardLast4
	}
	if out.Amount == nil {
		remaining := payment.Amount
		for _, r := range history {
			if r.Operation == models.OperationRefund && r.Success && r.Gateway == gateway {
				remaining = remaining.Sub(r.Amount)
			}
		}
		if remaining.IsPositive() {
			out.Amount = &remaining
		}
	}
	return &out
}

// completeCapture fills an omitted amount and currency from the logged
// authorization.
func (p *PaymentGateway) completeCapture(ctx context.Context, req *models.CaptureRequest, gateway models.GatewayType) *models.CaptureRequest {
	payment, _ := p.loggedPayment(ctx, gateway, req.TransactionID)
	if payment == nil {
		return req
	}

	out := *req
	if out.Currency == "" {
		out.Currency = payment.Currency
	}
	if out.Amount == nil && payment.Amount.IsPositive() {
		amount := payment.Amount
		out.Amount = &amount
	}
	return &out
}

// loggedPayment finds the payment record on gateway matching the first id
// the log knows, along with every record of that transaction. A lookup
// failure is logged and treated as unknown.
func (p *PaymentGateway) loggedPayment(ctx context.Context, gateway models.GatewayType, ids ...string) (*models.PaymentGatewayTransaction, []models.PaymentGatewayTransaction) {
	reader, ok := p.logs.(TransactionLogReader)
	if !ok {
		return nil, nil
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		records, err := reader.ListByTransactionID(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("gateway", string(gateway)).Msg("Failed to look up logged payment")
			return nil, nil
		}
		for i := range records {
			r := records[i]
			if r.Operation != models.OperationPayment || r.Gateway != gateway || r.GatewayTransactionID == nil {
				continue
			}
			if r.TransactionID != id {
				// Matched on the gateway id; refunds are filed under ours.
				if records, err = reader.ListByTransactionID(ctx, r.TransactionID); err != nil {
					log.Warn().Err(err).Str("gateway", string(gateway)).Msg("Failed to look up refund history")
					records = nil
				}
			}
			return &r, records
		}
	}
	return nil, nil
}

func (p *PaymentGateway) adapter(gateway models.GatewayType) (GatewayAdapter, error) {
	if !gateway.IsValid() {
		return nil, fmt.Errorf("%w: %q", utils.ErrInvalidGateway, gateway)
	}
	adapter, ok := p.adapters[gateway]
	if !ok {
		return nil, fmt.Errorf("%w: %s", utils.ErrGatewayNotRegistered, gateway)
	}
	return adapter, nil
}

// logPayment writes the sanitized record of a completed payment attempt
func (p *PaymentGateway) logPayment(ctx context.Context, req *models.PaymentRequest, resp *models.PaymentResponse) {
	cardLast4 := resp.CardLast4
	if cardLast4 == "" && req.Card != nil {
		cardLast4 = req.Card.Last4()
	}
	trxType := req.TransactionType
	if trxType == "" {
		trxType = models.TrxTypeAuthorize
		if req.ShouldCapture() {
			trxType = models.TrxTypeAuthCapture
		}
	}

	p.appendLog(ctx, &models.PaymentGatewayTransaction{
		TransactionID:        resp.TransactionID,
		GatewayTransactionID: models.StrPtr(resp.GatewayTransactionID),
		Gateway:              resp.Gateway,
		Operation:            models.OperationPayment,
		TransactionType:      trxType,
		Amount:               resp.Amount,
		Currency:             resp.Currency,
		Status:               resp.Status,
		Success:              resp.Success,
		CardBrand:            models.StrPtr(resp.CardBrand),
		CardLast4:            models.StrPtr(cardLast4),
		CustomerEmail:        models.StrPtr(redact.MaskEmail(req.Customer.Email)),
		ErrorCode:            models.StrPtr(resp.ErrorCode),
		ErrorMessage:         models.StrPtr(redact.ScrubPANs(resp.ErrorMessage)),
		RawRequest:           models.NullableRawMessage(redact.Struct(req)),
		RawResponse:          sanitizedResponse(resp.RawResponse, resp),
		IPAddress:            models.StrPtr(req.IPAddress),
		UserAgent:            models.StrPtr(req.UserAgent),
	})
}

// logFollowOn writes the sanitized record of a void or capture
func (p *PaymentGateway) logFollowOn(ctx context.Context, op models.GatewayOperation, trxType models.TransactionType, req any, resp *models.PaymentResponse) {
	p.appendLog(ctx, &models.PaymentGatewayTransaction{
		TransactionID:        logTransactionID(resp.TransactionID, resp.GatewayTransactionID),
		GatewayTransactionID: models.StrPtr(resp.GatewayTransactionID),
		Gateway:              resp.Gateway,
		Operation:            op,
		TransactionType:      trxType,
		Amount:               resp.Amount,
		Currency:             resp.Currency,
		Status:               resp.Status,
		Success:              resp.Success,
		CardBrand:            models.StrPtr(resp.CardBrand),
		CardLast4:            models.StrPtr(resp.CardLast4),
		ErrorCode:            models.StrPtr(resp.ErrorCode),
		ErrorMessage:         models.StrPtr(redact.ScrubPANs(resp.ErrorMessage)),
		RawRequest:           models.NullableRawMessage(redact.Struct(req)),
		RawResponse:          sanitizedResponse(resp.RawResponse, resp),
	})
}

// appendLog writes record and swallows any failure: a log fault must never
// change the outcome returned to the caller.
func (p *PaymentGateway) appendLog(ctx context.Context, record *models.PaymentGatewayTransaction) {
	if p.logs == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.LogWriteFailures.Inc()
			log.Error().Interface("panic", r).Str("transaction_id", record.TransactionID).Msg("Transaction log write panicked")
		}
	}()

	record.CreatedAt = p.now().UTC()
	// A cancelled request must not drop the audit record of a charge that happened.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	id, err := p.logs.Append(logCtx, record)
	if err != nil {
		metrics.LogWriteFailures.Inc()
		log.Error().
			Str("transaction_id", record.TransactionID).
			Str("gateway", string(record.Gateway)).
			Str("error", redact.ScrubPANs(err.Error())).
			Msg("Failed to write gateway transaction log")
		return
	}
	record.ID = id
}

func sanitizedResponse(raw []byte, resp any) models.NullableRawMessage {
	if len(raw) > 0 {
		return models.NullableRawMessage(redact.JSON(raw))
	}
	return models.NullableRawMessage(redact.Struct(resp))
}

func logTransactionID(ids ...string) string {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return ""
}

func outcomeOf(success bool) string {
	if success {
		return metrics.OutcomeSuccess
	}
	return metrics.OutcomeDecline
}
