package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

// GatewayAdapter is implemented by every payment provider integration.
//
// Declines and predictable provider errors come back as a response with
// Success=false. A returned error means the attempt itself failed (network,
// timeout, 5xx, bad credentials) and the orchestrator may try another gateway.
type GatewayAdapter interface {
	// Type returns the gateway type
	Type() models.GatewayType

	// ProcessPayment performs one charge or authorization
	ProcessPayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error)

	// RefundPayment refunds a committed transaction
	RefundPayment(ctx context.Context, req *models.RefundRequest) (*models.RefundResponse, error)

	// VoidTransaction cancels a transaction before settlement
	VoidTransaction(ctx context.Context, transactionID string) (*models.PaymentResponse, error)

	// CaptureAuthorization captures a held authorization
	CaptureAuthorization(ctx context.Context, req *models.CaptureRequest) (*models.PaymentResponse, error)
}

// PaymentMethodTokenizer is implemented by adapters that can store a card.
type PaymentMethodTokenizer interface {
	TokenizePaymentMethod(ctx context.Context, req *models.TokenizeRequest) (*models.TokenizeResponse, error)
}

// PaymentMethodVerifier is implemented by adapters that can check a stored card.
type PaymentMethodVerifier interface {
	VerifyPaymentMethod(ctx context.Context, token string) (*models.VerifyResult, error)
}

// AdapterOptions controls how an adapter reaches its provider.
type AdapterOptions struct {
	Sandbox bool
	Timeout time.Duration
	// BaseURL overrides the provider endpoint.
	BaseURL string
}

// Credential keys read from models.Credentials. The first non-empty alias wins.
var (
	credStripeSecretKey         = []string{"secret_key", "api_key"}
	credPayPalClientID          = []string{"client_id"}
	credPayPalClientSecret      = []string{"client_secret", "secret"}
	credAuthorizeNetLoginID     = []string{"api_login_id", "login_id"}
	credAuthorizeNetTxnKey      = []string{"transaction_key"}
	credCyberSourceMerchantID   = []string{"merchant_id"}
	credCyberSourceKeyID        = []string{"key_id", "api_key_id"}
	credCyberSourceSharedSecret = []string{"shared_secret", "secret_key"}
)

// NewGatewayAdapter builds the adapter for gatewayType. It fails with
// utils.ErrMissingCredentials when a required credential is absent, so a
// registry built from it only holds adapters ready to make calls.
func NewGatewayAdapter(gatewayType models.GatewayType, creds models.Credentials, opts AdapterOptions) (GatewayAdapter, error) {
	switch gatewayType {
	case models.GatewayStripe:
		return NewStripeAdapter(creds.Get(credStripeSecretKey...), opts)
	case models.GatewayPayPal:
		return NewPayPalAdapter(creds.Get(credPayPalClientID...), creds.Get(credPayPalClientSecret...), opts)
	case models.GatewayAuthorizeNet:
		return NewAuthorizeNetAdapter(creds.Get(credAuthorizeNetLoginID...), creds.Get(credAuthorizeNetTxnKey...), opts)
	case models.GatewayCyberSource:
		return NewCyberSourceAdapter(
			creds.Get(credCyberSourceMerchantID...),
			creds.Get(credCyberSourceKeyID...),
			creds.Get(credCyberSourceSharedSecret...),
			opts,
		)
	}
	return nil, fmt.Errorf("%w: %s", utils.ErrInvalidGateway, gatewayType)
}

func missingCredentials(gateway models.GatewayType, names ...string) error {
	return fmt.Errorf("%w: %s requires %v", utils.ErrMissingCredentials, gateway, names)
}

// declined builds a canonical decline response.
func declined(gateway models.GatewayType, req *models.PaymentRequest, code, message, reason string) *models.PaymentResponse {
	resp := failed(gateway, req, models.StatusDeclined, code, message)
	resp.DeclineReason = reason
	return resp
}

// failed builds a canonical unsuccessful response.
func failed(gateway models.GatewayType, req *models.PaymentRequest, status models.TransactionStatus, code, message string) *models.PaymentResponse {
	resp := &models.PaymentResponse{
		Success:      false,
		Status:       status,
		Gateway:      gateway,
		ErrorCode:    code,
		ErrorMessage: message,
	}
	if req != nil {
		resp.Amount = req.Amount
		resp.Currency = req.Currency
		if req.Card != nil {
			resp.CardLast4 = req.Card.Last4()
		}
	}
	return resp
}

// amountOrZero dereferences an optional amount.
func amountOrZero(amount *decimal.Decimal) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return *amount
}

// truncate cuts s to at most n bytes; provider fields have hard limits.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
