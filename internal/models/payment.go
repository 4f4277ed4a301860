package models

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of operation a payment request asks for.
type TransactionType string

const (
	TrxTypeAuthorize   TransactionType = "authorize"
	TrxTypeCapture     TransactionType = "capture"
	TrxTypeAuthCapture TransactionType = "auth_capture"
	TrxTypeVoid        TransactionType = "void"
	TrxTypeRefund      TransactionType = "refund"
	TrxTypeVerify      TransactionType = "verify"
)

// Customer identifies the payer. Email is required.
type Customer struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// FirstLastName splits Name on the first space.
func (c Customer) FirstLastName() (string, string) {
	name := strings.TrimSpace(c.Name)
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

// CardDetails carries raw cardholder data. It must never be logged as is.
type CardDetails struct {
	Number     string `json:"number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVV        string `json:"cvv,omitempty"`
	HolderName string `json:"holder_name,omitempty"`
}

// Last4 returns the last four digits of the PAN.
func (c *CardDetails) Last4() string {
	digits := onlyDigits(c.Number)
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// Address is a postal address.
type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// LineItem is one cart line.
type LineItem struct {
	SKU       string          `json:"sku,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PaymentRequest is the canonical charge request accepted by every gateway.
type PaymentRequest struct {
	Amount             decimal.Decimal   `json:"amount"`
	Currency           string            `json:"currency"`
	Customer           Customer          `json:"customer"`
	PaymentMethodToken string            `json:"payment_method_token,omitempty"`
	Card               *CardDetails      `json:"card,omitempty"`
	BillingAddress     *Address          `json:"billing_address,omitempty"`
	ShippingAddress    *Address          `json:"shipping_address,omitempty"`
	Items              []LineItem        `json:"items,omitempty"`
	TransactionType    TransactionType   `json:"transaction_type,omitempty"`
	CaptureNow         bool              `json:"capture_now"`
	Description        string            `json:"description,omitempty"`
	OrderReference     string            `json:"order_reference,omitempty"`
	GatewayOrderID     string            `json:"gateway_order_id,omitempty"`
	ReturnURL          string            `json:"return_url,omitempty"`
	CancelURL          string            `json:"cancel_url,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// HasCard reports whether raw card fields are present.
func (r *PaymentRequest) HasCard() bool {
	return r.Card != nil && strings.TrimSpace(r.Card.Number) != ""
}

// ShouldCapture reports whether funds are captured immediately.
func (r *PaymentRequest) ShouldCapture() bool {
	switch r.TransactionType {
	case TrxTypeAuthorize, TrxTypeVerify:
		return false
	case TrxTypeAuthCapture, TrxTypeCapture:
		return true
	}
	return r.CaptureNow
}

// Country returns the billing country, if any.
func (r *PaymentRequest) Country() string {
	if r.BillingAddress != nil {
		return r.BillingAddress.Country
	}
	return ""
}

// Validation errors returned by PaymentRequest.Validate.
var (
	ErrAmountNotPositive  = errors.New("amount must be greater than zero")
	ErrCurrencyRequired   = errors.New("currency is required")
	ErrEmailRequired      = errors.New("customer email is required")
	ErrPaymentMethodUnset = errors.New("either payment_method_token or card is required")
)

// Validate checks the request invariants that do not depend on a gateway.
func (r *PaymentRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if len(strings.TrimSpace(r.Currency)) != 3 {
		return ErrCurrencyRequired
	}
	if strings.TrimSpace(r.Customer.Email) == "" {
		return ErrEmailRequired
	}
	if r.HasCard() || strings.TrimSpace(r.PaymentMethodToken) != "" {
		return nil
	}
	// Wallet flows (PayPal) fund the payment from an approved order, or
	// create one and redirect the buyer to ReturnURL.
	if r.GatewayOrderID != "" || r.ReturnURL != "" {
		return nil
	}
	return ErrPaymentMethodUnset
}

// PaymentResponse is the canonical outcome of any gateway operation.
type PaymentResponse struct {
	Success              bool              `json:"success"`
	Status               TransactionStatus `json:"status"`
	TransactionID        string            `json:"transaction_id"`
	GatewayTransactionID string            `json:"gateway_transaction_id,omitempty"`
	Gateway              GatewayType       `json:"gateway"`
	Amount               decimal.Decimal   `json:"amount"`
	Currency             string            `json:"currency,omitempty"`
	CardBrand            string            `json:"card_brand,omitempty"`
	CardLast4            string            `json:"card_last4,omitempty"`
	AVSResult            string            `json:"avs_result,omitempty"`
	CVVResult            string            `json:"cvv_result,omitempty"`
	RiskScore            *float64          `json:"risk_score,omitempty"`
	RequiresAction       bool              `json:"requires_action,omitempty"`
	RedirectURL          string            `json:"redirect_url,omitempty"`
	ErrorCode            string            `json:"error_code,omitempty"`
	ErrorMessage         string            `json:"error_message,omitempty"`
	DeclineReason        string            `json:"decline_reason,omitempty"`
	RawResponse          json.RawMessage   `json:"-"`
}

// RefundRequest refunds a committed transaction. A nil Amount is a full refund.
type RefundRequest struct {
	TransactionID        string           `json:"transaction_id"`
	GatewayTransactionID string           `json:"gateway_transaction_id"`
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	Currency             string           `json:"currency,omitempty"`
	Reason               string           `json:"reason,omitempty"`
	CardLast4            string           `json:"card_last4,omitempty"`
}

// IsPartial reports whether a specific amount was requested.
func (r *RefundRequest) IsPartial() bool {
	return r.Amount != nil
}

// RefundResponse is the canonical refund outcome.
type RefundResponse struct {
	Success              bool              `json:"success"`
	Status               TransactionStatus `json:"status"`
	RefundID             string            `json:"refund_id"`
	TransactionID        string            `json:"transaction_id"`
	GatewayTransactionID string            `json:"gateway_transaction_id,omitempty"`
	Gateway              GatewayType       `json:"gateway"`
	Amount               *decimal.Decimal  `json:"amount,omitempty"`
	Currency             string            `json:"currency,omitempty"`
	ErrorCode            string            `json:"error_code,omitempty"`
	ErrorMessage         string            `json:"error_message,omitempty"`
	RawResponse          json.RawMessage   `json:"-"`
}

// CaptureRequest captures a prior authorization. A nil Amount captures the
// full authorized amount.
type CaptureRequest struct {
	TransactionID string           `json:"transaction_id"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency,omitempty"`
}

// TokenizeRequest stores a card with the provider and returns a reusable token.
type TokenizeRequest struct {
	Card           CardDetails `json:"card"`
	Customer       Customer    `json:"customer"`
	BillingAddress *Address    `json:"billing_address,omitempty"`
}

// TokenizeResponse carries the provider-native token and masked card data.
type TokenizeResponse struct {
	Success      bool        `json:"success"`
	Token        string      `json:"token,omitempty"`
	Gateway      GatewayType `json:"gateway"`
	CardBrand    string      `json:"card_brand,omitempty"`
	CardLast4    string      `json:"card_last4,omitempty"`
	ErrorCode    string      `json:"error_code,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// VerifyResult is the outcome of verifying a stored payment method.
type VerifyResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
