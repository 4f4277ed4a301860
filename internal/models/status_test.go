package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want TransactionStatus
	}{
		{"SETTLED", StatusApproved},
		{"approved", StatusApproved},
		{"Success", StatusApproved},
		{"succeeded", StatusApproved},
		{"COMPLETED", StatusApproved},
		{"AUTHORIZED", StatusApproved},
		{"requires_capture", StatusApproved},
		{"DECLINED", StatusDeclined},
		{"REJECTED", StatusDeclined},
		{"payment_failed", StatusDeclined},
		{"VOIDED", StatusVoided},
		{"canceled", StatusVoided},
		{"refunded", StatusRefunded},
		{"PENDING", StatusPending},
		{"processing", StatusPending},
		{"AUTHORIZED_PENDING_REVIEW", StatusPending},
		{"requires_action", StatusPending},
		{"server_error", StatusError},
		{"unknown_garbage", StatusError},
		{"", StatusError},
	}
	for _, tt := range tests {
		if got := NormalizeStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMoneyHelpers(t *testing.T) {
	amt := decimal.RequireFromString("49.99")
	if got := MinorUnits(amt, "USD"); got != 4999 {
		t.Errorf("MinorUnits USD = %d", got)
	}
	if got := MinorUnits(decimal.RequireFromString("1500"), "jpy"); got != 1500 {
		t.Errorf("MinorUnits JPY = %d", got)
	}
	if got := FormatAmount(decimal.RequireFromString("10"), "USD"); got != "10.00" {
		t.Errorf("FormatAmount = %q", got)
	}
	if !FromMinorUnits(4999, "USD").Equal(amt) {
		t.Errorf("FromMinorUnits mismatch")
	}
}

func TestPaymentRequestValidate(t *testing.T) {
	base := func() *PaymentRequest {
		return &PaymentRequest{
			Amount:   decimal.RequireFromString("10"),
			Currency: "USD",
			Customer: Customer{Email: "a@b.co"},
			Card:     &CardDetails{Number: "4111111111111111", ExpMonth: 1, ExpYear: 2030},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	zero := base()
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != ErrAmountNotPositive {
		t.Errorf("zero amount: got %v", err)
	}

	neg := base()
	neg.Amount = decimal.RequireFromString("-1")
	if err := neg.Validate(); err != ErrAmountNotPositive {
		t.Errorf("negative amount: got %v", err)
	}

	noEmail := base()
	noEmail.Customer.Email = ""
	if err := noEmail.Validate(); err != ErrEmailRequired {
		t.Errorf("missing email: got %v", err)
	}

	noMethod := base()
	noMethod.Card = nil
	if err := noMethod.Validate(); err != ErrPaymentMethodUnset {
		t.Errorf("missing method: got %v", err)
	}
}

func TestGatewayConfigChecks(t *testing.T) {
	cfg := &PaymentGatewayConfig{
		Status:              GatewayStatusTesting,
		SupportedCurrencies: []string{"USD", "EUR"},
		MinAmount:           decimal.NewNullDecimal(decimal.RequireFromString("1")),
		MaxAmount:           decimal.NewNullDecimal(decimal.RequireFromString("1000")),
	}
	if !cfg.IsActive() || !cfg.IsSandbox() {
		t.Errorf("testing status should be active and sandboxed")
	}
	if !cfg.SupportsCurrency("usd") || cfg.SupportsCurrency("GBP") {
		t.Errorf("currency allow-list mismatch")
	}
	if cfg.AmountAllowed(decimal.RequireFromString("0.5")) || cfg.AmountAllowed(decimal.RequireFromString("1000.01")) {
		t.Errorf("amount bounds not enforced")
	}
	if !cfg.AmountAllowed(decimal.RequireFromString("1000")) {
		t.Errorf("max bound is inclusive")
	}
}

func TestEmptyAllowListsAdmitEverything(t *testing.T) {
	cfg := &PaymentGatewayConfig{Status: GatewayStatusActive}
	for _, cur := range []string{"USD", "JPY", "xyz"} {
		if !cfg.SupportsCurrency(cur) {
			t.Errorf("empty currency list rejected %s", cur)
		}
	}
	if !cfg.SupportsCountry("DE") {
		t.Errorf("empty country list rejected DE")
	}
	if !cfg.AmountAllowed(decimal.RequireFromString("1000000")) {
		t.Errorf("unbounded config rejected amount")
	}
}
