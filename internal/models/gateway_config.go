package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// GatewayType identifies the payment provider
type GatewayType string

const (
	GatewayStripe       GatewayType = "stripe"
	GatewayPayPal       GatewayType = "paypal"
	GatewayAuthorizeNet GatewayType = "authorizenet"
	GatewayCyberSource  GatewayType = "cybersource"
)

// GatewayFallbackOrder is the hard-coded order used when no configuration
// record picks a gateway.
var GatewayFallbackOrder = []GatewayType{
	GatewayStripe,
	GatewayPayPal,
	GatewayAuthorizeNet,
	GatewayCyberSource,
}

// IsValid reports whether t is one of the known gateway types.
func (t GatewayType) IsValid() bool {
	for _, g := range GatewayFallbackOrder {
		if g == t {
			return true
		}
	}
	return false
}

// GatewayStatus is the operator-controlled state of a gateway config.
type GatewayStatus string

const (
	GatewayStatusActive   GatewayStatus = "active"
	GatewayStatusInactive GatewayStatus = "inactive"
	GatewayStatusTesting  GatewayStatus = "testing"
)

// Credentials is the opaque key/value credential bundle stored as jsonb.
type Credentials map[string]string

// Get returns the first non-empty value among keys.
func (c Credentials) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c[k]); v != "" {
			return v
		}
	}
	return ""
}

// Merge returns a copy of c overlaid with non-empty values from other.
func (c Credentials) Merge(other Credentials) Credentials {
	out := make(Credentials, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Value implements driver.Valuer.
func (c Credentials) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *Credentials) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = Credentials{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("credentials: unsupported scan type")
	}
	out := Credentials{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*c = out
	return nil
}

// PaymentGatewayConfig is one configuration record per gateway type.
// It is maintained by admin tooling; the orchestrator only reads it.
type PaymentGatewayConfig struct {
	ID                     int                 `db:"id" json:"id"`
	GatewayType            GatewayType         `db:"gateway_type" json:"gatewayType"`
	Name                   string              `db:"name" json:"name"`
	Status                 GatewayStatus       `db:"status" json:"status"`
	IsPrimary              bool                `db:"is_primary" json:"isPrimary"`
	IsBackup               bool                `db:"is_backup" json:"isBackup"`
	Priority               int                 `db:"priority" json:"priority"`
	Credentials            Credentials         `db:"credentials" json:"-"`
	SupportsTokenization   bool                `db:"supports_tokenization" json:"supportsTokenization"`
	Supports3DS            bool                `db:"supports_3ds" json:"supports3ds"`
	SupportsRefunds        bool                `db:"supports_refunds" json:"supportsRefunds"`
	SupportsPartialRefunds bool                `db:"supports_partial_refunds" json:"supportsPartialRefunds"`
	SupportsSubscriptions  bool                `db:"supports_subscriptions" json:"supportsSubscriptions"`
	SupportedCurrencies    pq.StringArray      `db:"supported_currencies" json:"supportedCurrencies"`
	SupportedCountries     pq.StringArray      `db:"supported_countries" json:"supportedCountries"`
	MinAmount              decimal.NullDecimal `db:"min_amount" json:"minAmount"`
	MaxAmount              decimal.NullDecimal `db:"max_amount" json:"maxAmount"`
	CreatedAt              time.Time           `db:"created_at" json:"-"`
	UpdatedAt              time.Time           `db:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the gateway may be routed to. Testing counts as
// usable; it only switches the adapter to the provider sandbox.
func (c *PaymentGatewayConfig) IsActive() bool {
	return c.Status == GatewayStatusActive || c.Status == GatewayStatusTesting
}

// IsSandbox reports whether calls should hit the provider sandbox.
func (c *PaymentGatewayConfig) IsSandbox() bool {
	return c.Status == GatewayStatusTesting
}

// SupportsCurrency checks the allow-list. An empty list admits everything.
func (c *PaymentGatewayConfig) SupportsCurrency(currency string) bool {
	if len(c.SupportedCurrencies) == 0 {
		return true
	}
	for _, cur := range c.SupportedCurrencies {
		if strings.EqualFold(cur, currency) {
			return true
		}
	}
	return false
}

// SupportsCountry checks the country allow-list. Empty country or list admits.
func (c *PaymentGatewayConfig) SupportsCountry(country string) bool {
	if len(c.SupportedCountries) == 0 || country == "" {
		return true
	}
	for _, cc := range c.SupportedCountries {
		if strings.EqualFold(cc, country) {
			return true
		}
	}
	return false
}

// AmountAllowed checks the optional min/max bounds (inclusive).
func (c *PaymentGatewayConfig) AmountAllowed(amount decimal.Decimal) bool {
	if c.MinAmount.Valid && amount.LessThan(c.MinAmount.Decimal) {
		return false
	}
	if c.MaxAmount.Valid && amount.GreaterThan(c.MaxAmount.Decimal) {
		return false
	}
	return true
}
