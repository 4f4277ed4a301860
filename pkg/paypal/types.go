package paypal

import (
	"fmt"
	"strings"
)

// Money is a PayPal amount. Value is a decimal string.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// AmountBreakdown is required when items are sent.
type AmountBreakdown struct {
	ItemTotal *Money `json:"item_total,omitempty"`
}

// Amount is a purchase unit amount.
type Amount struct {
	CurrencyCode string           `json:"currency_code"`
	Value        string           `json:"value"`
	Breakdown    *AmountBreakdown `json:"breakdown,omitempty"`
}

// Item is one order line.
type Item struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	UnitAmount Money  `json:"unit_amount"`
	SKU        string `json:"sku,omitempty"`
}

// PurchaseUnit is a single purchase within an order.
type PurchaseUnit struct {
	ReferenceID string             `json:"reference_id,omitempty"`
	Description string             `json:"description,omitempty"`
	CustomID    string             `json:"custom_id,omitempty"`
	InvoiceID   string             `json:"invoice_id,omitempty"`
	Amount      *Amount            `json:"amount,omitempty"`
	Items       []Item             `json:"items,omitempty"`
	Payments    *PaymentCollection `json:"payments,omitempty"`
}

// ExperienceContext controls the buyer approval flow.
type ExperienceContext struct {
	ReturnURL  string `json:"return_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
	UserAction string `json:"user_action,omitempty"`
}

// PayPalSource is the wallet payment source.
type PayPalSource struct {
	EmailAddress      string             `json:"email_address,omitempty"`
	ExperienceContext *ExperienceContext `json:"experience_context,omitempty"`
}

// PaymentSource wraps the funding source of an order.
type PaymentSource struct {
	PayPal *PayPalSource `json:"paypal,omitempty"`
}

// OrderRequest is the body of POST /v2/checkout/orders.
type OrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
	PaymentSource *PaymentSource `json:"payment_source,omitempty"`
}

// Link is a HATEOAS link.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// StatusDetails explains a non-completed capture.
type StatusDetails struct {
	Reason string `json:"reason"`
}

// Capture is a captured payment.
type Capture struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Amount        *Money         `json:"amount,omitempty"`
	FinalCapture  bool           `json:"final_capture,omitempty"`
	StatusDetails *StatusDetails `json:"status_details,omitempty"`
}

// Authorization is an authorized, uncaptured payment.
type Authorization struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Amount        *Money         `json:"amount,omitempty"`
	StatusDetails *StatusDetails `json:"status_details,omitempty"`
}

// PaymentCollection holds the payments made against a purchase unit.
type PaymentCollection struct {
	Captures       []Capture       `json:"captures,omitempty"`
	Authorizations []Authorization `json:"authorizations,omitempty"`
}

// Order is a PayPal checkout order.
type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Intent        string         `json:"intent,omitempty"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
	Links         []Link         `json:"links,omitempty"`
}

// ApproveURL returns the buyer approval link, if any.
func (o *Order) ApproveURL() string {
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

// FirstCapture returns the first capture of the first purchase unit.
func (o *Order) FirstCapture() *Capture {
	for _, pu := range o.PurchaseUnits {
		if pu.Payments != nil && len(pu.Payments.Captures) > 0 {
			return &pu.Payments.Captures[0]
		}
	}
	return nil
}

// FirstAuthorization returns the first authorization of the first purchase unit.
func (o *Order) FirstAuthorization() *Authorization {
	for _, pu := range o.PurchaseUnits {
		if pu.Payments != nil && len(pu.Payments.Authorizations) > 0 {
			return &pu.Payments.Authorizations[0]
		}
	}
	return nil
}

// RefundRequest is the body of a capture refund. A nil Amount refunds in full.
type RefundRequest struct {
	Amount      *Money `json:"amount,omitempty"`
	NoteToPayer string `json:"note_to_payer,omitempty"`
	InvoiceID   string `json:"invoice_id,omitempty"`
}

// CaptureRequest is the body of an authorization capture.
type CaptureRequest struct {
	Amount       *Money `json:"amount,omitempty"`
	FinalCapture bool   `json:"final_capture"`
}

// Refund is a PayPal refund.
type Refund struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Amount        *Money         `json:"amount,omitempty"`
	StatusDetails *StatusDetails `json:"status_details,omitempty"`
}

// ErrorDetail is one issue in an error response.
type ErrorDetail struct {
	Field       string `json:"field,omitempty"`
	Issue       string `json:"issue"`
	Description string `json:"description,omitempty"`
}

// Error is the PayPal error envelope.
type Error struct {
	HTTPStatus int           `json:"-"`
	Name       string        `json:"name"`
	Message    string        `json:"message"`
	DebugID    string        `json:"debug_id,omitempty"`
	Details    []ErrorDetail `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("paypal api error: %s (name: %s, issue: %s, http %d)", e.Message, e.Name, e.Issue(), e.HTTPStatus)
}

// Issue returns the first detail issue code.
func (e *Error) Issue() string {
	if len(e.Details) > 0 {
		return e.Details[0].Issue
	}
	return ""
}

// IsDeclined reports a business refusal (422 with a decline issue).
func (e *Error) IsDeclined() bool {
	if e.HTTPStatus != 422 {
		return false
	}
	for _, d := range e.Details {
		if declineIssues[strings.ToUpper(d.Issue)] {
			return true
		}
	}
	return false
}

// IsClientError reports a request PayPal rejected that another provider
// would not accept either.
func (e *Error) IsClientError() bool {
	return e.HTTPStatus == 400 || e.HTTPStatus == 404 || e.HTTPStatus == 422
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
