package stripe

import "fmt"

// Error is the error object Stripe returns on non-2xx responses.
type Error struct {
	HTTPStatus    int            `json:"-"`
	Type          string         `json:"type"`
	Code          string         `json:"code,omitempty"`
	DeclineCode   string         `json:"decline_code,omitempty"`
	Message       string         `json:"message,omitempty"`
	Param         string         `json:"param,omitempty"`
	PaymentIntent *PaymentIntent `json:"payment_intent,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("stripe api error: %s (type: %s, code: %s, http %d)", e.Message, e.Type, e.Code, e.HTTPStatus)
}

// IsCardError reports a decline: the request was valid but the card was refused.
func (e *Error) IsCardError() bool {
	return e.Type == ErrorTypeCard
}

// IsInvalidRequest reports a request the API rejected as malformed.
func (e *Error) IsInvalidRequest() bool {
	return e.Type == ErrorTypeInvalidRequest && e.HTTPStatus != 401 && e.HTTPStatus != 403
}

type errorResponse struct {
	Error *Error `json:"error"`
}

// CardChecks holds AVS and CVC check results.
type CardChecks struct {
	AddressLine1Check      string `json:"address_line1_check,omitempty"`
	AddressPostalCodeCheck string `json:"address_postal_code_check,omitempty"`
	CVCCheck               string `json:"cvc_check,omitempty"`
}

// Card is the card summary on charges and payment methods.
type Card struct {
	Brand    string      `json:"brand"`
	Last4    string      `json:"last4"`
	ExpMonth int         `json:"exp_month,omitempty"`
	ExpYear  int         `json:"exp_year,omitempty"`
	Funding  string      `json:"funding,omitempty"`
	Checks   *CardChecks `json:"checks,omitempty"`
}

// PaymentMethodDetails is the instrument used by a charge.
type PaymentMethodDetails struct {
	Type string `json:"type"`
	Card *Card  `json:"card,omitempty"`
}

// Outcome is Radar's view of a charge.
type Outcome struct {
	NetworkStatus string `json:"network_status,omitempty"`
	Reason        string `json:"reason,omitempty"`
	RiskLevel     string `json:"risk_level,omitempty"`
	RiskScore     *int   `json:"risk_score,omitempty"`
	SellerMessage string `json:"seller_message,omitempty"`
	Type          string `json:"type,omitempty"`
}

// Charge is an expanded latest_charge.
type Charge struct {
	ID                   string                `json:"id"`
	Status               string                `json:"status"`
	Amount               int64                 `json:"amount"`
	Captured             bool                  `json:"captured"`
	FailureCode          string                `json:"failure_code,omitempty"`
	FailureMessage       string                `json:"failure_message,omitempty"`
	Outcome              *Outcome              `json:"outcome,omitempty"`
	PaymentMethodDetails *PaymentMethodDetails `json:"payment_method_details,omitempty"`
}

// RedirectToURL is the 3-D Secure redirect target.
type RedirectToURL struct {
	URL       string `json:"url"`
	ReturnURL string `json:"return_url,omitempty"`
}

// NextAction tells the integrator what the customer must do.
type NextAction struct {
	Type          string         `json:"type"`
	RedirectToURL *RedirectToURL `json:"redirect_to_url,omitempty"`
}

// PaymentIntent is the subset of the PaymentIntent object the gateway reads.
type PaymentIntent struct {
	ID               string      `json:"id"`
	Object           string      `json:"object"`
	Amount           int64       `json:"amount"`
	AmountReceived   int64       `json:"amount_received"`
	Currency         string      `json:"currency"`
	Status           string      `json:"status"`
	CaptureMethod    string      `json:"capture_method,omitempty"`
	ClientSecret     string      `json:"client_secret,omitempty"`
	LatestCharge     *Charge     `json:"latest_charge,omitempty"`
	NextAction       *NextAction `json:"next_action,omitempty"`
	LastPaymentError *Error      `json:"last_payment_error,omitempty"`
}

// Refund is a Stripe refund object.
type Refund struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentIntent string `json:"payment_intent,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// PaymentMethod is a stored card.
type PaymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Customer string `json:"customer,omitempty"`
	Card     *Card  `json:"card,omitempty"`
}
