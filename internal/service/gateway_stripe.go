package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/pkg/stripe"
)

// StripeAdapter implements GatewayAdapter for Stripe PaymentIntents
type StripeAdapter struct {
	client *stripe.Client
}

// NewStripeAdapter creates a new StripeAdapter. Stripe selects test mode by
// key prefix, so opts.Sandbox only produces a warning on a live key.
func NewStripeAdapter(secretKey string, opts AdapterOptions) (*StripeAdapter, error) {
	if secretKey == "" {
		return nil, missingCredentials(models.GatewayStripe, "secret_key")
	}
	client, err := stripe.NewClient(stripe.Config{
		BaseURL:   opts.BaseURL,
		SecretKey: secretKey,
		Timeout:   opts.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if opts.Sandbox && !client.IsTestMode() {
		log.Warn().Msg("Stripe gateway is in testing status but configured with a live key")
	}
	return &StripeAdapter{client: client}, nil
}

// Type returns the gateway type
func (a *StripeAdapter) Type() models.GatewayType {
	return models.GatewayStripe
}

// ProcessPayment creates and confirms a payment intent in one call
func (a *StripeAdapter) ProcessPayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(models.MinorUnits(req.Amount, req.Currency), 10))
	params.Set("currency", strings.ToLower(req.Currency))
	params.Set("confirm", "true")
	params.Add("expand[]", "latest_charge")
	if req.ShouldCapture() {
		params.Set("capture_method", "automatic")
	} else {
		params.Set("capture_method", "manual")
	}
	if req.Description != "" {
		params.Set("description", req.Description)
	}
	if req.Customer.Email != "" {
		params.Set("receipt_email", req.Customer.Email)
	}
	if strings.HasPrefix(req.Customer.ID, "cus_") {
		params.Set("customer", req.Customer.ID)
	}
	if req.OrderReference != "" {
		params.Set("metadata[order_reference]", req.OrderReference)
	}
	for k, v := range req.Metadata {
		params.Set("metadata["+k+"]", v)
	}

	if req.HasCard() {
		params.Set("payment_method_data[type]", "card")
		params.Set("payment_method_data[card][number]", req.Card.Number)
		params.Set("payment_method_data[card][exp_month]", strconv.Itoa(req.Card.ExpMonth))
		params.Set("payment_method_data[card][exp_year]", strconv.Itoa(req.Card.ExpYear))
		if req.Card.CVV != "" {
			params.Set("payment_method_data[card][cvc]", req.Card.CVV)
		}
		setStripeBillingDetails(params, "payment_method_data[billing_details]", req.Card.HolderName, req.Customer.Email, req.BillingAddress)
	} else {
		params.Set("payment_method", req.PaymentMethodToken)
	}

	if req.ReturnURL != "" {
		params.Set("return_url", req.ReturnURL)
	} else {
		params.Set("automatic_payment_methods[enabled]", "true")
		params.Set("automatic_payment_methods[allow_redirects]", "never")
	}

	pi, err := a.client.CreatePaymentIntent(ctx, params)
	if err != nil {
		if resp, ok := a.convertError(err, req); ok {
			return resp, nil
		}
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return a.convertPaymentIntent(pi, req), nil
}

// RefundPayment refunds a payment intent in full or in part
func (a *StripeAdapter) RefundPayment(ctx context.Context, req *models.RefundRequest) (*models.RefundResponse, error) {
	params := url.Values{}
	params.Set("payment_intent", req.GatewayTransactionID)
	if req.IsPartial() {
		params.Set("amount", strconv.FormatInt(models.MinorUnits(*req.Amount, req.Currency), 10))
	}
	if reason := stripeRefundReason(req.Reason); reason != "" {
		params.Set("reason", reason)
	} else if req.Reason != "" {
		params.Set("metadata[reason]", req.Reason)
	}

	refund, err := a.client.CreateRefund(ctx, params)
	if err != nil {
		if stripeErr, ok := stripe.AsError(err); ok && (stripeErr.IsCardError() || stripeErr.IsInvalidRequest()) {
			return &models.RefundResponse{
				Success:              false,
				Status:               models.StatusError,
				TransactionID:        req.TransactionID,
				GatewayTransactionID: req.GatewayTransactionID,
				Gateway:              models.GatewayStripe,
				Amount:               req.Amount,
				Currency:             req.Currency,
				ErrorCode:            stripeErr.Code,
				ErrorMessage:         stripeErr.Message,
			}, nil
		}
		return nil, fmt.Errorf("stripe create refund: %w", err)
	}

	amount := models.FromMinorUnits(refund.Amount, refund.Currency)
	resp := &models.RefundResponse{
		Success:              stripe.IsRefundSuccess(refund.Status),
		Status:               models.NormalizeStatus(refund.Status),
		RefundID:             refund.ID,
		TransactionID:        req.TransactionID,
		GatewayTransactionID: req.GatewayTransactionID,
		Gateway:              models.GatewayStripe,
		Amount:               &amount,
		Currency:             strings.ToUpper(refund.Currency),
		RawResponse:          mustJSON(refund),
	}
	if refund.Status == "succeeded" {
		resp.Status = models.StatusRefunded
	}
	if !resp.Success {
		resp.ErrorCode = refund.FailureReason
		resp.ErrorMessage = "refund " + refund.Status
	}
	return resp, nil
}

// VoidTransaction cancels an uncaptured payment intent
func (a *StripeAdapter) VoidTransaction(ctx context.Context, transactionID string) (*models.PaymentResponse, error) {
	pi, err := a.client.CancelPaymentIntent(ctx, transactionID, "requested_by_customer")
	if err != nil {
		if resp, ok := a.convertError(err, nil); ok {
			resp.GatewayTransactionID = transactionID
			return resp, nil
		}
		return nil, fmt.Errorf("stripe cancel payment intent: %w", err)
	}
	resp := a.convertPaymentIntent(pi, nil)
	resp.Success = pi.Status == stripe.StatusCanceled
	return resp, nil
}

// CaptureAuthorization captures an intent in requires_capture
func (a *StripeAdapter) CaptureAuthorization(ctx context.Context, req *models.CaptureRequest) (*models.PaymentResponse, error) {
	var amount *int64
	if req.Amount != nil {
		units := models.MinorUnits(*req.Amount, req.Currency)
		amount = &units
	}
	pi, err := a.client.CapturePaymentIntent(ctx, req.TransactionID, amount)
	if err != nil {
		if resp, ok := a.convertError(err, nil); ok {
			resp.GatewayTransactionID = req.TransactionID
			return resp, nil
		}
		return nil, fmt.Errorf("stripe capture payment intent: %w", err)
	}
	return a.convertPaymentIntent(pi, nil), nil
}

// TokenizePaymentMethod stores the card as a Stripe PaymentMethod
func (a *StripeAdapter) TokenizePaymentMethod(ctx context.Context, req *models.TokenizeRequest) (*models.TokenizeResponse, error) {
	params := url.Values{}
	params.Set("type", "card")
	params.Set("card[number]", req.Card.Number)
	params.Set("card[exp_month]", strconv.Itoa(req.Card.ExpMonth))
	params.Set("card[exp_year]", strconv.Itoa(req.Card.ExpYear))
	if req.Card.CVV != "" {
		params.Set("card[cvc]", req.Card.CVV)
	}
	name := req.Card.HolderName
	if name == "" {
		name = req.Customer.Name
	}
	setStripeBillingDetails(params, "billing_details", name, req.Customer.Email, req.BillingAddress)

	pm, err := a.client.CreatePaymentMethod(ctx, params)
	if err != nil {
		if stripeErr, ok := stripe.AsError(err); ok && (stripeErr.IsCardError() || stripeErr.IsInvalidRequest()) {
			return &models.TokenizeResponse{
				Success:      false,
				Gateway:      models.GatewayStripe,
				CardLast4:    req.Card.Last4(),
				ErrorCode:    stripeErr.Code,
				ErrorMessage: stripeErr.Message,
			}, nil
		}
		return nil, fmt.Errorf("stripe create payment method: %w", err)
	}

	resp := &models.TokenizeResponse{
		Success: true,
		Token:   pm.ID,
		Gateway: models.GatewayStripe,
	}
	if pm.Card != nil {
		resp.CardBrand = pm.Card.Brand
		resp.CardLast4 = pm.Card.Last4
	}
	return resp, nil
}

// VerifyPaymentMethod checks that the payment method exists and is not expired
func (a *StripeAdapter) VerifyPaymentMethod(ctx context.Context, token string) (*models.VerifyResult, error) {
	pm, err := a.client.GetPaymentMethod(ctx, token)
	if err != nil {
		if stripeErr, ok := stripe.AsError(err); ok && stripeErr.HTTPStatus == http.StatusNotFound {
			return &models.VerifyResult{Valid: false, Error: stripeErr.Message}, nil
		}
		return nil, fmt.Errorf("stripe get payment method: %w", err)
	}
	if pm.Card == nil {
		return &models.VerifyResult{Valid: false, Error: "payment method is not a card"}, nil
	}
	if cardExpired(pm.Card.ExpMonth, pm.Card.ExpYear, time.Now()) {
		return &models.VerifyResult{Valid: false, Error: "card expired"}, nil
	}
	return &models.VerifyResult{Valid: true}, nil
}

// convertError turns a typed Stripe error into a canonical response when it
// is a business outcome. Anything else is left for failover.
func (a *StripeAdapter) convertError(err error, req *models.PaymentRequest) (*models.PaymentResponse, bool) {
	stripeErr, ok := stripe.AsError(err)
	if !ok {
		return nil, false
	}
	switch {
	case stripeErr.IsCardError():
		reason := stripeErr.DeclineCode
		if reason == "" {
			reason = stripeErr.Code
		}
		resp := declined(models.GatewayStripe, req, stripeErr.Code, stripeErr.Message, reason)
		if stripeErr.PaymentIntent != nil {
			resp.GatewayTransactionID = stripeErr.PaymentIntent.ID
		}
		resp.RawResponse = mustJSON(stripeErr)
		return resp, true
	case stripeErr.IsInvalidRequest():
		resp := failed(models.GatewayStripe, req, models.StatusError, stripeErr.Code, stripeErr.Message)
		resp.RawResponse = mustJSON(stripeErr)
		return resp, true
	}
	return nil, false
}

// convertPaymentIntent maps a PaymentIntent to the canonical response
func (a *StripeAdapter) convertPaymentIntent(pi *stripe.PaymentIntent, req *models.PaymentRequest) *models.PaymentResponse {
	resp := &models.PaymentResponse{
		Success:              stripe.IsSuccess(pi.Status),
		Status:               models.NormalizeStatus(pi.Status),
		GatewayTransactionID: pi.ID,
		Gateway:              models.GatewayStripe,
		Amount:               models.FromMinorUnits(pi.Amount, pi.Currency),
		Currency:             strings.ToUpper(pi.Currency),
		RawResponse:          mustJSON(pi),
	}
	if req != nil {
		resp.Amount = req.Amount
		resp.Currency = req.Currency
		if req.Card != nil {
			resp.CardLast4 = req.Card.Last4()
		}
	}

	if ch := pi.LatestCharge; ch != nil {
		if ch.PaymentMethodDetails != nil && ch.PaymentMethodDetails.Card != nil {
			card := ch.PaymentMethodDetails.Card
			resp.CardBrand = card.Brand
			resp.CardLast4 = card.Last4
			if card.Checks != nil {
				resp.AVSResult = card.Checks.AddressPostalCodeCheck
				resp.CVVResult = card.Checks.CVCCheck
			}
		}
		if ch.Outcome != nil && ch.Outcome.RiskScore != nil {
			score := float64(*ch.Outcome.RiskScore)
			resp.RiskScore = &score
		}
	}

	switch pi.Status {
	case stripe.StatusRequiresAction:
		resp.RequiresAction = true
		if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
			resp.RedirectURL = pi.NextAction.RedirectToURL.URL
		}
	case stripe.StatusRequiresPaymentMethod:
		if e := pi.LastPaymentError; e != nil {
			resp.ErrorCode = e.Code
			resp.ErrorMessage = e.Message
			resp.DeclineReason = e.DeclineCode
		}
	}
	return resp
}

func setStripeBillingDetails(params url.Values, prefix, name, email string, addr *models.Address) {
	if name != "" {
		params.Set(prefix+"[name]", name)
	}
	if email != "" {
		params.Set(prefix+"[email]", email)
	}
	if addr == nil {
		return
	}
	fields := map[string]string{
		"line1":       addr.Line1,
		"line2":       addr.Line2,
		"city":        addr.City,
		"state":       addr.State,
		"postal_code": addr.PostalCode,
		"country":     addr.Country,
	}
	for k, v := range fields {
		if v != "" {
			params.Set(prefix+"[address]["+k+"]", v)
		}
	}
	if addr.Phone != "" {
		params.Set(prefix+"[phone]", addr.Phone)
	}
}

// stripeRefundReason maps free text to Stripe's reason enum
func stripeRefundReason(reason string) string {
	switch strings.ToLower(reason) {
	case "duplicate", "fraudulent", "requested_by_customer":
		return strings.ToLower(reason)
	}
	return ""
}

func cardExpired(month, year int, now time.Time) bool {
	if year == 0 {
		return false
	}
	if year < now.Year() {
		return true
	}
	return year == now.Year() && month < int(now.Month())
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
