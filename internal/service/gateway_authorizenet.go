package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/pkg/authorizenet"
)

// authorizeNetStatuses maps transaction response codes to canonical status
var authorizeNetStatuses = map[string]models.TransactionStatus{
	authorizenet.ResponseApproved: models.StatusApproved,
	authorizenet.ResponseDeclined: models.StatusDeclined,
	authorizenet.ResponseError:    models.StatusError,
	authorizenet.ResponseReview:   models.StatusPending,
}

// AuthorizeNetAdapter implements GatewayAdapter for the Authorize.Net JSON API.
// Tokens are CIM profiles encoded as "customerProfileId:paymentProfileId".
type AuthorizeNetAdapter struct {
	client  *authorizenet.Client
	sandbox bool
}

// NewAuthorizeNetAdapter creates a new AuthorizeNetAdapter
func NewAuthorizeNetAdapter(loginID, transactionKey string, opts AdapterOptions) (*AuthorizeNetAdapter, error) {
	if loginID == "" || transactionKey == "" {
		return nil, missingCredentials(models.GatewayAuthorizeNet, "api_login_id", "transaction_key")
	}
	endpoint := opts.BaseURL
	if endpoint == "" {
		endpoint = authorizenet.ProductionURL
		if opts.Sandbox {
			endpoint = authorizenet.SandboxURL
		}
	}
	client, err := authorizenet.NewClient(authorizenet.Config{
		URL:            endpoint,
		LoginID:        loginID,
		TransactionKey: transactionKey,
		Timeout:        opts.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &AuthorizeNetAdapter{client: client, sandbox: opts.Sandbox}, nil
}

// Type returns the gateway type
func (a *AuthorizeNetAdapter) Type() models.GatewayType {
	return models.GatewayAuthorizeNet
}

// ProcessPayment runs authCapture or authOnly against a card or CIM profile
func (a *AuthorizeNetAdapter) ProcessPayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	txn := &authorizenet.TransactionRequest{
		TransactionType: authorizenet.TypeAuthOnly,
		Amount:          models.FormatAmount(req.Amount, req.Currency),
		CurrencyCode:    req.Currency,
		CustomerIP:      req.IPAddress,
	}
	if req.ShouldCapture() {
		txn.TransactionType = authorizenet.TypeAuthCapture
	}

	if req.HasCard() {
		txn.Payment = &authorizenet.Payment{CreditCard: &authorizenet.CreditCard{
			CardNumber:     req.Card.Number,
			ExpirationDate: fmt.Sprintf("%04d-%02d", req.Card.ExpYear, req.Card.ExpMonth),
			CardCode:       req.Card.CVV,
		}}
	} else {
		profileID, paymentProfileID, ok := parseProfileToken(req.PaymentMethodToken)
		if !ok {
			return failed(models.GatewayAuthorizeNet, req, models.StatusError, "invalid_payment_token",
				"payment method token must be customerProfileId:paymentProfileId"), nil
		}
		txn.Profile = &authorizenet.ProfileRef{
			CustomerProfileID: profileID,
			PaymentProfile:    authorizenet.PaymentProfileRef{PaymentProfileID: paymentProfileID},
		}
	}

	if req.OrderReference != "" || req.Description != "" {
		txn.Order = &authorizenet.Order{
			InvoiceNumber: truncate(req.OrderReference, 20),
			Description:   truncate(req.Description, 255),
		}
	}
	if len(req.Items) > 0 {
		items := &authorizenet.LineItems{}
		for i, item := range req.Items {
			if i == 30 {
				break
			}
			id := item.SKU
			if id == "" {
				id = strconv.Itoa(i + 1)
			}
			items.LineItem = append(items.LineItem, authorizenet.LineItem{
				ItemID:    truncate(id, 31),
				Name:      truncate(item.Name, 31),
				Quantity:  strconv.Itoa(item.Quantity),
				UnitPrice: models.FormatAmount(item.UnitPrice, req.Currency),
			})
		}
		txn.LineItems = items
	}
	// Profile transactions take customer and billing data from the profile.
	if txn.Profile == nil {
		txn.Customer = &authorizenet.Customer{
			Type:  "individual",
			ID:    truncate(req.Customer.ID, 20),
			Email: req.Customer.Email,
		}
		first, last := req.Customer.FirstLastName()
		txn.BillTo = toAuthorizeNetAddress(req.BillingAddress, first, last)
	}
	txn.ShipTo = toAuthorizeNetAddress(req.ShippingAddress, "", "")

	result, err := a.client.CreateTransaction(ctx, truncate(req.OrderReference, 20), txn)
	if err != nil {
		if resp, ok := a.convertAPIError(err, req); ok {
			return resp, nil
		}
		return nil, fmt.Errorf("authorizenet create transaction: %w", err)
	}
	return a.convertTransaction(result, req), nil
}

// RefundPayment issues a refundTransaction. Authorize.Net needs the amount
// and the card's last four digits.
func (a *AuthorizeNetAdapter) RefundPayment(ctx context.Context, req *models.RefundRequest) (*models.RefundResponse, error) {
	base := &models.RefundResponse{
		TransactionID:        req.TransactionID,
		GatewayTransactionID: req.GatewayTransactionID,
		Gateway:              models.GatewayAuthorizeNet,
		Amount:               req.Amount,
		Currency:             req.Currency,
		Status:               models.StatusError,
	}
	if !req.IsPartial() {
		base.ErrorCode = "amount_required"
		base.ErrorMessage = "Authorize.Net refunds require an explicit amount"
		return base, nil
	}
	last4 := req.CardLast4
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	if last4 == "" {
		base.ErrorCode = "card_last4_required"
		base.ErrorMessage = "Authorize.Net refunds require the card's last four digits"
		return base, nil
	}

	result, err := a.client.CreateTransaction(ctx, "", &authorizenet.TransactionRequest{
		TransactionType: authorizenet.TypeRefund,
		Amount:          models.FormatAmount(*req.Amount, req.Currency),
		Payment: &authorizenet.Payment{CreditCard: &authorizenet.CreditCard{
			CardNumber:     last4,
			ExpirationDate: "XXXX",
		}},
		RefTransID: req.GatewayTransactionID,
	})
	if err != nil {
		if apiErr, ok := authorizenet.AsAPIError(err); ok && !authorizenet.IsAuthFailure(apiErr.Code) {
			base.ErrorCode = apiErr.Code
			base.ErrorMessage = apiErr.Text
			return base, nil
		}
		return nil, fmt.Errorf("authorizenet refund: %w", err)
	}

	tr := result.TransactionResponse
	base.Success = authorizenet.IsApproved(tr.ResponseCode)
	base.Status = authorizeNetStatus(tr.ResponseCode)
	base.RefundID = tr.TransID
	base.RawResponse = mustJSON(result)
	if base.Success {
		base.Status = models.StatusRefunded
	} else {
		e := tr.FirstError()
		base.ErrorCode = e.ErrorCode
		base.ErrorMessage = e.ErrorText
	}
	return base, nil
}

// VoidTransaction voids an unsettled transaction
func (a *AuthorizeNetAdapter) VoidTransaction(ctx context.Context, transactionID string) (*models.PaymentResponse, error) {
	result, err := a.client.CreateTransaction(ctx, "", &authorizenet.TransactionRequest{
		TransactionType: authorizenet.TypeVoid,
		RefTransID:      transactionID,
	})
	if err != nil {
		if resp, ok := a.convertAPIError(err, nil); ok {
			resp.GatewayTransactionID = transactionID
			return resp, nil
		}
		return nil, fmt.Errorf("authorizenet void: %w", err)
	}
	resp := a.convertTransaction(result, nil)
	if resp.Success {
		resp.Status = models.StatusVoided
	}
	if resp.GatewayTransactionID == "" {
		resp.GatewayTransactionID = transactionID
	}
	return resp, nil
}

// CaptureAuthorization captures a prior authOnly transaction
func (a *AuthorizeNetAdapter) CaptureAuthorization(ctx context.Context, req *models.CaptureRequest) (*models.PaymentResponse, error) {
	txn := &authorizenet.TransactionRequest{
		TransactionType: authorizenet.TypePriorAuthCapture,
		RefTransID:      req.TransactionID,
	}
	if req.Amount != nil {
		txn.Amount = models.FormatAmount(*req.Amount, req.Currency)
	}
	result, err := a.client.CreateTransaction(ctx, "", txn)
	if err != nil {
		if resp, ok := a.convertAPIError(err, nil); ok {
			resp.GatewayTransactionID = req.TransactionID
			return resp, nil
		}
		return nil, fmt.Errorf("authorizenet capture: %w", err)
	}
	resp := a.convertTransaction(result, nil)
	resp.Amount = amountOrZero(req.Amount)
	resp.Currency = req.Currency
	return resp, nil
}

// TokenizePaymentMethod creates a CIM customer profile holding the card
func (a *AuthorizeNetAdapter) TokenizePaymentMethod(ctx context.Context, req *models.TokenizeRequest) (*models.TokenizeResponse, error) {
	first, last := req.Customer.FirstLastName()
	profile := &authorizenet.CustomerProfile{
		MerchantCustomerID: truncate(req.Customer.ID, 20),
		Email:              req.Customer.Email,
		PaymentProfiles: []authorizenet.PaymentProfile{{
			CustomerType: "individual",
			BillTo:       toAuthorizeNetAddress(req.BillingAddress, first, last),
			Payment: authorizenet.Payment{CreditCard: &authorizenet.CreditCard{
				CardNumber:     req.Card.Number,
				ExpirationDate: fmt.Sprintf("%04d-%02d", req.Card.ExpYear, req.Card.ExpMonth),
				CardCode:       req.Card.CVV,
			}},
		}},
	}

	result, err := a.client.CreateCustomerProfile(ctx, profile, a.validationMode())
	if err != nil {
		if apiErr, ok := authorizenet.AsAPIError(err); ok && !authorizenet.IsAuthFailure(apiErr.Code) {
			return &models.TokenizeResponse{
				Success:      false,
				Gateway:      models.GatewayAuthorizeNet,
				CardLast4:    req.Card.Last4(),
				ErrorCode:    apiErr.Code,
				ErrorMessage: apiErr.Text,
			}, nil
		}
		return nil, fmt.Errorf("authorizenet create customer profile: %w", err)
	}
	if len(result.CustomerPaymentProfileIDList) == 0 {
		return nil, fmt.Errorf("authorizenet create customer profile: no payment profile returned")
	}

	return &models.TokenizeResponse{
		Success:   true,
		Token:     result.CustomerProfileID + ":" + result.CustomerPaymentProfileIDList[0],
		Gateway:   models.GatewayAuthorizeNet,
		CardLast4: req.Card.Last4(),
	}, nil
}

// VerifyPaymentMethod runs a zero-amount validation on the stored card
func (a *AuthorizeNetAdapter) VerifyPaymentMethod(ctx context.Context, token string) (*models.VerifyResult, error) {
	profileID, paymentProfileID, ok := parseProfileToken(token)
	if !ok {
		return &models.VerifyResult{Valid: false, Error: "invalid payment method token"}, nil
	}
	if _, err := a.client.ValidateCustomerPaymentProfile(ctx, profileID, paymentProfileID, a.validationMode()); err != nil {
		if apiErr, ok := authorizenet.AsAPIError(err); ok && !authorizenet.IsAuthFailure(apiErr.Code) {
			return &models.VerifyResult{Valid: false, Error: apiErr.Text}, nil
		}
		return nil, fmt.Errorf("authorizenet validate payment profile: %w", err)
	}
	return &models.VerifyResult{Valid: true}, nil
}

func (a *AuthorizeNetAdapter) validationMode() string {
	if a.sandbox {
		return authorizenet.ValidationTest
	}
	return authorizenet.ValidationLive
}

// convertAPIError turns request-level API errors into error responses.
// Credential failures stay errors so the next gateway is tried.
func (a *AuthorizeNetAdapter) convertAPIError(err error, req *models.PaymentRequest) (*models.PaymentResponse, bool) {
	apiErr, ok := authorizenet.AsAPIError(err)
	if !ok || authorizenet.IsAuthFailure(apiErr.Code) {
		return nil, false
	}
	return failed(models.GatewayAuthorizeNet, req, models.StatusError, apiErr.Code, apiErr.Text), true
}

// convertTransaction maps a transactionResponse to the canonical response
func (a *AuthorizeNetAdapter) convertTransaction(result *authorizenet.CreateTransactionResponse, req *models.PaymentRequest) *models.PaymentResponse {
	tr := result.TransactionResponse
	resp := &models.PaymentResponse{
		Success:              authorizenet.IsApproved(tr.ResponseCode),
		Status:               authorizeNetStatus(tr.ResponseCode),
		GatewayTransactionID: tr.TransID,
		Gateway:              models.GatewayAuthorizeNet,
		CardBrand:            strings.ToLower(tr.AccountType),
		AVSResult:            tr.AVSResultCode,
		CVVResult:            tr.CVVResultCode,
		RawResponse:          mustJSON(result),
	}
	if n := tr.AccountNumber; len(n) >= 4 {
		resp.CardLast4 = n[len(n)-4:]
	}
	if req != nil {
		resp.Amount = req.Amount
		resp.Currency = req.Currency
		if resp.CardLast4 == "" && req.Card != nil {
			resp.CardLast4 = req.Card.Last4()
		}
	}

	if !resp.Success {
		e := tr.FirstError()
		resp.ErrorCode = e.ErrorCode
		resp.ErrorMessage = e.ErrorText
		if resp.Status == models.StatusDeclined {
			resp.DeclineReason = e.ErrorText
		}
		if resp.Status == models.StatusPending && len(tr.Messages) > 0 {
			resp.ErrorMessage = tr.Messages[0].Description
		}
	}
	return resp
}

func authorizeNetStatus(code string) models.TransactionStatus {
	if st, ok := authorizeNetStatuses[code]; ok {
		return st
	}
	return models.StatusError
}

func toAuthorizeNetAddress(addr *models.Address, first, last string) *authorizenet.CustomerAddress {
	if addr == nil {
		if first == "" && last == "" {
			return nil
		}
		return &authorizenet.CustomerAddress{FirstName: first, LastName: last}
	}
	if addr.Name != "" {
		first, last, _ = strings.Cut(addr.Name, " ")
	}
	return &authorizenet.CustomerAddress{
		FirstName:   truncate(first, 50),
		LastName:    truncate(strings.TrimSpace(last), 50),
		Address:     truncate(strings.TrimSpace(addr.Line1+" "+addr.Line2), 60),
		City:        truncate(addr.City, 40),
		State:       truncate(addr.State, 40),
		Zip:         truncate(addr.PostalCode, 20),
		Country:     truncate(addr.Country, 60),
		PhoneNumber: truncate(addr.Phone, 25),
	}
}

func parseProfileToken(token string) (string, string, bool) {
	profileID, paymentProfileID, ok := strings.Cut(token, ":")
	if !ok || profileID == "" || paymentProfileID == "" {
		return "", "", false
	}
	return profileID, paymentProfileID, true
}
