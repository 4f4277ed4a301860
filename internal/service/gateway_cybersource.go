package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/pkg/cybersource"
)

// ErrCodeMissingCardDetails is returned for CyberSource requests without raw card data.
const ErrCodeMissingCardDetails = "missing_card_details"

// cyberSourceStatuses overrides the generic normalizer for PTS vocabulary.
// PENDING on a sale means captured and waiting for the settlement batch.
var cyberSourceStatuses = map[string]models.TransactionStatus{
	cybersource.StatusPending:        models.StatusApproved,
	cybersource.StatusRejected:       models.StatusDeclined,
	cybersource.StatusDeclined:       models.StatusDeclined,
	cybersource.StatusInvalidRequest: models.StatusError,
	cybersource.StatusServerError:    models.StatusError,
}

// CyberSourceAdapter implements GatewayAdapter for the CyberSource PTS v2 API.
// It only charges raw card data; tokenized requests are refused.
type CyberSourceAdapter struct {
	client *cybersource.Client
}

// NewCyberSourceAdapter creates a new CyberSourceAdapter
func NewCyberSourceAdapter(merchantID, keyID, sharedSecret string, opts AdapterOptions) (*CyberSourceAdapter, error) {
	if merchantID == "" || keyID == "" || sharedSecret == "" {
		return nil, missingCredentials(models.GatewayCyberSource, "merchant_id", "key_id", "shared_secret")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = cybersource.ProductionBaseURL
		if opts.Sandbox {
			baseURL = cybersource.SandboxBaseURL
		}
	}
	client, err := cybersource.NewClient(cybersource.Config{
		BaseURL:      baseURL,
		MerchantID:   merchantID,
		KeyID:        keyID,
		SharedSecret: sharedSecret,
		Timeout:      opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("cybersource: %w", err)
	}
	return &CyberSourceAdapter{client: client}, nil
}

// Type returns the gateway type
func (a *CyberSourceAdapter) Type() models.GatewayType {
	return models.GatewayCyberSource
}

// ProcessPayment authorizes (and optionally captures) a card
func (a *CyberSourceAdapter) ProcessPayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	if !req.HasCard() {
		return failed(models.GatewayCyberSource, req, models.StatusError, ErrCodeMissingCardDetails,
			"CyberSource requires card number, expiry and security code"), nil
	}

	payload := &cybersource.PaymentRequest{
		ClientReferenceInformation: cybersource.ClientReference{Code: a.reference(req.OrderReference)},
		ProcessingInformation: &cybersource.ProcessingInformation{
			Capture:           req.ShouldCapture(),
			CommerceIndicator: "internet",
		},
		PaymentInformation: &cybersource.PaymentInformation{Card: cybersource.Card{
			Number:          req.Card.Number,
			ExpirationMonth: fmt.Sprintf("%02d", req.Card.ExpMonth),
			ExpirationYear:  fmt.Sprintf("%04d", req.Card.ExpYear),
			SecurityCode:    req.Card.CVV,
		}},
		OrderInformation: &cybersource.OrderInformation{
			AmountDetails: cybersource.AmountDetails{
				TotalAmount: models.FormatAmount(req.Amount, req.Currency),
				Currency:    req.Currency,
			},
			BillTo: toCyberSourceBillTo(req),
		},
	}
	for _, item := range req.Items {
		payload.OrderInformation.LineItems = append(payload.OrderInformation.LineItems, cybersource.LineItem{
			ProductName: item.Name,
			ProductSKU:  item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   models.FormatAmount(item.UnitPrice, req.Currency),
		})
	}
	if req.IPAddress != "" {
		payload.DeviceInformation = &cybersource.DeviceInformation{IPAddress: req.IPAddress}
	}

	result, err := a.client.CreatePayment(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("cybersource create payment: %w", err)
	}

	resp := a.convertPayment(result)
	resp.Amount = req.Amount
	resp.Currency = req.Currency
	resp.CardLast4 = req.Card.Last4()
	return resp, nil
}

// RefundPayment refunds a captured payment. The PTS API needs an amount.
func (a *CyberSourceAdapter) RefundPayment(ctx context.Context, req *models.RefundRequest) (*models.RefundResponse, error) {
	if !req.IsPartial() {
		return &models.RefundResponse{
			Success:              false,
			Status:               models.StatusError,
			TransactionID:        req.TransactionID,
			GatewayTransactionID: req.GatewayTransactionID,
			Gateway:              models.GatewayCyberSource,
			Currency:             req.Currency,
			ErrorCode:            "amount_required",
			ErrorMessage:         "CyberSource refunds require an explicit amount",
		}, nil
	}

	result, err := a.client.Refund(ctx, req.GatewayTransactionID, &cybersource.FollowOnRequest{
		ClientReferenceInformation: cybersource.ClientReference{Code: a.reference(req.TransactionID)},
		OrderInformation: &cybersource.OrderInformation{AmountDetails: cybersource.AmountDetails{
			TotalAmount: models.FormatAmount(*req.Amount, req.Currency),
			Currency:    req.Currency,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("cybersource refund: %w", err)
	}

	resp := &models.RefundResponse{
		Success:              cybersource.IsSuccess(result.Status),
		Status:               models.StatusRefunded,
		RefundID:             result.ID,
		TransactionID:        req.TransactionID,
		GatewayTransactionID: req.GatewayTransactionID,
		Gateway:              models.GatewayCyberSource,
		Amount:               req.Amount,
		Currency:             req.Currency,
		RawResponse:          mustJSON(result),
	}
	if !resp.Success {
		resp.Status = cyberSourceStatus(result.Status)
		resp.ErrorCode, resp.ErrorMessage = result.DeclineReason()
	}
	return resp, nil
}

// VoidTransaction voids a payment before settlement
func (a *CyberSourceAdapter) VoidTransaction(ctx context.Context, transactionID string) (*models.PaymentResponse, error) {
	result, err := a.client.Void(ctx, transactionID, &cybersource.FollowOnRequest{
		ClientReferenceInformation: cybersource.ClientReference{Code: a.reference("")},
	})
	if err != nil {
		return nil, fmt.Errorf("cybersource void: %w", err)
	}
	resp := a.convertPayment(result)
	if resp.Success {
		resp.Status = models.StatusVoided
	}
	if resp.GatewayTransactionID == "" {
		resp.GatewayTransactionID = transactionID
	}
	return resp, nil
}

// CaptureAuthorization captures an authorization. The PTS API needs an amount.
func (a *CyberSourceAdapter) CaptureAuthorization(ctx context.Context, req *models.CaptureRequest) (*models.PaymentResponse, error) {
	if req.Amount == nil {
		resp := failed(models.GatewayCyberSource, nil, models.StatusError, "amount_required",
			"CyberSource captures require an explicit amount")
		resp.GatewayTransactionID = req.TransactionID
		return resp, nil
	}

	result, err := a.client.Capture(ctx, req.TransactionID, &cybersource.FollowOnRequest{
		ClientReferenceInformation: cybersource.ClientReference{Code: a.reference("")},
		OrderInformation: &cybersource.OrderInformation{AmountDetails: cybersource.AmountDetails{
			TotalAmount: models.FormatAmount(*req.Amount, req.Currency),
			Currency:    req.Currency,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("cybersource capture: %w", err)
	}
	resp := a.convertPayment(result)
	resp.Amount = *req.Amount
	resp.Currency = req.Currency
	return resp, nil
}

// convertPayment maps a PTS response to the canonical response
func (a *CyberSourceAdapter) convertPayment(result *cybersource.PaymentResponse) *models.PaymentResponse {
	resp := &models.PaymentResponse{
		Success:              cybersource.IsSuccess(result.Status),
		Status:               cyberSourceStatus(result.Status),
		GatewayTransactionID: result.ID,
		Gateway:              models.GatewayCyberSource,
		RawResponse:          mustJSON(result),
	}

	if p := result.ProcessorInformation; p != nil {
		if p.AVS != nil {
			resp.AVSResult = p.AVS.Code
		}
		if p.CardVerification != nil {
			resp.CVVResult = p.CardVerification.ResultCode
		}
	}
	if pa := result.PaymentAccountInformation; pa != nil && pa.Card.Type != "" {
		resp.CardBrand = cybersource.CardBrand(pa.Card.Type)
	}
	if ri := result.RiskInformation; ri != nil && ri.Score != nil {
		if score, err := strconv.ParseFloat(ri.Score.Result, 64); err == nil {
			resp.RiskScore = &score
		}
	}
	if oi := result.OrderInformation; oi != nil {
		if amt, err := decimal.NewFromString(oi.AmountDetails.AuthorizedAmount); err == nil {
			resp.Amount = amt
		}
		resp.Currency = oi.AmountDetails.Currency
	}

	if !resp.Success {
		reason, message := result.DeclineReason()
		resp.ErrorCode = reason
		resp.ErrorMessage = message
		if cybersource.IsDeclined(result.Status) {
			resp.DeclineReason = reason
		}
		if cybersource.IsReview(result.Status) {
			resp.ErrorMessage = "transaction held for review"
		}
	}
	return resp
}

// reference returns a client reference code; PTS accepts up to 50 chars.
func (a *CyberSourceAdapter) reference(code string) string {
	if code == "" {
		code = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return truncate(code, 50)
}

func cyberSourceStatus(status string) models.TransactionStatus {
	if st, ok := cyberSourceStatuses[status]; ok {
		return st
	}
	return models.NormalizeStatus(status)
}

func toCyberSourceBillTo(req *models.PaymentRequest) *cybersource.BillTo {
	first, last := req.Customer.FirstLastName()
	if req.Card != nil && req.Card.HolderName != "" {
		first, last, _ = strings.Cut(req.Card.HolderName, " ")
	}
	billTo := &cybersource.BillTo{
		FirstName: first,
		LastName:  strings.TrimSpace(last),
		Email:     req.Customer.Email,
	}
	if addr := req.BillingAddress; addr != nil {
		billTo.Address1 = addr.Line1
		billTo.Address2 = addr.Line2
		billTo.Locality = addr.City
		billTo.AdministrativeArea = addr.State
		billTo.PostalCode = addr.PostalCode
		billTo.Country = addr.Country
		billTo.PhoneNumber = addr.Phone
	}
	return billTo
}
