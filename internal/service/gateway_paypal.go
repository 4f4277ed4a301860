package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/pkg/paypal"
)

// PayPalAdapter implements GatewayAdapter for PayPal Orders v2.
// Payments are two-phase: an order is created and approved by the buyer,
// then captured (or authorized) in a second call carrying GatewayOrderID.
type PayPalAdapter struct {
	client *paypal.Client
}

// NewPayPalAdapter creates a new PayPalAdapter
func NewPayPalAdapter(clientID, clientSecret string, opts AdapterOptions) (*PayPalAdapter, error) {
	if clientID == "" || clientSecret == "" {
		return nil, missingCredentials(models.GatewayPayPal, "client_id", "client_secret")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = paypal.ProductionBaseURL
		if opts.Sandbox {
			baseURL = paypal.SandboxBaseURL
		}
	}
	client, err := paypal.NewClient(paypal.Config{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Timeout:      opts.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &PayPalAdapter{client: client}, nil
}

// Type returns the gateway type
func (a *PayPalAdapter) Type() models.GatewayType {
	return models.GatewayPayPal
}

// ProcessPayment creates an order when none was approved yet, otherwise
// captures or authorizes the approved order.
func (a *PayPalAdapter) ProcessPayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	if req.GatewayOrderID == "" {
		return a.createOrder(ctx, req)
	}

	if req.ShouldCapture() {
		order, err := a.client.CaptureOrder(ctx, req.GatewayOrderID, uuid.NewString())
		if err != nil {
			return a.convertError(err, req, "paypal capture order")
		}
		resp := a.orderResponse(order, req)
		if capture := order.FirstCapture(); capture != nil {
			resp.GatewayTransactionID = capture.ID
			resp.Status = models.NormalizeStatus(capture.Status)
			resp.Success = paypal.IsSuccess(capture.Status)
			if capture.StatusDetails != nil && !resp.Success {
				resp.DeclineReason = capture.StatusDetails.Reason
			}
		}
		return resp, nil
	}

	order, err := a.client.AuthorizeOrder(ctx, req.GatewayOrderID, uuid.NewString())
	if err != nil {
		return a.convertError(err, req, "paypal authorize order")
	}
	resp := a.orderResponse(order, req)
	if auth := order.FirstAuthorization(); auth != nil {
		resp.GatewayTransactionID = auth.ID
		resp.Success = paypal.IsSuccess(auth.Status)
		resp.Status = models.NormalizeStatus(auth.Status)
		if auth.Status == paypal.StatusCreated {
			resp.Status = models.StatusApproved
		}
	}
	return resp, nil
}

func (a *PayPalAdapter) createOrder(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	intent := paypal.IntentAuthorize
	if req.ShouldCapture() {
		intent = paypal.IntentCapture
	}

	unit := paypal.PurchaseUnit{
		ReferenceID: truncate(req.OrderReference, 256),
		Description: truncate(req.Description, 127),
		CustomID:    truncate(req.Customer.ID, 127),
		InvoiceID:   truncate(req.OrderReference, 127),
		Amount: &paypal.Amount{
			CurrencyCode: req.Currency,
			Value:        models.FormatAmount(req.Amount, req.Currency),
		},
	}
	if len(req.Items) > 0 {
		itemTotal := decimal.Zero
		for _, item := range req.Items {
			unit.Items = append(unit.Items, paypal.Item{
				Name:     truncate(item.Name, 127),
				Quantity: strconv.Itoa(item.Quantity),
				SKU:      item.SKU,
				UnitAmount: paypal.Money{
					CurrencyCode: req.Currency,
					Value:        models.FormatAmount(item.UnitPrice, req.Currency),
				},
			})
			itemTotal = itemTotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		// PayPal rejects orders whose item total does not add up to the amount.
		if itemTotal.Equal(req.Amount) {
			unit.Amount.Breakdown = &paypal.AmountBreakdown{
				ItemTotal: &paypal.Money{CurrencyCode: req.Currency, Value: models.FormatAmount(itemTotal, req.Currency)},
			}
		} else {
			unit.Items = nil
		}
	}

	orderReq := &paypal.OrderRequest{
		Intent:        intent,
		PurchaseUnits: []paypal.PurchaseUnit{unit},
		PaymentSource: &paypal.PaymentSource{
			PayPal: &paypal.PayPalSource{
				EmailAddress: req.Customer.Email,
				ExperienceContext: &paypal.ExperienceContext{
					ReturnURL:  req.ReturnURL,
					CancelURL:  req.CancelURL,
					UserAction: "PAY_NOW",
				},
			},
		},
	}

	order, err := a.client.CreateOrder(ctx, orderReq, uuid.NewString())
	if err != nil {
		return a.convertError(err, req, "paypal create order")
	}

	resp := a.orderResponse(order, req)
	resp.Success = false
	resp.Status = models.StatusPending
	resp.RequiresAction = true
	resp.RedirectURL = order.ApproveURL()
	return resp, nil
}

// RefundPayment refunds a capture
func (a *PayPalAdapter) RefundPayment(ctx context.Context, req *models.RefundRequest) (*models.RefundResponse, error) {
	body := &paypal.RefundRequest{NoteToPayer: truncate(req.Reason, 255)}
	if req.IsPartial() {
		body.Amount = &paypal.Money{CurrencyCode: req.Currency, Value: models.FormatAmount(*req.Amount, req.Currency)}
	}

	refund, err := a.client.RefundCapture(ctx, req.GatewayTransactionID, body, uuid.NewString())
	if err != nil {
		if apiErr, ok := paypal.AsError(err); ok && apiErr.IsClientError() {
			return &models.RefundResponse{
				Success:              false,
				Status:               models.StatusError,
				TransactionID:        req.TransactionID,
				GatewayTransactionID: req.GatewayTransactionID,
				Gateway:              models.GatewayPayPal,
				Amount:               req.Amount,
				Currency:             req.Currency,
				ErrorCode:            apiErr.Issue(),
				ErrorMessage:         apiErr.Message,
			}, nil
		}
		return nil, fmt.Errorf("paypal refund capture: %w", err)
	}
	return a.refundResponse(refund, req), nil
}

// VoidTransaction refunds the capture in full. PayPal has no void for
// captured payments.
func (a *PayPalAdapter) VoidTransaction(ctx context.Context, transactionID string) (*models.PaymentResponse, error) {
	refund, err := a.client.RefundCapture(ctx, transactionID, &paypal.RefundRequest{}, uuid.NewString())
	if err != nil {
		resp, convErr := a.convertError(err, nil, "paypal void")
		if resp != nil {
			resp.GatewayTransactionID = transactionID
		}
		return resp, convErr
	}

	resp := &models.PaymentResponse{
		Success:              paypal.IsSuccess(refund.Status) || paypal.IsPending(refund.Status),
		Status:               models.StatusVoided,
		GatewayTransactionID: transactionID,
		Gateway:              models.GatewayPayPal,
		RawResponse:          mustJSON(refund),
	}
	if refund.Amount != nil {
		if amt, err := decimal.NewFromString(refund.Amount.Value); err == nil {
			resp.Amount = amt
			resp.Currency = refund.Amount.CurrencyCode
		}
	}
	if !resp.Success {
		resp.Status = models.NormalizeStatus(refund.Status)
		resp.ErrorCode = refund.Status
		resp.ErrorMessage = "void refund " + refund.Status
	}
	return resp, nil
}

// CaptureAuthorization captures a held authorization
func (a *PayPalAdapter) CaptureAuthorization(ctx context.Context, req *models.CaptureRequest) (*models.PaymentResponse, error) {
	body := &paypal.CaptureRequest{FinalCapture: true}
	if req.Amount != nil {
		body.Amount = &paypal.Money{CurrencyCode: req.Currency, Value: models.FormatAmount(*req.Amount, req.Currency)}
	}

	capture, err := a.client.CaptureAuthorization(ctx, req.TransactionID, body, uuid.NewString())
	if err != nil {
		resp, convErr := a.convertError(err, nil, "paypal capture authorization")
		if resp != nil {
			resp.GatewayTransactionID = req.TransactionID
		}
		return resp, convErr
	}

	resp := &models.PaymentResponse{
		Success:              paypal.IsSuccess(capture.Status),
		Status:               models.NormalizeStatus(capture.Status),
		GatewayTransactionID: capture.ID,
		Gateway:              models.GatewayPayPal,
		Amount:               amountOrZero(req.Amount),
		Currency:             req.Currency,
		RawResponse:          mustJSON(capture),
	}
	if capture.Amount != nil {
		if amt, err := decimal.NewFromString(capture.Amount.Value); err == nil {
			resp.Amount = amt
			resp.Currency = capture.Amount.CurrencyCode
		}
	}
	if capture.StatusDetails != nil && !resp.Success {
		resp.DeclineReason = capture.StatusDetails.Reason
	}
	return resp, nil
}

func (a *PayPalAdapter) orderResponse(order *paypal.Order, req *models.PaymentRequest) *models.PaymentResponse {
	return &models.PaymentResponse{
		Success:              paypal.IsSuccess(order.Status),
		Status:               models.NormalizeStatus(order.Status),
		GatewayTransactionID: order.ID,
		Gateway:              models.GatewayPayPal,
		Amount:               req.Amount,
		Currency:             req.Currency,
		RawResponse:          mustJSON(order),
	}
}

func (a *PayPalAdapter) refundResponse(refund *paypal.Refund, req *models.RefundRequest) *models.RefundResponse {
	resp := &models.RefundResponse{
		Success:              paypal.IsSuccess(refund.Status) || paypal.IsPending(refund.Status),
		Status:               models.NormalizeStatus(refund.Status),
		RefundID:             refund.ID,
		TransactionID:        req.TransactionID,
		GatewayTransactionID: req.GatewayTransactionID,
		Gateway:              models.GatewayPayPal,
		Amount:               req.Amount,
		Currency:             req.Currency,
		RawResponse:          mustJSON(refund),
	}
	if refund.Status == paypal.StatusCompleted {
		resp.Status = models.StatusRefunded
	}
	if refund.Amount != nil {
		if amt, err := decimal.NewFromString(refund.Amount.Value); err == nil {
			resp.Amount = &amt
			resp.Currency = refund.Amount.CurrencyCode
		}
	}
	if !resp.Success {
		resp.ErrorCode = refund.Status
		if refund.StatusDetails != nil {
			resp.ErrorMessage = refund.StatusDetails.Reason
		}
	}
	return resp
}

// convertError maps 4xx business errors to responses; everything else is
// returned as an error so the orchestrator can fail over.
func (a *PayPalAdapter) convertError(err error, req *models.PaymentRequest, op string) (*models.PaymentResponse, error) {
	apiErr, ok := paypal.AsError(err)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch {
	case apiErr.IsDeclined():
		resp := declined(models.GatewayPayPal, req, apiErr.Issue(), apiErr.Message, apiErr.Issue())
		resp.RawResponse = mustJSON(apiErr)
		return resp, nil
	case apiErr.IsClientError():
		resp := failed(models.GatewayPayPal, req, models.StatusError, apiErr.Issue(), apiErr.Message)
		resp.RawResponse = mustJSON(apiErr)
		return resp, nil
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}
