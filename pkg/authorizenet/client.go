package authorizenet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/pkg/redact"
)

const (
	// ProductionURL is the live JSON endpoint
	ProductionURL = "https://api.authorize.net/xml/v1/request.api"
	// SandboxURL is the sandbox JSON endpoint
	SandboxURL = "https://apitest.authorize.net/xml/v1/request.api"
)

// utf8BOM prefixes every JSON response from the API
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Config holds Authorize.Net configuration
type Config struct {
	URL            string
	LoginID        string
	TransactionKey string
	Timeout        time.Duration
}

// Client is the Authorize.Net JSON API client
type Client struct {
	httpClient *http.Client
	config     Config
	auth       MerchantAuthentication
	debug      bool
}

// APIError is an API-level failure (resultCode Error with no transaction result).
type APIError struct {
	Code string
	Text string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authorizenet api error: %s (code: %s)", e.Text, e.Code)
}

// NewClient creates a new Authorize.Net client
func NewClient(config Config) (*Client, error) {
	if config.LoginID == "" || config.TransactionKey == "" {
		return nil, fmt.Errorf("login id and transaction key are required")
	}
	if config.URL == "" {
		config.URL = ProductionURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		auth:       MerchantAuthentication{Name: config.LoginID, TransactionKey: config.TransactionKey},
		debug:      os.Getenv("ENV") == "development",
	}, nil
}

// CreateTransaction runs a createTransactionRequest. A response carrying a
// transactionResponse is returned even when resultCode is Error: the
// response code inside decides the outcome.
func (c *Client) CreateTransaction(ctx context.Context, refID string, txn *TransactionRequest) (*CreateTransactionResponse, error) {
	payload := map[string]any{
		"createTransactionRequest": createTransactionRequest{
			MerchantAuthentication: c.auth,
			RefID:                  refID,
			TransactionRequest:     txn,
		},
	}
	var resp CreateTransactionResponse
	if err := c.doRequest(ctx, payload, &resp); err != nil {
		return nil, err
	}
	if resp.TransactionResponse == nil || resp.TransactionResponse.ResponseCode == "" {
		if resp.Messages.ResultCode == ResultError {
			msg := resp.Messages.First()
			return nil, &APIError{Code: msg.Code, Text: msg.Text}
		}
		return nil, fmt.Errorf("missing transaction response")
	}
	return &resp, nil
}

// CreateCustomerProfile stores a customer and card in CIM
func (c *Client) CreateCustomerProfile(ctx context.Context, profile *CustomerProfile, validationMode string) (*CreateCustomerProfileResponse, error) {
	payload := map[string]any{
		"createCustomerProfileRequest": createCustomerProfileRequest{
			MerchantAuthentication: c.auth,
			Profile:                profile,
			ValidationMode:         validationMode,
		},
	}
	var resp CreateCustomerProfileResponse
	if err := c.doRequest(ctx, payload, &resp); err != nil {
		return nil, err
	}
	if err := resultError(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateCustomerPaymentProfile runs a zero-amount validation on a stored card
func (c *Client) ValidateCustomerPaymentProfile(ctx context.Context, profileID, paymentProfileID, validationMode string) (*ValidateCustomerPaymentProfileResponse, error) {
	payload := map[string]any{
		"validateCustomerPaymentProfileRequest": validateCustomerPaymentProfileRequest{
			MerchantAuthentication:   c.auth,
			CustomerProfileID:        profileID,
			CustomerPaymentProfileID: paymentProfileID,
			ValidationMode:           validationMode,
		},
	}
	var resp ValidateCustomerPaymentProfileResponse
	if err := c.doRequest(ctx, payload, &resp); err != nil {
		return nil, err
	}
	if err := resultError(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func resultError(resp apiResponse) error {
	m := resp.messages()
	if m.ResultCode == ResultError {
		msg := m.First()
		return &APIError{Code: msg.Code, Text: msg.Text}
	}
	return nil
}

// doRequest posts payload and decodes the BOM-prefixed JSON response
func (c *Client) doRequest(ctx context.Context, payload any, result any) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", c.config.URL).
			RawJSON("request", redact.JSON(bodyBytes)).
			Msg("[AUTHORIZENET] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	respBody = bytes.TrimPrefix(respBody, utf8BOM)

	if c.debug {
		log.Debug().
			Int("status_code", resp.StatusCode).
			RawJSON("response", redact.JSON(respBody)).
			Msg("[AUTHORIZENET] Incoming response")
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// AsAPIError unwraps an API-level error
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
