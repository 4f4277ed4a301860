package cybersource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/pkg/redact"
)

const (
	// ProductionBaseURL is the production API URL
	ProductionBaseURL = "https://api.cybersource.com"
	// SandboxBaseURL is the test API URL
	SandboxBaseURL = "https://apitest.cybersource.com"
)

// Config holds CyberSource REST configuration
type Config struct {
	BaseURL      string
	MerchantID   string
	KeyID        string
	SharedSecret string // base64 encoded
	Timeout      time.Duration
}

// Client is the CyberSource PTS API client. Every call is HTTP-signed.
type Client struct {
	httpClient *http.Client
	config     Config
	signer     *Signer
	debug      bool
}

// APIError is a non-business failure (auth, 5xx, malformed response).
type APIError struct {
	StatusCode int
	Status     string
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Reason != "" || e.Message != "" {
		return fmt.Sprintf("cybersource api error: %s %s (http %d)", e.Reason, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("cybersource http error: %d", e.StatusCode)
}

// NewClient creates a new CyberSource client
func NewClient(config Config) (*Client, error) {
	signer, err := NewSigner(config.MerchantID, config.KeyID, config.SharedSecret)
	if err != nil {
		return nil, err
	}
	if config.BaseURL == "" {
		config.BaseURL = ProductionBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		signer:     signer,
		debug:      os.Getenv("ENV") == "development",
	}, nil
}

// CreatePayment authorizes (and optionally captures) a card payment
func (c *Client) CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.doRequest(ctx, http.MethodPost, "/pts/v2/payments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refund refunds a captured payment
func (c *Client) Refund(ctx context.Context, paymentID string, req *FollowOnRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.doRequest(ctx, http.MethodPost, "/pts/v2/payments/"+paymentID+"/refunds", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Capture captures a prior authorization
func (c *Client) Capture(ctx context.Context, paymentID string, req *FollowOnRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.doRequest(ctx, http.MethodPost, "/pts/v2/payments/"+paymentID+"/captures", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Void voids a payment before settlement
func (c *Client) Void(ctx context.Context, paymentID string, req *FollowOnRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.doRequest(ctx, http.MethodPost, "/pts/v2/payments/"+paymentID+"/voids", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doRequest performs a signed JSON request. 4xx bodies that carry a status
// (DECLINED, INVALID_REQUEST) are decoded into result and are not errors.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result *PaymentResponse) error {
	url := c.config.BaseURL + path

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	if c.debug {
		log.Debug().
			Str("method", method).
			Str("endpoint", path).
			RawJSON("request", redact.JSON(bodyBytes)).
			Msg("[CYBERSOURCE] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/hal+json;charset=utf-8")
	c.signer.Sign(req, bodyBytes)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", path).
			Int("status_code", resp.StatusCode).
			RawJSON("response", redact.JSON(respBody)).
			Msg("[CYBERSOURCE] Incoming response")
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var decoded PaymentResponse
		if json.Unmarshal(respBody, &decoded) == nil {
			apiErr.Status = decoded.Status
			apiErr.Reason, apiErr.Message = decoded.DeclineReason()
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 400 && result.Status == "" {
		reason, message := result.DeclineReason()
		return &APIError{StatusCode: resp.StatusCode, Reason: reason, Message: message}
	}

	return nil
}
