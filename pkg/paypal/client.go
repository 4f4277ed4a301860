package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/pkg/redact"
)

const (
	// ProductionBaseURL is the live REST API URL
	ProductionBaseURL = "https://api-m.paypal.com"
	// SandboxBaseURL is the sandbox REST API URL
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"

	// tokenSkew renews the access token before PayPal expires it
	tokenSkew = 60 * time.Second
)

// Config holds PayPal REST configuration
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client is the PayPal Orders v2 / Payments v2 client. It holds an OAuth2
// client-credentials token shared by all callers.
type Client struct {
	httpClient *http.Client
	config     Config
	debug      bool

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
	now         func() time.Time
}

// NewClient creates a new PayPal client
func NewClient(config Config) (*Client, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("client id and client secret are required")
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
		debug:      os.Getenv("ENV") == "development",
		now:        time.Now,
	}, nil
}

// CreateOrder creates a checkout order the buyer must approve
func (c *Client) CreateOrder(ctx context.Context, req *OrderRequest, requestID string) (*Order, error) {
	var order Order
	if err := c.doRequest(ctx, http.MethodPost, "/v2/checkout/orders", req, requestID, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder captures an approved CAPTURE-intent order
func (c *Client) CaptureOrder(ctx context.Context, orderID, requestID string) (*Order, error) {
	var order Order
	if err := c.doRequest(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture", struct{}{}, requestID, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// AuthorizeOrder authorizes an approved AUTHORIZE-intent order
func (c *Client) AuthorizeOrder(ctx context.Context, orderID, requestID string) (*Order, error) {
	var order Order
	if err := c.doRequest(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(orderID)+"/authorize", struct{}{}, requestID, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureAuthorization captures a held authorization
func (c *Client) CaptureAuthorization(ctx context.Context, authorizationID string, req *CaptureRequest, requestID string) (*Capture, error) {
	var capture Capture
	if err := c.doRequest(ctx, http.MethodPost, "/v2/payments/authorizations/"+url.PathEscape(authorizationID)+"/capture", req, requestID, &capture); err != nil {
		return nil, err
	}
	return &capture, nil
}

// RefundCapture refunds a captured payment
func (c *Client) RefundCapture(ctx context.Context, captureID string, req *RefundRequest, requestID string) (*Refund, error) {
	var refund Refund
	if err := c.doRequest(ctx, http.MethodPost, "/v2/payments/captures/"+url.PathEscape(captureID)+"/refund", req, requestID, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// token returns a cached access token, fetching a new one when it is about to expire
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.config.ClientID, c.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token http error: %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("failed to decode token response")
	}

	c.accessToken = tok.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSkew)
	return c.accessToken, nil
}

// invalidateToken drops the cached token after a 401
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

// doRequest performs a JSON request with a bearer token
func (c *Client) doRequest(ctx context.Context, method, path string, body any, requestID string, result any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var bodyBytes []byte
	if body != nil {
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
			Msg("[PAYPAL] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Prefer", "return=representation")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

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
			Msg("[PAYPAL] Incoming response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}

	if resp.StatusCode >= 400 {
		var apiErr Error
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Name != "" {
			apiErr.HTTPStatus = resp.StatusCode
			return &apiErr
		}
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// AsError unwraps a PayPal API error
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
