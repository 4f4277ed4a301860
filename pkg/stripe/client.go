package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/pkg/redact"
)

const (
	// BaseURL is the Stripe API URL. Test mode is selected by the key, not the host.
	BaseURL = "https://api.stripe.com"
	// APIVersion pins the response shape
	APIVersion = "2024-06-20"
)

// Config holds Stripe API configuration
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client is the Stripe REST client
type Client struct {
	httpClient *http.Client
	config     Config
	debug      bool
}

// NewClient creates a new Stripe client
func NewClient(config Config) (*Client, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("secret key not provided")
	}
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		debug:      os.Getenv("ENV") == "development",
	}, nil
}

// IsTestMode reports whether the client uses a test key
func (c *Client) IsTestMode() bool {
	return strings.HasPrefix(c.config.SecretKey, "sk_test_") || strings.HasPrefix(c.config.SecretKey, "rk_test_")
}

// CreatePaymentIntent creates (and with confirm=true, confirms) a payment intent
func (c *Client) CreatePaymentIntent(ctx context.Context, params url.Values) (*PaymentIntent, error) {
	var pi PaymentIntent
	if err := c.doRequest(ctx, http.MethodPost, "/v1/payment_intents", params, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

// CapturePaymentIntent captures an authorized intent. amount nil captures in full.
func (c *Client) CapturePaymentIntent(ctx context.Context, id string, amount *int64) (*PaymentIntent, error) {
	params := url.Values{}
	params.Add("expand[]", "latest_charge")
	if amount != nil {
		params.Set("amount_to_capture", fmt.Sprintf("%d", *amount))
	}
	var pi PaymentIntent
	if err := c.doRequest(ctx, http.MethodPost, "/v1/payment_intents/"+url.PathEscape(id)+"/capture", params, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

// CancelPaymentIntent voids an uncaptured intent
func (c *Client) CancelPaymentIntent(ctx context.Context, id, reason string) (*PaymentIntent, error) {
	params := url.Values{}
	if reason != "" {
		params.Set("cancellation_reason", reason)
	}
	var pi PaymentIntent
	if err := c.doRequest(ctx, http.MethodPost, "/v1/payment_intents/"+url.PathEscape(id)+"/cancel", params, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

// CreateRefund refunds a payment intent
func (c *Client) CreateRefund(ctx context.Context, params url.Values) (*Refund, error) {
	var r Refund
	if err := c.doRequest(ctx, http.MethodPost, "/v1/refunds", params, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreatePaymentMethod stores a card and returns its id
func (c *Client) CreatePaymentMethod(ctx context.Context, params url.Values) (*PaymentMethod, error) {
	var pm PaymentMethod
	if err := c.doRequest(ctx, http.MethodPost, "/v1/payment_methods", params, &pm); err != nil {
		return nil, err
	}
	return &pm, nil
}

// GetPaymentMethod retrieves a stored payment method
func (c *Client) GetPaymentMethod(ctx context.Context, id string) (*PaymentMethod, error) {
	var pm PaymentMethod
	if err := c.doRequest(ctx, http.MethodGet, "/v1/payment_methods/"+url.PathEscape(id), nil, &pm); err != nil {
		return nil, err
	}
	return &pm, nil
}

// doRequest performs a form-encoded request authenticated with the secret key
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, result any) error {
	endpoint := c.config.BaseURL + path

	var body io.Reader
	encoded := params.Encode()
	if method == http.MethodGet {
		if encoded != "" {
			endpoint += "?" + encoded
		}
	} else {
		body = strings.NewReader(encoded)
	}

	if c.debug {
		log.Debug().
			Str("method", method).
			Str("endpoint", path).
			RawJSON("request", redact.Struct(formToMap(params))).
			Msg("[STRIPE] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.config.SecretKey, "")
	req.Header.Set("Stripe-Version", APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
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
			Msg("[STRIPE] Incoming response")
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			errResp.Error.HTTPStatus = resp.StatusCode
			return errResp.Error
		}
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// AsError unwraps a Stripe API error
func AsError(err error) (*Error, bool) {
	var stripeErr *Error
	if errors.As(err, &stripeErr) {
		return stripeErr, true
	}
	return nil, false
}

// formToMap turns form params into a map the redactor understands,
// e.g. payment_method_data[card][number] becomes key "number".
func formToMap(params url.Values) map[string]any {
	out := make(map[string]any, len(params))
	for key, values := range params {
		name := key
		if i := strings.LastIndex(key, "["); i >= 0 && strings.HasSuffix(key, "]") {
			name = key[i+1 : len(key)-1]
			if name == "" {
				name = key
			}
		}
		if len(values) == 1 {
			out[name] = values[0]
		} else {
			out[name] = values
		}
	}
	return out
}
