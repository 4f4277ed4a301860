package paypal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type fakePayPal struct {
	tokenCalls atomic.Int32
	handler    http.HandlerFunc
}

func (f *fakePayPal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/oauth2/token" {
		f.tokenCalls.Add(1)
		id, secret, _ := r.BasicAuth()
		if id != "client" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"access_token":"A21AA","token_type":"Bearer","expires_in":32400}`)
		return
	}
	if r.Header.Get("Authorization") != "Bearer A21AA" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.handler(w, r)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakePayPal) {
	t.Helper()
	fake := &fakePayPal{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, fake
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{ClientID: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCreateOrderReturnsApproveLink(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("PayPal-Request-Id") != "req-1" {
			t.Errorf("request id = %q", r.Header.Get("PayPal-Request-Id"))
		}
		var body OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Intent != IntentCapture || body.PurchaseUnits[0].Amount.Value != "49.99" {
			t.Errorf("body = %+v", body)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"5O190127TN364715T","status":"CREATED","links":[{"href":"https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T","rel":"approve","method":"GET"}]}`)
	})

	req := &OrderRequest{
		Intent:        IntentCapture,
		PurchaseUnits: []PurchaseUnit{{Amount: &Amount{CurrencyCode: "USD", Value: "49.99"}}},
	}
	for i := 0; i < 2; i++ {
		order, err := c.CreateOrder(context.Background(), req, "req-1")
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		if order.ApproveURL() == "" {
			t.Error("missing approve url")
		}
	}
	if got := fake.tokenCalls.Load(); got != 1 {
		t.Errorf("token fetched %d times, want 1", got)
	}
}

func TestCaptureOrder(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/checkout/orders/ORDER1/capture" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"ORDER1","status":"COMPLETED","purchase_units":[{"payments":{"captures":[{"id":"CAP1","status":"COMPLETED","amount":{"currency_code":"USD","value":"10.00"}}]}}]}`)
	})
	order, err := c.CaptureOrder(context.Background(), "ORDER1", "")
	if err != nil {
		t.Fatal(err)
	}
	capture := order.FirstCapture()
	if capture == nil || capture.ID != "CAP1" || !IsSuccess(capture.Status) {
		t.Errorf("capture = %+v", capture)
	}
}

func TestInstrumentDeclined(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"name":"UNPROCESSABLE_ENTITY","message":"The requested action could not be performed.","details":[{"issue":"INSTRUMENT_DECLINED","description":"The instrument presented was either declined by the processor or bank."}]}`)
	})
	_, err := c.CaptureOrder(context.Background(), "ORDER1", "")
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("err = %v", err)
	}
	if !apiErr.IsDeclined() || apiErr.Issue() != "INSTRUMENT_DECLINED" {
		t.Errorf("err = %+v", apiErr)
	}
}

func TestTokenFailure(t *testing.T) {
	fake := &fakePayPal{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c, _ := NewClient(Config{BaseURL: srv.URL, ClientID: "client", ClientSecret: "wrong"})
	if _, err := c.CaptureOrder(context.Background(), "ORDER1", ""); err == nil {
		t.Fatal("expected token error")
	}
}
