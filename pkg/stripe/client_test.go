package stripe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test_123"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without secret key")
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != "sk_test_123" {
			t.Errorf("basic auth user = %q", user)
		}
		if r.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
			t.Errorf("content-type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("amount") != "4999" || r.PostForm.Get("confirm") != "true" {
			t.Errorf("form = %v", r.PostForm)
		}
		io.WriteString(w, `{"id":"pi_1","object":"payment_intent","amount":4999,"currency":"usd","status":"succeeded",
			"latest_charge":{"id":"ch_1","status":"succeeded","payment_method_details":{"type":"card","card":{"brand":"visa","last4":"1111","checks":{"cvc_check":"pass"}}}}}`)
	})

	params := url.Values{}
	params.Set("amount", "4999")
	params.Set("currency", "usd")
	params.Set("confirm", "true")
	pi, err := c.CreatePaymentIntent(context.Background(), params)
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if !IsSuccess(pi.Status) {
		t.Errorf("status = %q", pi.Status)
	}
	if pi.LatestCharge == nil || pi.LatestCharge.PaymentMethodDetails.Card.Last4 != "1111" {
		t.Errorf("latest charge = %+v", pi.LatestCharge)
	}
}

func TestCardErrorIsTyped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		io.WriteString(w, `{"error":{"type":"card_error","code":"card_declined","decline_code":"insufficient_funds","message":"Your card has insufficient funds.","payment_intent":{"id":"pi_2","status":"requires_payment_method"}}}`)
	})

	_, err := c.CreatePaymentIntent(context.Background(), url.Values{})
	stripeErr, ok := AsError(err)
	if !ok {
		t.Fatalf("err = %v, want *Error", err)
	}
	if !stripeErr.IsCardError() || stripeErr.HTTPStatus != http.StatusPaymentRequired {
		t.Errorf("err = %+v", stripeErr)
	}
	if stripeErr.DeclineCode != "insufficient_funds" || stripeErr.PaymentIntent.ID != "pi_2" {
		t.Errorf("decline detail = %+v", stripeErr)
	}
}

func TestServerErrorIsUntyped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "<html>down</html>")
	})
	_, err := c.CreateRefund(context.Background(), url.Values{})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := AsError(err); ok {
		t.Error("non-JSON 503 must not be a typed Stripe error")
	}
}

func TestGetPaymentMethod(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/payment_methods/pm_1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"id":"pm_1","type":"card","card":{"brand":"mastercard","last4":"4444","exp_month":12,"exp_year":2030}}`)
	})
	pm, err := c.GetPaymentMethod(context.Background(), "pm_1")
	if err != nil {
		t.Fatal(err)
	}
	if pm.Card.Brand != "mastercard" || pm.Card.ExpYear != 2030 {
		t.Errorf("pm = %+v", pm)
	}
}

func TestFormToMapRedactsNestedCard(t *testing.T) {
	params := url.Values{}
	params.Set("payment_method_data[card][number]", "4111111111111111")
	params.Set("payment_method_data[card][cvc]", "123")
	m := formToMap(params)
	if m["number"] != "4111111111111111" || m["cvc"] != "123" {
		t.Errorf("m = %v", m)
	}
}
