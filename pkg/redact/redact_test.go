package redact

import (
	"encoding/json"
	"strings"
	"testing"
)

const testPAN = "4111111111111111"

func TestMaskPAN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{testPAN, "****-****-****-1111"},
		{"4111 1111 1111 1234", "****-****-****-1234"},
		{"XXXX4242", "****-****-****-4242"},
		{"****-****-****-1111", "****-****-****-1111"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskPAN(tt.in); got != tt.want {
			t.Errorf("MaskPAN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskNameAndEmail(t *testing.T) {
	if got := MaskName("John Doe"); got != "J***" {
		t.Errorf("MaskName = %q", got)
	}
	if got := MaskName("J***"); got != "J***" {
		t.Errorf("MaskName not idempotent: %q", got)
	}
	if got := MaskEmail("john@example.com"); got != "j***@example.com" {
		t.Errorf("MaskEmail = %q", got)
	}
	if got := MaskEmail("j***@example.com"); got != "j***@example.com" {
		t.Errorf("MaskEmail not idempotent: %q", got)
	}
}

func TestScrubPANs(t *testing.T) {
	msg := "card 4111-1111-1111-1111 was declined, order 12345"
	got := ScrubPANs(msg)
	if strings.Contains(got, "4111-1111-1111-1111") {
		t.Fatalf("PAN leaked: %q", got)
	}
	if !strings.Contains(got, "****-****-****-1111") || !strings.Contains(got, "order 12345") {
		t.Fatalf("unexpected scrub result: %q", got)
	}

	// Provider ids longer than a PAN are left alone.
	id := "6461231231231231231231"
	if ScrubPANs(id) != id {
		t.Fatalf("22-digit id should not be masked")
	}
}

func samplePayload() map[string]any {
	return map[string]any{
		"amount":   "49.99",
		"currency": "USD",
		"customer": map[string]any{
			"email": "john@example.com",
			"name":  "John Doe",
		},
		"card": map[string]any{
			"number":    testPAN,
			"cvv":       "123",
			"exp_month": 12,
			"exp_year":  2030,
		},
		"billing_address": map[string]any{
			"name":        "John Doe",
			"line1":       "1 Main St",
			"city":        "Austin",
			"state":       "TX",
			"postal_code": "78701",
			"phone":       "+15550100",
		},
		"merchantAuthentication": map[string]any{
			"name":           "api-login",
			"transactionKey": "secret-key",
		},
		"metadata": map[string]any{
			"note": "paid with " + testPAN,
		},
	}
}

func TestStructRedactsCardholderData(t *testing.T) {
	out := string(Struct(samplePayload()))

	for _, leaked := range []string{testPAN, `"123"`, "John Doe", "john@example.com", "1 Main St", "+15550100", "78701", "secret-key"} {
		if strings.Contains(out, leaked) {
			t.Errorf("sanitized payload contains %q: %s", leaked, out)
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	card := decoded["card"].(map[string]any)
	if card["number"] != "****-****-****-1111" {
		t.Errorf("card number = %v", card["number"])
	}
	if card["cvv"] != MaskedCVV {
		t.Errorf("cvv = %v", card["cvv"])
	}
	addr := decoded["billing_address"].(map[string]any)
	if addr["city"] != "Austin" || addr["state"] != "TX" {
		t.Errorf("fraud fields dropped: %v", addr)
	}
	if _, ok := addr["line1"]; ok {
		t.Errorf("street line kept: %v", addr)
	}
	customer := decoded["customer"].(map[string]any)
	if customer["email"] != "j***@example.com" || customer["name"] != "J***" {
		t.Errorf("customer = %v", customer)
	}
}

func TestJSONIsIdempotent(t *testing.T) {
	once := JSON(Struct(samplePayload()))
	twice := JSON(once)
	if string(once) != string(twice) {
		t.Fatalf("not idempotent:\n once: %s\ntwice: %s", once, twice)
	}
}

func TestJSONNonJSONInput(t *testing.T) {
	out := JSON([]byte("gateway said no for " + testPAN))
	if strings.Contains(string(out), testPAN) {
		t.Fatalf("PAN leaked from non-json input: %s", out)
	}
	var s string
	if err := json.Unmarshal(out, &s); err != nil {
		t.Fatalf("expected JSON string: %v", err)
	}
}

func TestJSONScrubsNumericPANs(t *testing.T) {
	raw := []byte(`{"reference":4111111111111111,"id":12345678901234567890,"nested":{"acct":5555555555554444},"amount":49.99}`)
	out := string(JSON(raw))

	for _, leaked := range []string{testPAN, "5555555555554444"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("numeric PAN %s leaked: %s", leaked, out)
		}
	}
	if !strings.Contains(out, `"id":12345678901234567890`) {
		t.Errorf("large id not preserved as a number: %s", out)
	}
	if !strings.Contains(out, `"amount":49.99`) {
		t.Errorf("amount changed: %s", out)
	}
	if !strings.Contains(out, `"reference":"****-****-****-1111"`) || !strings.Contains(out, `"acct":"****-****-****-4444"`) {
		t.Errorf("numeric PANs not masked: %s", out)
	}

	if again := string(JSON([]byte(out))); again != out {
		t.Fatalf("not idempotent:\n once: %s\ntwice: %s", out, again)
	}
}

func TestJSONNumericCardNumberField(t *testing.T) {
	out := string(JSON([]byte(`{"card":{"number":4111111111111111,"exp_year":2030}}`)))
	if strings.Contains(out, testPAN) {
		t.Fatalf("PAN leaked: %s", out)
	}
	if !strings.Contains(out, `"number":"****-****-****-1111"`) || !strings.Contains(out, `"exp_year":2030`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestJSONTrailingDataIsTreatedAsText(t *testing.T) {
	out := JSON([]byte(`{"ok":true} ` + testPAN))
	var s string
	if err := json.Unmarshal(out, &s); err != nil {
		t.Fatalf("expected JSON string for trailing data: %v (%s)", err, out)
	}
	if strings.Contains(s, testPAN) {
		t.Fatalf("PAN leaked: %s", s)
	}
}

func TestNameMaskedOnlyForPeople(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
		gone []string
	}{
		{
			name: "line items keep product names",
			in:   `{"purchase_units":[{"items":[{"name":"Widget","quantity":"1"}]}]}`,
			want: []string{`"name":"Widget"`},
		},
		{
			name: "customer name",
			in:   `{"customer":{"name":"Jane Doe"}}`,
			want: []string{`"name":"J***"`},
			gone: []string{"Jane Doe"},
		},
		{
			name: "payer nested name object",
			in:   `{"payer":{"name":{"given_name":"Jane","surname":"Doe"}}}`,
			want: []string{`"given_name":"J***"`, `"surname":"D***"`},
			gone: []string{"Jane", "Doe"},
		},
		{
			name: "card holder",
			in:   `{"payment_source":{"card":{"name":"Jane Doe","number":"4111111111111111"}}}`,
			want: []string{`"name":"J***"`},
			gone: []string{"Jane Doe", testPAN},
		},
		{
			name: "explicit person keys anywhere",
			in:   `{"order":{"cardholder_name":"Jane Doe","description":"Widget"}}`,
			want: []string{`"cardholder_name":"J***"`, `"description":"Widget"`},
			gone: []string{"Jane Doe"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := string(JSON([]byte(tt.in)))
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %s in %s", w, out)
				}
			}
			for _, g := range tt.gone {
				if strings.Contains(out, g) {
					t.Errorf("%q leaked in %s", g, out)
				}
			}
		})
	}
}
