package models

import (
	"encoding/json"
	"testing"
)

func TestNullableRawMessage(t *testing.T) {
	var m NullableRawMessage
	if err := m.Scan(nil); err != nil || m != nil {
		t.Fatalf("scan nil = %v, %v", m, err)
	}
	if v, _ := m.Value(); v != nil {
		t.Errorf("value of empty message = %v, want nil", v)
	}

	if err := m.Scan([]byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if string(m) != `{"a":1}` {
		t.Errorf("scan bytes = %s", m)
	}
	if err := m.Scan(42); err == nil {
		t.Error("expected error for int source")
	}

	rec := PaymentGatewayTransaction{RawResponse: NullableRawMessage(`{"id":"pi_1"}`)}
	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["rawRequest"] != nil {
		t.Errorf("rawRequest = %v, want null", decoded["rawRequest"])
	}
	if resp, ok := decoded["rawResponse"].(map[string]any); !ok || resp["id"] != "pi_1" {
		t.Errorf("rawResponse = %v", decoded["rawResponse"])
	}
}

func TestStrPtr(t *testing.T) {
	if StrPtr("") != nil {
		t.Error("empty string should be nil")
	}
	if p := StrPtr("x"); p == nil || *p != "x" {
		t.Errorf("StrPtr = %v", p)
	}
}
