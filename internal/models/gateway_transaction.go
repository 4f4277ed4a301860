package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GatewayOperation is the orchestrator operation that produced a log record.
type GatewayOperation string

const (
	OperationPayment GatewayOperation = "payment"
	OperationRefund  GatewayOperation = "refund"
	OperationVoid    GatewayOperation = "void"
	OperationCapture GatewayOperation = "capture"
)

// PaymentGatewayTransaction is the append-only audit copy of one completed
// gateway attempt. Request and response blobs are sanitized before insert.
type PaymentGatewayTransaction struct {
	ID                   int64              `db:"id" json:"id"`
	TransactionID        string             `db:"transaction_id" json:"transactionId"`
	GatewayTransactionID *string            `db:"gateway_transaction_id" json:"gatewayTransactionId,omitempty"`
	Gateway              GatewayType        `db:"gateway" json:"gateway"`
	Operation            GatewayOperation   `db:"operation" json:"operation"`
	TransactionType      TransactionType    `db:"transaction_type" json:"transactionType"`
	Amount               decimal.Decimal    `db:"amount" json:"amount"`
	Currency             string             `db:"currency" json:"currency"`
	Status               TransactionStatus  `db:"status" json:"status"`
	Success              bool               `db:"success" json:"success"`
	CardBrand            *string            `db:"card_brand" json:"cardBrand,omitempty"`
	CardLast4            *string            `db:"card_last4" json:"cardLast4,omitempty"`
	CustomerEmail        *string            `db:"customer_email" json:"customerEmail,omitempty"`
	ErrorCode            *string            `db:"error_code" json:"errorCode,omitempty"`
	ErrorMessage         *string            `db:"error_message" json:"errorMessage,omitempty"`
	RawRequest           NullableRawMessage `db:"raw_request" json:"rawRequest,omitempty"`
	RawResponse          NullableRawMessage `db:"raw_response" json:"rawResponse,omitempty"`
	IPAddress            *string            `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent            *string            `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt            time.Time          `db:"created_at" json:"createdAt"`
}

// StrPtr returns nil for empty strings so optional columns stay NULL.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NullableRawMessage is a jsonb column that may be NULL.
type NullableRawMessage json.RawMessage

// Scan implements sql.Scanner.
func (m *NullableRawMessage) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
	case []byte:
		*m = append((*m)[:0], v...)
	case string:
		*m = NullableRawMessage(v)
	default:
		return fmt.Errorf("nullable raw message: unsupported scan type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (m NullableRawMessage) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return []byte(m), nil
}

// MarshalJSON renders an empty message as null.
func (m NullableRawMessage) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}
	return m, nil
}

// UnmarshalJSON keeps the raw bytes.
func (m *NullableRawMessage) UnmarshalJSON(data []byte) error {
	*m = append((*m)[:0], data...)
	return nil
}
