package cybersource

// Request types

// ClientReference correlates a request with the merchant's own id.
type ClientReference struct {
	Code string `json:"code,omitempty"`
}

// ProcessingInformation controls authorization vs sale.
type ProcessingInformation struct {
	Capture           bool   `json:"capture"`
	CommerceIndicator string `json:"commerceIndicator,omitempty"`
}

// Card carries raw card data. CyberSource in this integration never
// receives tokens.
type Card struct {
	Number          string `json:"number"`
	ExpirationMonth string `json:"expirationMonth"`
	ExpirationYear  string `json:"expirationYear"`
	SecurityCode    string `json:"securityCode,omitempty"`
}

// PaymentInformation wraps the funding instrument.
type PaymentInformation struct {
	Card Card `json:"card"`
}

// AmountDetails is the amount block shared by every request.
type AmountDetails struct {
	TotalAmount      string `json:"totalAmount,omitempty"`
	AuthorizedAmount string `json:"authorizedAmount,omitempty"`
	Currency         string `json:"currency,omitempty"`
}

// BillTo is the billing contact.
type BillTo struct {
	FirstName          string `json:"firstName,omitempty"`
	LastName           string `json:"lastName,omitempty"`
	Address1           string `json:"address1,omitempty"`
	Address2           string `json:"address2,omitempty"`
	Locality           string `json:"locality,omitempty"`
	AdministrativeArea string `json:"administrativeArea,omitempty"`
	PostalCode         string `json:"postalCode,omitempty"`
	Country            string `json:"country,omitempty"`
	Email              string `json:"email,omitempty"`
	PhoneNumber        string `json:"phoneNumber,omitempty"`
}

// LineItem is one order line.
type LineItem struct {
	ProductName string `json:"productName,omitempty"`
	ProductSKU  string `json:"productSku,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	UnitPrice   string `json:"unitPrice,omitempty"`
}

// OrderInformation carries amount, billing and lines.
type OrderInformation struct {
	AmountDetails AmountDetails `json:"amountDetails"`
	BillTo        *BillTo       `json:"billTo,omitempty"`
	LineItems     []LineItem    `json:"lineItems,omitempty"`
}

// DeviceInformation carries the buyer's network details for fraud screening.
type DeviceInformation struct {
	IPAddress string `json:"ipAddress,omitempty"`
}

// PaymentRequest is the body of POST /pts/v2/payments.
type PaymentRequest struct {
	ClientReferenceInformation ClientReference        `json:"clientReferenceInformation"`
	ProcessingInformation      *ProcessingInformation `json:"processingInformation,omitempty"`
	PaymentInformation         *PaymentInformation    `json:"paymentInformation,omitempty"`
	OrderInformation           *OrderInformation      `json:"orderInformation,omitempty"`
	DeviceInformation          *DeviceInformation     `json:"deviceInformation,omitempty"`
}

// FollowOnRequest is the body of refunds, captures and voids.
type FollowOnRequest struct {
	ClientReferenceInformation ClientReference   `json:"clientReferenceInformation"`
	OrderInformation           *OrderInformation `json:"orderInformation,omitempty"`
}

// Response types

// ErrorInformation explains a decline or rejected request.
type ErrorInformation struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// AVSResult is the address verification outcome.
type AVSResult struct {
	Code string `json:"code"`
}

// CardVerification is the CVN check outcome.
type CardVerification struct {
	ResultCode string `json:"resultCode"`
}

// ProcessorInformation is the processor-level result.
type ProcessorInformation struct {
	ApprovalCode     string            `json:"approvalCode,omitempty"`
	TransactionID    string            `json:"transactionId,omitempty"`
	ResponseCode     string            `json:"responseCode,omitempty"`
	AVS              *AVSResult        `json:"avs,omitempty"`
	CardVerification *CardVerification `json:"cardVerification,omitempty"`
}

// PaymentAccountInformation reports the card type code.
type PaymentAccountInformation struct {
	Card struct {
		Type string `json:"type"`
	} `json:"card"`
}

// RiskScore is the decision manager score block.
type RiskScore struct {
	Result string `json:"result"`
}

// RiskInformation carries the decision manager score.
type RiskInformation struct {
	Score *RiskScore `json:"score,omitempty"`
}

// OrderAmount is the amount block echoed back in responses.
type OrderAmount struct {
	AmountDetails AmountDetails `json:"amountDetails"`
}

// PaymentResponse is returned by every PTS endpoint.
type PaymentResponse struct {
	ID                         string                     `json:"id"`
	Status                     string                     `json:"status"`
	SubmitTimeUTC              string                     `json:"submitTimeUtc"`
	ReconciliationID           string                     `json:"reconciliationId,omitempty"`
	Reason                     string                     `json:"reason,omitempty"`
	Message                    string                     `json:"message,omitempty"`
	ClientReferenceInformation *ClientReference           `json:"clientReferenceInformation,omitempty"`
	ErrorInformation           *ErrorInformation          `json:"errorInformation,omitempty"`
	ProcessorInformation       *ProcessorInformation      `json:"processorInformation,omitempty"`
	PaymentAccountInformation  *PaymentAccountInformation `json:"paymentAccountInformation,omitempty"`
	RiskInformation            *RiskInformation           `json:"riskInformation,omitempty"`
	OrderInformation           *OrderAmount               `json:"orderInformation,omitempty"`
}

// DeclineReason returns the most specific explanation available.
func (r *PaymentResponse) DeclineReason() (reason, message string) {
	if r.ErrorInformation != nil {
		return r.ErrorInformation.Reason, r.ErrorInformation.Message
	}
	return r.Reason, r.Message
}
