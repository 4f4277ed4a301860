package authorizenet

// The transaction API is XML-backed: element order inside each object is
// significant, so struct field order below follows the schema.

// MerchantAuthentication identifies the merchant on every request.
type MerchantAuthentication struct {
	Name           string `json:"name"`
	TransactionKey string `json:"transactionKey"`
}

// CreditCard is raw card data. ExpirationDate is YYYY-MM, or XXXX for refunds.
type CreditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardCode       string `json:"cardCode,omitempty"`
}

// Payment is the funding instrument.
type Payment struct {
	CreditCard *CreditCard `json:"creditCard,omitempty"`
}

// PaymentProfileRef points at a stored CIM payment profile.
type PaymentProfileRef struct {
	PaymentProfileID string `json:"paymentProfileId"`
}

// ProfileRef charges a stored customer profile.
type ProfileRef struct {
	CustomerProfileID string            `json:"customerProfileId"`
	PaymentProfile    PaymentProfileRef `json:"paymentProfile"`
}

// Order carries the merchant's reference.
type Order struct {
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Description   string `json:"description,omitempty"`
}

// LineItem is one cart line.
type LineItem struct {
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

// LineItems wraps the repeated lineItem element.
type LineItems struct {
	LineItem []LineItem `json:"lineItem"`
}

// Customer identifies the buyer.
type Customer struct {
	Type  string `json:"type,omitempty"`
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
}

// CustomerAddress is a bill-to or ship-to address.
type CustomerAddress struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// TransactionRequest is the transactionRequest element.
type TransactionRequest struct {
	TransactionType string           `json:"transactionType"`
	Amount          string           `json:"amount,omitempty"`
	CurrencyCode    string           `json:"currencyCode,omitempty"`
	Payment         *Payment         `json:"payment,omitempty"`
	Profile         *ProfileRef      `json:"profile,omitempty"`
	RefTransID      string           `json:"refTransId,omitempty"`
	Order           *Order           `json:"order,omitempty"`
	LineItems       *LineItems       `json:"lineItems,omitempty"`
	Customer        *Customer        `json:"customer,omitempty"`
	BillTo          *CustomerAddress `json:"billTo,omitempty"`
	ShipTo          *CustomerAddress `json:"shipTo,omitempty"`
	CustomerIP      string           `json:"customerIP,omitempty"`
}

type createTransactionRequest struct {
	MerchantAuthentication MerchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	TransactionRequest     *TransactionRequest    `json:"transactionRequest"`
}

// PaymentProfile is a CIM payment profile.
type PaymentProfile struct {
	CustomerType string           `json:"customerType,omitempty"`
	BillTo       *CustomerAddress `json:"billTo,omitempty"`
	Payment      Payment          `json:"payment"`
}

// CustomerProfile is a CIM customer profile with its payment profiles.
type CustomerProfile struct {
	MerchantCustomerID string           `json:"merchantCustomerId,omitempty"`
	Description        string           `json:"description,omitempty"`
	Email              string           `json:"email,omitempty"`
	PaymentProfiles    []PaymentProfile `json:"paymentProfiles"`
}

type createCustomerProfileRequest struct {
	MerchantAuthentication MerchantAuthentication `json:"merchantAuthentication"`
	Profile                *CustomerProfile       `json:"profile"`
	ValidationMode         string                 `json:"validationMode,omitempty"`
}

type validateCustomerPaymentProfileRequest struct {
	MerchantAuthentication   MerchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID        string                 `json:"customerProfileId"`
	CustomerPaymentProfileID string                 `json:"customerPaymentProfileId"`
	ValidationMode           string                 `json:"validationMode"`
}

// Message is one API-level message.
type Message struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// Messages is the API-level result block present on every response.
type Messages struct {
	ResultCode string    `json:"resultCode"`
	Message    []Message `json:"message"`
}

// First returns the first message, if any.
func (m Messages) First() Message {
	if len(m.Message) > 0 {
		return m.Message[0]
	}
	return Message{}
}

// TransactionMessage is a transaction-level message.
type TransactionMessage struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// TransactionError is a transaction-level error.
type TransactionError struct {
	ErrorCode string `json:"errorCode"`
	ErrorText string `json:"errorText"`
}

// TransactionResponse is the transactionResponse element.
type TransactionResponse struct {
	ResponseCode  string               `json:"responseCode"`
	AuthCode      string               `json:"authCode,omitempty"`
	AVSResultCode string               `json:"avsResultCode,omitempty"`
	CVVResultCode string               `json:"cvvResultCode,omitempty"`
	TransID       string               `json:"transId"`
	RefTransID    string               `json:"refTransID,omitempty"`
	AccountNumber string               `json:"accountNumber,omitempty"`
	AccountType   string               `json:"accountType,omitempty"`
	Messages      []TransactionMessage `json:"messages,omitempty"`
	Errors        []TransactionError   `json:"errors,omitempty"`
}

// FirstError returns the first transaction error, if any.
func (t *TransactionResponse) FirstError() TransactionError {
	if len(t.Errors) > 0 {
		return t.Errors[0]
	}
	return TransactionError{}
}

// CreateTransactionResponse is returned by createTransactionRequest.
type CreateTransactionResponse struct {
	TransactionResponse *TransactionResponse `json:"transactionResponse,omitempty"`
	RefID               string               `json:"refId,omitempty"`
	Messages            Messages             `json:"messages"`
}

// CreateCustomerProfileResponse is returned by createCustomerProfileRequest.
type CreateCustomerProfileResponse struct {
	CustomerProfileID            string   `json:"customerProfileId"`
	CustomerPaymentProfileIDList []string `json:"customerPaymentProfileIdList"`
	ValidationDirectResponseList []string `json:"validationDirectResponseList,omitempty"`
	Messages                     Messages `json:"messages"`
}

// ValidateCustomerPaymentProfileResponse is returned by validateCustomerPaymentProfileRequest.
type ValidateCustomerPaymentProfileResponse struct {
	DirectResponse string   `json:"directResponse"`
	Messages       Messages `json:"messages"`
}

type apiResponse interface {
	messages() Messages
}

func (r *CreateTransactionResponse) messages() Messages { return r.Messages }

func (r *CreateCustomerProfileResponse) messages() Messages { return r.Messages }

func (r *ValidateCustomerPaymentProfileResponse) messages() Messages { return r.Messages }
