package paypal

// Order intents
const (
	IntentCapture   = "CAPTURE"
	IntentAuthorize = "AUTHORIZE"
)

// Order statuses
const (
	OrderCreated             = "CREATED"
	OrderSaved               = "SAVED"
	OrderApproved            = "APPROVED"
	OrderVoided              = "VOIDED"
	OrderCompleted           = "COMPLETED"
	OrderPayerActionRequired = "PAYER_ACTION_REQUIRED"
)

// Capture, authorization and refund statuses
const (
	StatusCompleted         = "COMPLETED"
	StatusCreated           = "CREATED"
	StatusCaptured          = "CAPTURED"
	StatusPending           = "PENDING"
	StatusDeclined          = "DECLINED"
	StatusFailed            = "FAILED"
	StatusRefunded          = "REFUNDED"
	StatusPartiallyRefunded = "PARTIALLY_REFUNDED"
	StatusVoided            = "VOIDED"
	StatusDenied            = "DENIED"
	StatusCancelled         = "CANCELLED"
)

// successStatuses mean funds were captured or held
var successStatuses = map[string]bool{
	StatusCompleted: true,
	StatusCreated:   true,
	StatusCaptured:  true,
}

// pendingStatuses are not final yet
var pendingStatuses = map[string]bool{
	StatusPending:            true,
	OrderApproved:            true,
	OrderSaved:               true,
	OrderPayerActionRequired: true,
}

// declineIssues are 422 issue codes that mean the buyer's instrument was refused
var declineIssues = map[string]bool{
	"INSTRUMENT_DECLINED":                     true,
	"TRANSACTION_REFUSED":                     true,
	"PAYER_CANNOT_PAY":                        true,
	"PAYEE_BLOCKED_TRANSACTION":               true,
	"COMPLIANCE_VIOLATION":                    true,
	"MAX_NUMBER_OF_PAYMENT_ATTEMPTS_EXCEEDED": true,
}

// IsSuccess returns true if status is a completed or held payment
func IsSuccess(status string) bool {
	return successStatuses[status]
}

// IsPending returns true if the payment is not final yet
func IsPending(status string) bool {
	return pendingStatuses[status]
}
