package stripe

// PaymentIntent statuses
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusRequiresAction        = "requires_action"
	StatusProcessing            = "processing"
	StatusRequiresCapture       = "requires_capture"
	StatusCanceled              = "canceled"
	StatusSucceeded             = "succeeded"
)

// Error types
const (
	ErrorTypeAPI            = "api_error"
	ErrorTypeCard           = "card_error"
	ErrorTypeIdempotency    = "idempotency_error"
	ErrorTypeInvalidRequest = "invalid_request_error"
)

// successStatuses are PaymentIntent statuses where funds are secured
var successStatuses = map[string]bool{
	StatusSucceeded:       true,
	StatusRequiresCapture: true,
}

// pendingStatuses need more time or customer interaction
var pendingStatuses = map[string]bool{
	StatusProcessing:           true,
	StatusRequiresAction:       true,
	StatusRequiresConfirmation: true,
}

// IsSuccess returns true if status secured the funds
func IsSuccess(status string) bool {
	return successStatuses[status]
}

// IsPending returns true if the intent is still in flight
func IsPending(status string) bool {
	return pendingStatuses[status]
}

// refundSuccessStatuses are refund statuses that are not failures
var refundSuccessStatuses = map[string]bool{
	"succeeded": true,
	"pending":   true,
}

// IsRefundSuccess returns true if the refund was accepted
func IsRefundSuccess(status string) bool {
	return refundSuccessStatuses[status]
}
