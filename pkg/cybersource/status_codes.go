package cybersource

// Status values returned by the PTS API
const (
	StatusAuthorized              = "AUTHORIZED"
	StatusPartialAuthorized       = "PARTIAL_AUTHORIZED"
	StatusAuthorizedPendingReview = "AUTHORIZED_PENDING_REVIEW"
	StatusAuthorizedRiskDeclined  = "AUTHORIZED_RISK_DECLINED"
	StatusPending                 = "PENDING"
	StatusTransmitted             = "TRANSMITTED"
	StatusSettled                 = "SETTLED"
	StatusVoided                  = "VOIDED"
	StatusReversed                = "REVERSED"
	StatusDeclined                = "DECLINED"
	StatusRejected                = "REJECTED"
	StatusInvalidRequest          = "INVALID_REQUEST"
	StatusServerError             = "SERVER_ERROR"
)

// successStatuses are statuses that mean the operation went through
var successStatuses = map[string]bool{
	StatusAuthorized:        true,
	StatusPartialAuthorized: true,
	StatusPending:           true,
	StatusTransmitted:       true,
	StatusSettled:           true,
	StatusVoided:            true,
	StatusReversed:          true,
}

// declinedStatuses are definitive negative business outcomes
var declinedStatuses = map[string]bool{
	StatusDeclined:               true,
	StatusRejected:               true,
	StatusAuthorizedRiskDeclined: true,
}

// reviewStatuses are held for manual review
var reviewStatuses = map[string]bool{
	StatusAuthorizedPendingReview: true,
}

// IsSuccess returns true if status is in the success set
func IsSuccess(status string) bool {
	return successStatuses[status]
}

// IsDeclined returns true if status is a decline
func IsDeclined(status string) bool {
	return declinedStatuses[status]
}

// IsReview returns true if the transaction is held for review
func IsReview(status string) bool {
	return reviewStatuses[status]
}

// cardTypes maps CyberSource card type codes to brand names
var cardTypes = map[string]string{
	"001": "visa",
	"002": "mastercard",
	"003": "amex",
	"004": "discover",
	"005": "diners",
	"007": "jcb",
	"042": "maestro",
	"062": "unionpay",
}

// CardBrand returns the brand for a card type code
func CardBrand(code string) string {
	if b, ok := cardTypes[code]; ok {
		return b
	}
	return code
}
