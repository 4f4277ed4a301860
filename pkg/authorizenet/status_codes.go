package authorizenet

// Transaction response codes
const (
	ResponseApproved = "1"
	ResponseDeclined = "2"
	ResponseError    = "3"
	ResponseReview   = "4"
)

// API result codes
const (
	ResultOk    = "Ok"
	ResultError = "Error"
)

// Transaction types
const (
	TypeAuthCapture      = "authCaptureTransaction"
	TypeAuthOnly         = "authOnlyTransaction"
	TypePriorAuthCapture = "priorAuthCaptureTransaction"
	TypeRefund           = "refundTransaction"
	TypeVoid             = "voidTransaction"
)

// Validation modes for CIM calls
const (
	ValidationNone = "none"
	ValidationTest = "testMode"
	ValidationLive = "liveMode"
)

// Message codes with a specific meaning
const (
	MsgAuthenticationFailed = "E00007"
	MsgInvalidMerchant      = "E00008"
	MsgDuplicateProfile     = "E00039"
)

// fatalAuthCodes mean the merchant credentials are unusable
var fatalAuthCodes = map[string]bool{
	MsgAuthenticationFailed: true,
	MsgInvalidMerchant:      true,
}

// IsApproved returns true for response code 1
func IsApproved(code string) bool {
	return code == ResponseApproved
}

// IsDeclined returns true for response code 2
func IsDeclined(code string) bool {
	return code == ResponseDeclined
}

// IsReview returns true for response code 4 (held for review)
func IsReview(code string) bool {
	return code == ResponseReview
}

// IsAuthFailure returns true if the message code means bad credentials
func IsAuthFailure(code string) bool {
	return fatalAuthCodes[code]
}
