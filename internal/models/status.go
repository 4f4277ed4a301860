package models

import "strings"

// TransactionStatus is the provider-agnostic outcome taxonomy.
type TransactionStatus string

const (
	StatusApproved TransactionStatus = "approved"
	StatusDeclined TransactionStatus = "declined"
	StatusError    TransactionStatus = "error"
	StatusVoided   TransactionStatus = "voided"
	StatusRefunded TransactionStatus = "refunded"
	StatusPending  TransactionStatus = "pending"
)

// knownStatuses maps exact provider vocabulary that the substring rules
// would misclassify. Keys are lower case.
var knownStatuses = map[string]TransactionStatus{
	"settled":                   StatusApproved,
	"authorized":                StatusApproved,
	"partial_authorized":        StatusApproved,
	"captured":                  StatusApproved,
	"transmitted":               StatusApproved,
	"requires_capture":          StatusApproved,
	"authorized_pending_review": StatusPending,
	"authorized_risk_declined":  StatusDeclined,
	"requires_action":           StatusPending,
	"requires_confirmation":     StatusPending,
	"created":                   StatusPending,
	"payer_action_required":     StatusPending,
	"requires_payment_method":   StatusDeclined,
	"invalid_request":           StatusError,
	"reversed":                  StatusVoided,
}

// statusRule is one substring classification step. Order matters: the
// first rule with a matching needle wins.
type statusRule struct {
	needles []string
	status  TransactionStatus
}

var statusRules = []statusRule{
	{[]string{"approved", "succeeded", "success", "completed"}, StatusApproved},
	{[]string{"declined", "rejected", "failed"}, StatusDeclined},
	{[]string{"void", "cancel"}, StatusVoided},
	{[]string{"refund"}, StatusRefunded},
	{[]string{"pending", "processing"}, StatusPending},
	{[]string{"error", "exception"}, StatusError},
}

// NormalizeStatus maps a provider status string to the canonical status.
// Unrecognised input is StatusError; nothing is ever assumed successful.
func NormalizeStatus(raw string) TransactionStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StatusError
	}
	if st, ok := knownStatuses[s]; ok {
		return st
	}
	for _, rule := range statusRules {
		for _, n := range rule.needles {
			if strings.Contains(s, n) {
				return rule.status
			}
		}
	}
	return StatusError
}

// IsFinal reports whether no further state change is expected.
func (s TransactionStatus) IsFinal() bool {
	return s != StatusPending
}
