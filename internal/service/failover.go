package service

import (
	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
	"github.com/GTDGit/gtd_payments/pkg/redact"
)

// failoverState is the state of one processPayment run.
type failoverState int

const (
	stateSelecting failoverState = iota
	stateAttempting
	stateSucceeded
	stateExhausted
)

func (s failoverState) String() string {
	switch s {
	case stateSelecting:
		return "selecting"
	case stateAttempting:
		return "attempting"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// BuildAttemptQueue orders gateways for one payment: the selected gateway,
// the backup, the remaining active configs in configuration order, then any
// other registered adapter. Each gateway appears once.
func BuildAttemptQueue(selected, backup models.GatewayType, active []*models.PaymentGatewayConfig, registered []models.GatewayType) []models.GatewayType {
	queue := make([]models.GatewayType, 0, len(active)+len(registered)+2)
	seen := make(map[models.GatewayType]bool)
	push := func(t models.GatewayType) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		queue = append(queue, t)
	}

	push(selected)
	push(backup)
	for _, cfg := range active {
		if cfg != nil && cfg.IsActive() {
			push(cfg.GatewayType)
		}
	}
	for _, t := range registered {
		push(t)
	}
	return queue
}

// nextGateway returns the first queued gateway not yet attempted.
func nextGateway(queue []models.GatewayType, attempted map[models.GatewayType]bool) (models.GatewayType, bool) {
	for _, t := range queue {
		if !attempted[t] {
			return t, true
		}
	}
	return "", false
}

// failover drives the attempt loop: Selecting -> Attempting(gateway) ->
// Succeeded, or back to Selecting on failure, until Exhausted.
type failover struct {
	state     failoverState
	queue     []models.GatewayType
	attempted map[models.GatewayType]bool
	current   models.GatewayType
	tried     []models.GatewayType
	lastErr   error
}

func newFailover(queue []models.GatewayType) *failover {
	return &failover{
		state:     stateSelecting,
		queue:     queue,
		attempted: make(map[models.GatewayType]bool, len(queue)),
	}
}

// next moves to Attempting with the next gateway, or to Exhausted.
func (f *failover) next() (models.GatewayType, bool) {
	if f.state != stateSelecting {
		return "", false
	}
	t, ok := nextGateway(f.queue, f.attempted)
	if !ok {
		f.state = stateExhausted
		return "", false
	}
	f.attempted[t] = true
	f.current = t
	f.state = stateAttempting
	return t, true
}

// skip abandons the current gateway without calling it.
func (f *failover) skip() {
	f.state = stateSelecting
}

// fail records an attempt error and returns to Selecting.
func (f *failover) fail(err error) {
	f.tried = append(f.tried, f.current)
	f.lastErr = err
	f.state = stateSelecting
}

// succeed ends the run on the current gateway.
func (f *failover) succeed() {
	f.tried = append(f.tried, f.current)
	f.state = stateSucceeded
}

// abort stops the run, e.g. when the caller's context is done.
func (f *failover) abort(err error) {
	f.lastErr = err
	f.state = stateExhausted
}

func (f *failover) err() *ExhaustedError {
	return &ExhaustedError{Attempted: f.tried, Last: f.lastErr}
}

// ExhaustedError is returned when every gateway in the attempt queue failed.
type ExhaustedError struct {
	Attempted []models.GatewayType
	Last      error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil || e.Last.Error() == "" {
		return "all payment gateways failed"
	}
	return "all payment gateways failed: " + redact.ScrubPANs(e.Last.Error())
}

// Unwrap exposes the last cause.
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Is matches utils.ErrGatewaysExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == utils.ErrGatewaysExhausted
}
