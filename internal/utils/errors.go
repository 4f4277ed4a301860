package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken          = errors.New("INVALID_TOKEN")
	ErrInvalidAmount         = errors.New("INVALID_AMOUNT")
	ErrInvalidRequest        = errors.New("INVALID_REQUEST")
	ErrInvalidGateway        = errors.New("INVALID_GATEWAY")
	ErrNoGatewayAvailable    = errors.New("NO_GATEWAY_AVAILABLE")
	ErrGatewaysExhausted     = errors.New("ALL_GATEWAYS_FAILED")
	ErrGatewayNotRegistered  = errors.New("GATEWAY_NOT_REGISTERED")
	ErrOperationNotSupported = errors.New("OPERATION_NOT_SUPPORTED")
	ErrMissingCredentials    = errors.New("MISSING_CREDENTIALS")
	ErrTransactionNotFound   = errors.New("TRANSACTION_NOT_FOUND")
)
