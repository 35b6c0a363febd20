package custom_err

import "errors"

var (
	// Webhook errors
	ErrInvalidSecret  = errors.New("invalid webhook secret")
	ErrInvalidPayload = errors.New("invalid webhook payload")
	ErrMissingField   = errors.New("missing required field")

	// Ledger errors
	ErrLedgerUnavailable = errors.New("ledger service unavailable")
	ErrTransferRejected  = errors.New("transfer rejected by ledger")

	// Validation errors
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("invalid currency")
)
