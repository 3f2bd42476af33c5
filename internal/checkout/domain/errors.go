package domain

import "errors"

var (
	ErrBillUnavailable  = errors.New("bill_unavailable")
	ErrGateway          = errors.New("gateway_error")
	ErrInvalidConfig    = errors.New("invalid_gateway_config")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrEventIgnored     = errors.New("event_ignored")
	ErrIntentNotFound   = errors.New("payment_intent_not_found")
	ErrIntentMismatch   = errors.New("payment_intent_mismatch")
	ErrIntentNotPaid    = errors.New("payment_intent_not_succeeded")
)
