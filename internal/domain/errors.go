package domain

import "errors"

var (
	// ErrSubscriptionFailed is returned when subscription to events fails
	ErrSubscriptionFailed = errors.New("subscription failed")

	// ErrUnsupportedEvent is returned when an event type has no handler
	ErrUnsupportedEvent = errors.New("unsupported event type")

	// ErrMalformedLog is returned when a log cannot be decoded into an event; retrying will not help
	ErrMalformedLog = errors.New("malformed event log")

	// ErrInvalidEvent is returned when an event is missing fields required by its type
	ErrInvalidEvent = errors.New("invalid event")

	// ErrEventOutOfOrder is returned when an event is delivered behind the applied cursor
	ErrEventOutOfOrder = errors.New("event out of order")

	// ErrContractCallReverted is returned when a read-only contract call reverts
	ErrContractCallReverted = errors.New("contract call reverted")
)
