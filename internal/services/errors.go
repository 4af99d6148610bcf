// Package services defines the business logic for webhook processing and
// batch code generation. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

var (
	// ErrMalformedPayload is returned when a webhook body carries neither a
	// challenge token nor an event section.
	ErrMalformedPayload = errors.New("no event data in webhook payload")

	// ErrItemAlreadyAssigned is returned when a second code insert for the
	// same item loses against the storage uniqueness constraint. The vendor's
	// redelivery then takes the already-assigned fast path.
	ErrItemAlreadyAssigned = errors.New("item already has a batch code")
)
