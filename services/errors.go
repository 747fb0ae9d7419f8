package services

import "errors"

// Sentinel errors shared between the service layer and the HTTP mapping.
var (
	// Validation: malformed request shape or missing required fields.
	// Rejected before any store write.
	ErrUnknownRecordKind        = errors.New("unknown record kind")
	ErrUnknownCollection        = errors.New("unknown collection")
	ErrPayloadMalformed         = errors.New("malformed payload")
	ErrPayloadNotSequence       = errors.New("payload must be an array")
	ErrPlayerFieldsMissing      = errors.New("new player requires name, position and skill")
	ErrInvalidPosition          = errors.New("unknown position code")
	ErrApplicationFieldsMissing = errors.New("application requires name, number, position and skill")
	ErrSelectionFieldsMissing   = errors.New("selection requires a player reference and a number")
	ErrNumberOutOfRange         = errors.New("jersey number must be between 1 and 99")

	// Conflict: the jersey-number invariant would break.
	ErrNumberTaken = errors.New("jersey number already in use")

	// The underlying blob store failed; surfaced as a generic server
	// error, never retried here.
	ErrStoreUnavailable = errors.New("document store unavailable")
)
