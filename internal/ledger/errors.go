package ledger

import "errors"

// Validation failures returned by engine operations. Rejected operations are
// full no-ops: the engine never mutates state before validating.
var (
	ErrInvalidPrice            = errors.New("price must be a positive finite number")
	ErrInvalidRate             = errors.New("service charge rate must not be negative")
	ErrItemNotFound            = errors.New("item not found")
	ErrParticipantNotFound     = errors.New("participant not found")
	ErrInvalidParticipantCount = errors.New("participant count must be between 1 and 8")
	ErrNoParticipants          = errors.New("session has no participants")
)
