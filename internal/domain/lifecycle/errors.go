package lifecycle

import "errors"

var (
	// ErrIllegalTransition is returned for a skipped or backward stage change.
	ErrIllegalTransition = errors.New("illegal stage transition")
	// ErrUnknownStage is returned when either side is not a known stage.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrMissingAssignment is returned when Matched is requested without an event.
	ErrMissingAssignment = errors.New("matched stage requires an assigned event")
)
