package booking

import "errors"

var (
	// ErrSelectionFailed means the target play date could not be established
	// on the booking view. Not retried within the run.
	ErrSelectionFailed = errors.New("could not select target date")

	// ErrNoAvailability means both discovery channels were exhausted with
	// nothing bookable in the requested window.
	ErrNoAvailability = errors.New("no availability in requested window")

	// ErrConflict means another party claimed the candidate slot first.
	// Recoverable per candidate; surfaced only if every candidate conflicts.
	ErrConflict = errors.New("slot taken by another party")

	// ErrAcquisition means the confirmation sequence could not be completed
	// for a candidate that was otherwise reachable.
	ErrAcquisition = errors.New("could not complete booking confirmation")
)

// Terminal maps a processing error to the request's terminal status. Known
// domain failures are "failed"; anything else is an unexpected collaborator
// error and is recorded as "error" so it stands out in the processed list.
func Terminal(err error) Status {
	switch {
	case errors.Is(err, ErrSelectionFailed),
		errors.Is(err, ErrNoAvailability),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrAcquisition):
		return StatusFailed
	default:
		return StatusError
	}
}
