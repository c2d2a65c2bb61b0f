package booking

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// Request is one queued booking attempt for a play date. A request is
// mutated exactly once per run, when it reaches a terminal status; it is
// never re-queued automatically.
type Request struct {
	ID        int64
	CreatedAt time.Time

	// PlayDate is the target calendar date, normalized to midnight UTC.
	PlayDate time.Time
	Window   TimeRange

	Status Status

	ProcessedAt    *time.Time
	BookedTime     string // normalized HH:MM of the acquired slot
	ConfirmationID string
	FailureReason  string
}

// Resolve moves the request to a terminal status. It is a no-op if the
// request already left pending, preserving the single-transition invariant.
func (r *Request) Resolve(status Status, now time.Time, reason string) {
	if r.Status != StatusPending {
		return
	}
	r.Status = status
	r.ProcessedAt = &now
	r.FailureReason = reason
}

// Date builds a date-only value the way the rest of the package expects it.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
