// Package driver defines the collaborator surface the acquisition engine
// needs from the browser-automation layer. The engine never touches pages or
// frames directly; everything it observes or acts on comes through these
// interfaces, which keeps the automation implementation swappable and the
// engine testable with fakes.
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/example/tee-scheduler/internal/booking"
)

// Credentials are supplied opaquely to the login flow; the engine never
// inspects them.
type Credentials struct {
	Username string
	Password string
}

type Authenticator interface {
	// Authenticate logs in and returns the single session the run owns.
	Authenticate(ctx context.Context, creds Credentials) (Session, error)
}

// Session is the authenticated connection to the booking site. It is owned
// exclusively by one run; no two components use it concurrently except the
// background tee-sheet interception, which the engine joins explicitly.
type Session interface {
	// Navigate performs a full navigation to the tee sheet for date and
	// returns the fresh view.
	Navigate(ctx context.Context, date time.Time) (View, error)

	// CurrentView returns whatever view the session is on, without
	// navigating. Used to capture diagnostics when a request fails before
	// discovery handed out a view.
	CurrentView(ctx context.Context) (View, error)

	// InterceptTeeSheet resolves with the first structured tee-sheet
	// response for date observed in background traffic, or
	// ErrInterceptTimeout after the bound.
	InterceptTeeSheet(ctx context.Context, date time.Time, timeout time.Duration) (TeeSheet, error)

	Close(ctx context.Context) error
}

// View is one page/frame lifetime. Slot handles discovered on a view are
// invalid after the view is reloaded or replaced.
type View interface {
	// Observe returns a readable snapshot of the current render.
	Observe(ctx context.Context) (Snapshot, error)

	// Reload refreshes the results frame in place, without a full
	// navigation.
	Reload(ctx context.Context) error

	// DiscoverSlots lists the currently rendered candidate slots.
	DiscoverSlots(ctx context.Context) ([]booking.Slot, error)

	// SelectSlot clicks the candidate and races the conflict indicator
	// against the confirmation form within timeout.
	SelectSlot(ctx context.Context, slot booking.Slot, timeout time.Duration) (SelectOutcome, error)

	// DismissConflict closes the "time no longer available" dialog so the
	// next candidate can be attempted.
	DismissConflict(ctx context.Context) error

	// Confirm runs the fixed confirmation sequence (party selection,
	// submit) and waits up to timeout for the explicit success signal.
	Confirm(ctx context.Context, timeout time.Duration) (ConfirmOutcome, error)

	// CaptureDiagnostic renders an opaque artifact (e.g. a screenshot) of
	// the current view.
	CaptureDiagnostic(ctx context.Context) ([]byte, error)
}

// Snapshot is a readable observation of a view: its visible text plus the
// number of visible slot-availability indicator elements.
type Snapshot struct {
	Text           string
	SlotIndicators int
}

type SelectOutcome int

const (
	// SelectFormReached means the confirmation form became reachable.
	SelectFormReached SelectOutcome = iota
	// SelectConflict means another party got the slot first.
	SelectConflict
	// SelectTimeout means neither indicator appeared within the bound.
	SelectTimeout
)

func (o SelectOutcome) String() string {
	switch o {
	case SelectFormReached:
		return "form-reached"
	case SelectConflict:
		return "conflict"
	default:
		return "timeout"
	}
}

type ConfirmOutcome struct {
	Confirmed      bool
	ConfirmationID string
}

// TeeSheet is the structured payload captured from the site's background
// availability fetch: the secondary signal channel.
type TeeSheet struct {
	Date  time.Time
	Slots []TeeSheetSlot
}

// TeeSheetSlot carries the per-slot remaining capacity as reported by the
// structured channel. Time is the clock string as rendered by the service.
type TeeSheetSlot struct {
	Time      string
	Remaining int
}

// ErrInterceptTimeout is returned when no matching background response
// arrived within the interception bound.
var ErrInterceptTimeout = errors.New("no tee sheet response within timeout")
