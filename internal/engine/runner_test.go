package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tee-scheduler/internal/booking"
	"github.com/example/tee-scheduler/internal/driver"
)

func testOpts() Options {
	return Options{
		Timezone:         "America/New_York",
		HorizonDays:      21,
		ReleaseHour:      7,
		PartySize:        4,
		InterceptTimeout: time.Second,
		SelectTimeout:    time.Second,
		ConfirmTimeout:   time.Second,
	}
}

func newRunner(st RequestStore, auth driver.Authenticator) (*Runner, *int) {
	waits := 0
	r := &Runner{
		Auth:  auth,
		Store: st,
		Diag:  driver.NopDiagnostics{},
		Opts:  testOpts(),
		Wait: func(ctx context.Context, hour, minute int, tz string) error {
			waits++
			return nil
		},
		Now: func() time.Time { return time.Date(2025, time.June, 10, 11, 0, 0, 0, time.UTC) },
	}
	return r, &waits
}

func TestRunBooksFarHorizonRequest(t *testing.T) {
	today := booking.Date(2025, time.June, 10)
	view := &fakeView{
		snaps:    []driver.Snapshot{readySnap(2)},
		slotSets: [][]booking.Slot{{{Time: "14:40", Handle: "a"}, {Time: "08:10", Handle: "b"}}},
		outcomes: []driver.SelectOutcome{driver.SelectFormReached},
		confirm:  driver.ConfirmOutcome{Confirmed: true, ConfirmationID: "CONF-1"},
	}
	sess := &fakeSession{view: view}
	auth := &fakeAuth{sess: sess}
	st := &fakeStore{pending: []booking.Request{{
		ID:       1,
		Status:   booking.StatusPending,
		PlayDate: booking.Date(2025, time.July, 1), // today + 21
		Window:   booking.TimeRange{Start: "07:00", End: "15:00"},
	}}}

	r, waits := newRunner(st, auth)
	sum, err := r.Run(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, 1, *waits, "far-horizon request waits for the release instant")
	assert.Equal(t, 1, sum.Successes)
	require.Len(t, sum.Processed, 1)
	got := sum.Processed[0]
	assert.Equal(t, booking.StatusSuccess, got.Status)
	assert.Equal(t, "14:40", got.BookedTime, "latest slot preferred")
	assert.Equal(t, "CONF-1", got.ConfirmationID)
	require.NotNil(t, got.ProcessedAt)

	require.Len(t, st.recorded, 1)
	assert.Equal(t, booking.StatusSuccess, st.recorded[0].Status)
	assert.True(t, sess.closed)
}

func TestRunNearHorizonDoesNotWait(t *testing.T) {
	today := booking.Date(2025, time.June, 10)
	view := &fakeView{
		snaps:    []driver.Snapshot{readySnap(1)},
		slotSets: [][]booking.Slot{{{Time: "10:00", Handle: "a"}}},
		outcomes: []driver.SelectOutcome{driver.SelectFormReached},
		confirm:  driver.ConfirmOutcome{Confirmed: true, ConfirmationID: "CONF-2"},
	}
	sess := &fakeSession{
		view:  view,
		sheet: driver.TeeSheet{Slots: []driver.TeeSheetSlot{{Time: "10:00", Remaining: 4}}},
	}
	auth := &fakeAuth{sess: sess}
	st := &fakeStore{pending: []booking.Request{{
		ID:       2,
		Status:   booking.StatusPending,
		PlayDate: booking.Date(2025, time.June, 11),
		Window:   booking.TimeRange{Start: "07:00", End: "15:00"},
	}}}

	r, waits := newRunner(st, auth)
	sum, err := r.Run(context.Background(), today)
	require.NoError(t, err)
	assert.Zero(t, *waits, "near-horizon requests are already inside their window")
	assert.Equal(t, 1, sum.Successes)
	assert.GreaterOrEqual(t, sess.navigations, 1, "near-horizon poller navigates itself")
}

func TestRunContinuesPastFailingRequest(t *testing.T) {
	today := booking.Date(2025, time.June, 10)
	view := &fakeView{observeErr: errBoom}
	sess := &fakeSession{
		view:  view,
		sheet: driver.TeeSheet{Slots: []driver.TeeSheetSlot{{Time: "10:00", Remaining: 4}}},
	}
	auth := &fakeAuth{sess: sess}
	st := &fakeStore{pending: []booking.Request{
		{ID: 1, Status: booking.StatusPending, PlayDate: booking.Date(2025, time.June, 11), Window: booking.TimeRange{Start: "07:00", End: "15:00"}},
		{ID: 2, Status: booking.StatusPending, PlayDate: booking.Date(2025, time.June, 12), Window: booking.TimeRange{Start: "07:00", End: "15:00"}},
	}}

	r, _ := newRunner(st, auth)
	sum, err := r.Run(context.Background(), today)
	require.NoError(t, err, "a request failure never aborts the run")

	require.Len(t, sum.Processed, 2)
	for _, req := range sum.Processed {
		assert.Equal(t, booking.StatusError, req.Status, "collaborator errors are recorded as error, not failed")
		assert.Contains(t, req.FailureReason, "boom")
	}
	require.Len(t, st.recorded, 2)
}

func TestRunRecoversFromPanic(t *testing.T) {
	today := booking.Date(2025, time.June, 10)
	view := &fakeView{panicOnObserve: true}
	sess := &fakeSession{view: view}
	auth := &fakeAuth{sess: sess}
	st := &fakeStore{pending: []booking.Request{{
		ID:       1,
		Status:   booking.StatusPending,
		PlayDate: booking.Date(2025, time.June, 11),
		Window:   booking.TimeRange{Start: "07:00", End: "15:00"},
	}}}

	r, _ := newRunner(st, auth)
	sum, err := r.Run(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, sum.Processed, 1)
	assert.Equal(t, booking.StatusError, sum.Processed[0].Status)
	assert.Contains(t, sum.Processed[0].FailureReason, "panic")
}

func TestRunNoAvailabilityMarksFailed(t *testing.T) {
	today := booking.Date(2025, time.June, 10)
	view := &fakeView{
		snaps:    []driver.Snapshot{readySnap(1)},
		slotSets: [][]booking.Slot{nil},
	}
	sess := &fakeSession{view: view}
	auth := &fakeAuth{sess: sess}
	st := &fakeStore{pending: []booking.Request{{
		ID:       1,
		Status:   booking.StatusPending,
		PlayDate: booking.Date(2025, time.July, 1), // far horizon: empty ready is final
		Window:   booking.TimeRange{Start: "07:00", End: "15:00"},
	}}}

	r, _ := newRunner(st, auth)
	sum, err := r.Run(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, sum.Processed, 1)
	assert.Equal(t, booking.StatusFailed, sum.Processed[0].Status)
	assert.Equal(t, booking.ErrNoAvailability.Error(), sum.Processed[0].FailureReason)
}

func TestRunSkipsAuthWhenNothingEligible(t *testing.T) {
	today := booking.Date(2025, time.June, 10)
	auth := &fakeAuth{sess: &fakeSession{}}
	st := &fakeStore{pending: []booking.Request{{
		ID:       1,
		Status:   booking.StatusPending,
		PlayDate: booking.Date(2025, time.June, 20), // between windows
		Window:   booking.TimeRange{Start: "07:00", End: "15:00"},
	}}}

	r, waits := newRunner(st, auth)
	sum, err := r.Run(context.Background(), today)
	require.NoError(t, err)
	assert.Empty(t, sum.Processed)
	assert.Zero(t, auth.called)
	assert.Zero(t, *waits)
	assert.Empty(t, st.recorded)
}
