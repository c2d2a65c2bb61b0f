package engine

import (
	"context"
	"errors"
	"time"

	"github.com/example/tee-scheduler/internal/booking"
	"github.com/example/tee-scheduler/internal/driver"
)

// fakeView scripts a sequence of observations; the last snapshot and slot
// set repeat once the script runs out.
type fakeView struct {
	snaps   []driver.Snapshot
	snapIdx int

	slotSets [][]booking.Slot
	slotIdx  int

	outcomes []driver.SelectOutcome
	outIdx   int

	confirm    driver.ConfirmOutcome
	confirmErr error

	observeErr     error
	panicOnObserve bool

	reloads   int
	selected  []string
	dismissed int
	confirms  int
}

func (v *fakeView) Observe(ctx context.Context) (driver.Snapshot, error) {
	if v.panicOnObserve {
		panic("observe blew up")
	}
	if v.observeErr != nil {
		return driver.Snapshot{}, v.observeErr
	}
	if len(v.snaps) == 0 {
		return driver.Snapshot{}, nil
	}
	s := v.snaps[v.snapIdx]
	if v.snapIdx < len(v.snaps)-1 {
		v.snapIdx++
	}
	return s, nil
}

func (v *fakeView) Reload(ctx context.Context) error {
	v.reloads++
	return nil
}

func (v *fakeView) DiscoverSlots(ctx context.Context) ([]booking.Slot, error) {
	if len(v.slotSets) == 0 {
		return nil, nil
	}
	s := v.slotSets[v.slotIdx]
	if v.slotIdx < len(v.slotSets)-1 {
		v.slotIdx++
	}
	return s, nil
}

func (v *fakeView) SelectSlot(ctx context.Context, slot booking.Slot, timeout time.Duration) (driver.SelectOutcome, error) {
	v.selected = append(v.selected, slot.Time)
	if v.outIdx >= len(v.outcomes) {
		return driver.SelectTimeout, nil
	}
	o := v.outcomes[v.outIdx]
	v.outIdx++
	return o, nil
}

func (v *fakeView) DismissConflict(ctx context.Context) error {
	v.dismissed++
	return nil
}

func (v *fakeView) Confirm(ctx context.Context, timeout time.Duration) (driver.ConfirmOutcome, error) {
	v.confirms++
	return v.confirm, v.confirmErr
}

func (v *fakeView) CaptureDiagnostic(ctx context.Context) ([]byte, error) {
	return []byte("artifact"), nil
}

type fakeSession struct {
	view        *fakeView
	navErr      error
	navigations int

	sheet    driver.TeeSheet
	sheetErr error

	closed bool
}

func (s *fakeSession) Navigate(ctx context.Context, date time.Time) (driver.View, error) {
	s.navigations++
	if s.navErr != nil {
		return nil, s.navErr
	}
	return s.view, nil
}

func (s *fakeSession) InterceptTeeSheet(ctx context.Context, date time.Time, timeout time.Duration) (driver.TeeSheet, error) {
	if s.sheetErr != nil {
		return driver.TeeSheet{}, s.sheetErr
	}
	return s.sheet, nil
}

func (s *fakeSession) CurrentView(ctx context.Context) (driver.View, error) {
	if s.view == nil {
		return nil, errBoom
	}
	return s.view, nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type fakeAuth struct {
	sess   *fakeSession
	err    error
	called int
}

func (a *fakeAuth) Authenticate(ctx context.Context, creds driver.Credentials) (driver.Session, error) {
	a.called++
	if a.err != nil {
		return nil, a.err
	}
	return a.sess, nil
}

type fakeStore struct {
	pending    []booking.Request
	pendingErr error
	recorded   []booking.Request
}

func (s *fakeStore) Pending(ctx context.Context) ([]booking.Request, error) {
	return s.pending, s.pendingErr
}

func (s *fakeStore) RecordOutcomes(ctx context.Context, reqs []booking.Request) error {
	s.recorded = append([]booking.Request(nil), reqs...)
	return nil
}

// sleepRecorder collects requested delays without actually sleeping.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

var errBoom = errors.New("boom")

func readySnap(n int) driver.Snapshot {
	return driver.Snapshot{Text: "book now", SlotIndicators: n}
}
