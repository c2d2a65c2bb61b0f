package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/tee-scheduler/internal/booking"
	"github.com/example/tee-scheduler/internal/clock"
	"github.com/example/tee-scheduler/internal/driver"
)

// RequestStore is the queue the runner reads from and writes terminal
// outcomes back to. Outcomes are recorded once, at the end of the run.
type RequestStore interface {
	Pending(ctx context.Context) ([]booking.Request, error)
	RecordOutcomes(ctx context.Context, reqs []booking.Request) error
}

type Options struct {
	Timezone    string
	HorizonDays int

	ReleaseHour   int
	ReleaseMinute int

	PartySize int

	InterceptTimeout time.Duration
	SelectTimeout    time.Duration
	ConfirmTimeout   time.Duration
}

// Runner drives one acquisition run: authenticate once, process eligible
// requests strictly in order over the shared session, persist outcomes.
type Runner struct {
	Auth  driver.Authenticator
	Creds driver.Credentials
	Store RequestStore
	Diag  driver.Diagnostics
	Opts  Options

	// Wait and Now are injectable for tests.
	Wait func(ctx context.Context, hour, minute int, tz string) error
	Now  func() time.Time
}

type Summary struct {
	Processed []booking.Request
	Successes int
}

// Run processes all requests eligible for today. Every eligible request ends
// the run with a terminal status; a failure inside one request never aborts
// the rest.
func (r *Runner) Run(ctx context.Context, today time.Time) (Summary, error) {
	pending, err := r.Store.Pending(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load pending requests: %w", err)
	}
	eligible := booking.SelectEligible(today, pending, r.Opts.HorizonDays)
	log.Info().Time("today", today).Int("pending", len(pending)).Int("eligible", len(eligible)).Msg("engine: run starting")
	if len(eligible) == 0 {
		return Summary{}, nil
	}

	sess, err := r.Auth.Authenticate(ctx, r.Creds)
	if err != nil {
		return Summary{}, fmt.Errorf("authenticate: %w", err)
	}
	defer func() {
		if err := sess.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("engine: session close failed")
		}
	}()

	farDate := today.AddDate(0, 0, r.Opts.HorizonDays)
	var sum Summary
	for i := range eligible {
		req := &eligible[i]

		// Only the first (highest-priority) request races the release
		// instant; near-horizon requests are already inside their window.
		if i == 0 && booking.SameDate(req.PlayDate, farDate) {
			if err := r.wait(ctx); err != nil {
				return sum, fmt.Errorf("wait for release: %w", err)
			}
		}

		r.processOne(ctx, sess, req, farDate)
		if req.Status == booking.StatusSuccess {
			sum.Successes++
		}
	}
	sum.Processed = eligible

	if err := r.Store.RecordOutcomes(ctx, eligible); err != nil {
		return sum, fmt.Errorf("record outcomes: %w", err)
	}
	log.Info().Int("processed", len(eligible)).Int("successes", sum.Successes).Msg("engine: run finished")
	return sum, nil
}

// processOne is the per-request error boundary. Whatever happens inside —
// domain failure, collaborator error, panic — the request leaves with a
// terminal status and a diagnostic artifact, and the run moves on.
func (r *Runner) processOne(ctx context.Context, sess driver.Session, req *booking.Request, farDate time.Time) {
	var view driver.View
	defer func() {
		if p := recover(); p != nil {
			req.Resolve(booking.StatusError, r.now(), fmt.Sprintf("panic: %v", p))
			log.Error().Int64("request", req.ID).Interface("panic", p).Msg("engine: request processing panicked")
		}
		if r.Diag != nil {
			if view == nil {
				// A near-horizon navigation failure leaves us without a
				// view; capture whatever the session is looking at.
				if v, err := sess.CurrentView(ctx); err == nil {
					view = v
				}
			}
			r.Diag.Capture(ctx, view, fmt.Sprintf("req-%d-%s", req.ID, req.Status))
		}
	}()

	log.Info().Int64("request", req.ID).Time("playDate", req.PlayDate).Str("window", req.Window.String()).Msg("engine: processing request")

	far := booking.SameDate(req.PlayDate, farDate)
	poller := &Poller{
		Session:          sess,
		Request:          *req,
		PartySize:        r.Opts.PartySize,
		InterceptTimeout: r.Opts.InterceptTimeout,
	}
	pol := NearHorizonPolicy(nil)
	if far {
		// The near-horizon poller navigates itself each cycle; the far
		// poller works on one view and needs it established first.
		v, err := sess.Navigate(ctx, req.PlayDate)
		if err != nil {
			r.fail(req, fmt.Errorf("%w: navigate: %v", booking.ErrSelectionFailed, err))
			return
		}
		view = v
		poller.View = v
		pol = FarHorizonPolicy()
	}

	slots, v, err := poller.Discover(ctx, pol)
	if v != nil {
		view = v
	}
	if err != nil {
		r.fail(req, err)
		return
	}
	if len(slots) == 0 {
		r.fail(req, booking.ErrNoAvailability)
		return
	}

	slot, confirmation, err := attemptAcquisition(ctx, view, slots, r.Opts.SelectTimeout, r.Opts.ConfirmTimeout)
	if err != nil {
		r.fail(req, err)
		return
	}

	req.BookedTime = slot.Time
	req.ConfirmationID = confirmation
	req.Resolve(booking.StatusSuccess, r.now(), "")
	log.Info().Int64("request", req.ID).Str("slot", slot.Time).Str("confirmation", confirmation).Msg("engine: request booked")
}

func (r *Runner) fail(req *booking.Request, err error) {
	status := booking.Terminal(err)
	req.Resolve(status, r.now(), err.Error())
	log.Warn().Int64("request", req.ID).Str("status", string(status)).Err(err).Msg("engine: request not booked")
}

func (r *Runner) wait(ctx context.Context) error {
	fn := r.Wait
	if fn == nil {
		fn = clock.WaitUntil
	}
	return fn(ctx, r.Opts.ReleaseHour, r.Opts.ReleaseMinute, r.Opts.Timezone)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}
