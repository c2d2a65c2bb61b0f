// Package engine orchestrates the acquisition run: horizon-dependent
// discovery polling, the per-candidate acquisition protocol, and the
// per-request error boundary.
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/example/tee-scheduler/internal/booking"
	"github.com/example/tee-scheduler/internal/detect"
	"github.com/example/tee-scheduler/internal/driver"
)

// Policy parameterizes one horizon's polling strategy over the shared
// primitives (observe, discover, refresh). Two instances exist: far horizon
// and near horizon.
type Policy struct {
	MaxAttempts   int
	RecheckDelay  time.Duration // no-results/loading: re-observe without refreshing
	TooEarlyDelay time.Duration

	// EmptyBackoff returns the delay before the next full cycle after the
	// nth ready-but-empty observation. Nil means an empty ready view is a
	// final result (far horizon: released sheets render fully or not at
	// all, so retrying an empty one is wasted effort).
	EmptyBackoff func(n int) time.Duration

	// FullNavigation makes every cycle perform a fresh navigation and
	// capture the secondary signal. Near horizon only: slots reappear as
	// other parties cancel, and frame state carries nothing worth keeping
	// between cycles.
	FullNavigation bool

	// AllBookedAfter stops the policy early once the secondary channel
	// reports all-booked past this many attempts. Zero disables the check.
	AllBookedAfter int
}

// nearEmptySteps front-loads the cadence right after release, then settles
// into jittered ~30s polling for the long cancellation watch.
var nearEmptySteps = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	10 * time.Second,
	15 * time.Second,
	30 * time.Second,
}

const nearJitterMax = 90 * time.Second

// FarHorizonPolicy polls the just-released sheet with cheap frame reloads.
func FarHorizonPolicy() Policy {
	return Policy{
		MaxAttempts:   30,
		RecheckDelay:  2 * time.Second,
		TooEarlyDelay: 3 * time.Second,
	}
}

// NearHorizonPolicy re-navigates every cycle and watches for cancellations.
// The jitter keeps our polling from synchronizing with competing bots.
func NearHorizonPolicy(jitter func(max time.Duration) time.Duration) Policy {
	if jitter == nil {
		jitter = uniformJitter
	}
	return Policy{
		MaxAttempts:    30,
		RecheckDelay:   2 * time.Second,
		TooEarlyDelay:  2 * time.Second,
		FullNavigation: true,
		AllBookedAfter: 10,
		EmptyBackoff: func(n int) time.Duration {
			if n <= len(nearEmptySteps) {
				return nearEmptySteps[n-1]
			}
			return 30*time.Second + jitter(nearJitterMax)
		},
	}
}

func uniformJitter(max time.Duration) time.Duration {
	return time.Duration(rand.Int63n(int64(max)))
}

// Poller runs a Policy over one request's view. The view handle may change
// between cycles under full-navigation policies.
type Poller struct {
	Session driver.Session
	View    driver.View
	Request booking.Request

	PartySize        int
	InterceptTimeout time.Duration

	// Sleep is injectable for tests; nil means a context-aware timer sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Discover polls until candidates inside the requested window are found, the
// policy gives up, or a collaborator fails. Returned slots are sorted by
// time descending (later tee times are less contested). The returned view is
// whatever handle discovery ended on.
func (p *Poller) Discover(ctx context.Context, pol Policy) ([]booking.Slot, driver.View, error) {
	refresh := pol.FullNavigation // far horizon starts on an already-navigated view
	emptyReadies := 0

	for attempt := 1; attempt <= pol.MaxAttempts; attempt++ {
		if refresh {
			sig, err := p.refresh(ctx, pol)
			if err != nil {
				return nil, p.View, err
			}
			if pol.AllBookedAfter > 0 && sig == detect.SignalAllBooked && attempt > pol.AllBookedAfter {
				log.Info().Int("attempt", attempt).Msg("engine: tee sheet confirmed exhausted, stopping early")
				return nil, p.View, nil
			}
		}

		snap, err := p.View.Observe(ctx)
		if err != nil {
			return nil, p.View, fmt.Errorf("observe view: %w", err)
		}
		state := detect.ClassifyPage(snap, p.Request.PlayDate)
		log.Debug().Int("attempt", attempt).Str("state", state.String()).Msg("engine: poll")

		switch state {
		case detect.PageReady:
			slots, err := p.discoverInWindow(ctx)
			if err != nil {
				return nil, p.View, err
			}
			if len(slots) > 0 {
				booking.SortSlotsLatestFirst(slots)
				log.Info().Int("attempt", attempt).Int("candidates", len(slots)).Msg("engine: candidates discovered")
				return slots, p.View, nil
			}
			if pol.EmptyBackoff == nil {
				log.Info().Int("attempt", attempt).Msg("engine: sheet rendered empty, not retrying")
				return nil, p.View, nil
			}
			emptyReadies++
			if err := p.sleep(ctx, pol.EmptyBackoff(emptyReadies)); err != nil {
				return nil, p.View, err
			}
			refresh = true
		case detect.PageTooEarly:
			if err := p.sleep(ctx, pol.TooEarlyDelay); err != nil {
				return nil, p.View, err
			}
			refresh = true
		default: // no-results or still loading: the view may just be hydrating
			if err := p.sleep(ctx, pol.RecheckDelay); err != nil {
				return nil, p.View, err
			}
			refresh = false
		}
	}

	log.Info().Int("attempts", pol.MaxAttempts).Msg("engine: attempt budget exhausted without candidates")
	return nil, p.View, nil
}

// refresh advances the view for the next check. Far horizon reloads the
// frame in place. Near horizon runs a fresh navigation and the secondary
// channel capture concurrently, joined here; the capture is bounded by
// InterceptTimeout so the join cannot hang.
func (p *Poller) refresh(ctx context.Context, pol Policy) (detect.Signal, error) {
	if !pol.FullNavigation {
		if err := p.View.Reload(ctx); err != nil {
			return detect.SignalTimeout, fmt.Errorf("reload view: %w", err)
		}
		return detect.SignalTimeout, nil
	}

	var sig detect.Signal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sig = detect.CaptureAvailability(gctx, p.Session, p.Request.PlayDate, p.Request.Window, p.PartySize, p.InterceptTimeout)
		return nil
	})
	g.Go(func() error {
		view, err := p.Session.Navigate(gctx, p.Request.PlayDate)
		if err != nil {
			return fmt.Errorf("%w: navigate: %v", booking.ErrSelectionFailed, err)
		}
		p.View = view
		return nil
	})
	if err := g.Wait(); err != nil {
		return detect.SignalTimeout, err
	}
	return sig, nil
}

func (p *Poller) discoverInWindow(ctx context.Context) ([]booking.Slot, error) {
	raw, err := p.View.DiscoverSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover slots: %w", err)
	}
	var out []booking.Slot
	for _, s := range raw {
		clock, err := booking.NormalizeClock(s.Time)
		if err != nil {
			log.Debug().Str("time", s.Time).Msg("engine: skipping slot with unparseable time")
			continue
		}
		if !p.Request.Window.Contains(clock) {
			continue
		}
		out = append(out, booking.Slot{Time: clock, Handle: s.Handle})
	}
	return out, nil
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
