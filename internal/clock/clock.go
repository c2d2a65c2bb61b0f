package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/tee-scheduler/internal/booking"
)

// Today returns the current calendar date in the reference timezone, or the
// override verbatim when one was supplied (e.g. via --today). The reference
// zone keeps "today" stable regardless of where the process runs.
func Today(override time.Time, tz string) time.Time {
	if !override.IsZero() {
		return booking.DateOf(override)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Err(err).Str("timezone", tz).Msg("clock: reference zone unavailable, using host zone")
		loc = time.Local
	}
	return booking.DateOf(time.Now().In(loc))
}

// instantAt computes the UTC instant of the wall-clock hour:minute on now's
// calendar date in loc, honoring loc's current UTC offset (DST included).
func instantAt(now time.Time, hour, minute int, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// WaitUntil suspends until the wall-clock hour:minute in the given IANA zone
// next occurs on the current calendar date there. If that instant has
// already passed it returns immediately; callers only invoke this when the
// release is still ahead, so there is no next-day rollover. A single timer
// does the waiting, no polling.
//
// If the zone cannot be resolved the same-local-day computation falls back
// to the host zone.
func WaitUntil(ctx context.Context, hour, minute int, tz string) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("clock: invalid release time %02d:%02d", hour, minute)
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Err(err).Str("timezone", tz).Msg("clock: zone lookup failed, falling back to host zone")
		loc = time.Local
	}

	target := instantAt(time.Now(), hour, minute, loc)
	wait := time.Until(target)
	if wait <= 0 {
		log.Debug().Time("target", target).Msg("clock: release instant already passed")
		return nil
	}

	log.Info().Time("target", target).Dur("wait", wait).Str("timezone", tz).Msg("clock: waiting for release instant")
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
