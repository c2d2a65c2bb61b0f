package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/tee-scheduler/internal/booking"
	"github.com/example/tee-scheduler/internal/driver"
)

// attemptAcquisition walks the ranked candidates in order, attempting each
// one at most once. A conflict (another party got there first) is expected
// under contention: dismiss the dialog and move on. The first candidate that
// completes confirmation wins; if the list is exhausted, the last recorded
// failure is surfaced.
func attemptAcquisition(ctx context.Context, view driver.View, slots []booking.Slot, selectTimeout, confirmTimeout time.Duration) (booking.Slot, string, error) {
	var lastErr error
	conflicts := 0

	for _, slot := range slots {
		outcome, err := view.SelectSlot(ctx, slot, selectTimeout)
		if err != nil {
			lastErr = fmt.Errorf("select %s: %w", slot.Time, err)
			log.Warn().Err(err).Str("slot", slot.Time).Msg("engine: slot selection failed")
			continue
		}

		switch outcome {
		case driver.SelectConflict:
			conflicts++
			lastErr = fmt.Errorf("%s: %w", slot.Time, booking.ErrConflict)
			log.Info().Str("slot", slot.Time).Msg("engine: slot conflicted, trying next candidate")
			if err := view.DismissConflict(ctx); err != nil {
				log.Warn().Err(err).Str("slot", slot.Time).Msg("engine: could not dismiss conflict dialog")
			}

		case driver.SelectTimeout:
			lastErr = fmt.Errorf("%s: no conflict or form within %s: %w", slot.Time, selectTimeout, booking.ErrAcquisition)
			log.Warn().Str("slot", slot.Time).Msg("engine: selection outcome timed out")

		case driver.SelectFormReached:
			conf, err := view.Confirm(ctx, confirmTimeout)
			if err != nil {
				lastErr = fmt.Errorf("confirm %s: %w", slot.Time, err)
				log.Warn().Err(err).Str("slot", slot.Time).Msg("engine: confirmation sequence failed")
				continue
			}
			if !conf.Confirmed {
				lastErr = fmt.Errorf("%s: no confirmation within %s: %w", slot.Time, confirmTimeout, booking.ErrAcquisition)
				log.Warn().Str("slot", slot.Time).Msg("engine: confirmation signal never arrived")
				continue
			}
			log.Info().Str("slot", slot.Time).Str("confirmation", conf.ConfirmationID).Int("conflicts", conflicts).Msg("engine: slot booked")
			return slot, conf.ConfirmationID, nil
		}
	}

	if lastErr == nil {
		lastErr = booking.ErrNoAvailability
	}
	return booking.Slot{}, "", lastErr
}
