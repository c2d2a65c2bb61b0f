package detect

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/tee-scheduler/internal/booking"
	"github.com/example/tee-scheduler/internal/driver"
)

// Signal is the secondary-channel availability classification. It is
// advisory: it short-circuits futile polling but never replaces the rendered
// view as the final acquisition gate, because the structured data may be
// stale relative to the render.
type Signal int

const (
	SignalAvailable Signal = iota
	SignalAllBooked
	SignalNotReleased
	SignalTimeout
)

func (s Signal) String() string {
	switch s {
	case SignalAvailable:
		return "available"
	case SignalAllBooked:
		return "all-booked"
	case SignalNotReleased:
		return "not-released"
	default:
		return "timeout"
	}
}

// ClassifySlots reduces a captured tee sheet to a Signal for the requested
// window. A slot counts as available only at full remaining capacity for the
// party size: partially open slots (1..partySize-1 seats) are classified
// all-booked because the group requirement makes them not worth contending
// for.
func ClassifySlots(sheet driver.TeeSheet, window booking.TimeRange, partySize int) Signal {
	inWindow := 0
	for _, s := range sheet.Slots {
		clock, err := booking.NormalizeClock(s.Time)
		if err != nil {
			log.Debug().Str("time", s.Time).Msg("detect: unparseable slot time in tee sheet")
			continue
		}
		if !window.Contains(clock) {
			continue
		}
		inWindow++
		if s.Remaining >= partySize {
			return SignalAvailable
		}
	}
	if inWindow == 0 {
		return SignalNotReleased
	}
	return SignalAllBooked
}

// CaptureAvailability waits up to timeout for the background tee-sheet fetch
// for date and classifies it. Interception failures degrade to
// SignalTimeout rather than erroring: the secondary channel is best-effort.
func CaptureAvailability(ctx context.Context, sess driver.Session, date time.Time, window booking.TimeRange, partySize int, timeout time.Duration) Signal {
	sheet, err := sess.InterceptTeeSheet(ctx, date, timeout)
	if err != nil {
		if !errors.Is(err, driver.ErrInterceptTimeout) {
			log.Warn().Err(err).Msg("detect: tee sheet interception failed")
		}
		return SignalTimeout
	}
	sig := ClassifySlots(sheet, window, partySize)
	log.Debug().Str("signal", sig.String()).Int("slots", len(sheet.Slots)).Msg("detect: tee sheet classified")
	return sig
}
