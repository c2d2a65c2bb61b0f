package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tee-scheduler/internal/booking"
)

func TestTodayOverride(t *testing.T) {
	override := time.Date(2025, time.June, 10, 18, 30, 0, 0, time.UTC)
	got := Today(override, "America/New_York")
	assert.Equal(t, booking.Date(2025, time.June, 10), got)
}

func TestTodayUsesReferenceZone(t *testing.T) {
	got := Today(time.Time{}, "America/New_York")
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	want := booking.DateOf(time.Now().In(loc))
	assert.Equal(t, want, got)
}

func TestInstantAtHonorsZoneOffset(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// June: EDT, UTC-4. 07:00 local is 11:00 UTC.
	now := time.Date(2025, time.June, 10, 2, 0, 0, 0, time.UTC)
	got := instantAt(now, 7, 0, ny)
	assert.Equal(t, time.Date(2025, time.June, 9, 11, 0, 0, 0, time.UTC), got.UTC())

	// January: EST, UTC-5. 07:00 local is 12:00 UTC.
	now = time.Date(2025, time.January, 10, 15, 0, 0, 0, time.UTC)
	got = instantAt(now, 7, 0, ny)
	assert.Equal(t, time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC), got.UTC())
}

func TestInstantAtUsesZoneCalendarDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC on the 10th is already the 11th in Tokyo; the target date
	// must be the zone's date, not UTC's.
	now := time.Date(2025, time.June, 10, 20, 0, 0, 0, time.UTC)
	got := instantAt(now, 6, 30, tokyo)
	assert.Equal(t, time.Date(2025, time.June, 11, 6, 30, 0, 0, tokyo), got)
}

func TestWaitUntilPastInstantReturnsImmediately(t *testing.T) {
	// One minute ago in UTC: already past, must not block.
	past := time.Now().UTC().Add(-time.Minute)
	if past.Day() != time.Now().UTC().Day() {
		t.Skip("one minute ago was yesterday")
	}

	start := time.Now()
	err := WaitUntil(context.Background(), past.Hour(), past.Minute(), "UTC")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestWaitUntilRespectsContext(t *testing.T) {
	future := time.Now().UTC().Add(5 * time.Minute)
	if future.Day() != time.Now().UTC().Day() {
		t.Skip("target would roll over midnight")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := WaitUntil(ctx, future.Hour(), future.Minute(), "UTC")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitUntilRejectsInvalidTime(t *testing.T) {
	assert.Error(t, WaitUntil(context.Background(), 24, 0, "UTC"))
	assert.Error(t, WaitUntil(context.Background(), 7, 60, "UTC"))
}
