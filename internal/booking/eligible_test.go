package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectEligible(t *testing.T) {
	today := Date(2025, time.June, 10)

	reqs := []Request{
		{ID: 1, Status: StatusPending, PlayDate: Date(2025, time.June, 11)},  // +1: near window
		{ID: 2, Status: StatusPending, PlayDate: Date(2025, time.June, 13)},  // +3: near window edge
		{ID: 3, Status: StatusPending, PlayDate: Date(2025, time.June, 15)},  // +5: between windows
		{ID: 4, Status: StatusPending, PlayDate: Date(2025, time.July, 10)},  // +30: release date
		{ID: 5, Status: StatusSuccess, PlayDate: Date(2025, time.June, 11)},  // already processed
	}

	got := SelectEligible(today, reqs, 30)

	var dates []string
	for _, r := range got {
		dates = append(dates, r.PlayDate.Format("2006-01-02"))
	}
	require.Equal(t, []string{"2025-07-10", "2025-06-13", "2025-06-11"}, dates)
}

func TestSelectEligibleIncludesToday(t *testing.T) {
	today := Date(2025, time.June, 10)
	reqs := []Request{
		{ID: 1, Status: StatusPending, PlayDate: today},
		{ID: 2, Status: StatusPending, PlayDate: Date(2025, time.June, 9)}, // past, untouched
	}
	got := SelectEligible(today, reqs, 21)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestSelectEligibleStableOnTies(t *testing.T) {
	today := Date(2025, time.June, 10)
	date := Date(2025, time.June, 12)
	reqs := []Request{
		{ID: 7, Status: StatusPending, PlayDate: date},
		{ID: 8, Status: StatusPending, PlayDate: date},
		{ID: 9, Status: StatusPending, PlayDate: date},
	}
	got := SelectEligible(today, reqs, 21)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{7, 8, 9}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestSelectEligibleIdempotent(t *testing.T) {
	today := Date(2025, time.June, 10)
	reqs := []Request{
		{ID: 1, Status: StatusPending, PlayDate: Date(2025, time.June, 11)},
		{ID: 2, Status: StatusPending, PlayDate: Date(2025, time.July, 1)}, // +21
	}
	first := SelectEligible(today, reqs, 21)
	second := SelectEligible(today, reqs, 21)
	assert.Equal(t, first, second)
}

func TestResolveTransitionsOnce(t *testing.T) {
	now := time.Now()
	r := Request{Status: StatusPending}

	r.Resolve(StatusFailed, now, "no availability")
	require.Equal(t, StatusFailed, r.Status)
	require.Equal(t, "no availability", r.FailureReason)

	// A second terminal transition must not overwrite the first.
	r.Resolve(StatusSuccess, now.Add(time.Minute), "")
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "no availability", r.FailureReason)
	assert.Equal(t, now, *r.ProcessedAt)
}
