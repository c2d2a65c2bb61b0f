package booking

import (
	"sort"
	"time"
)

// NearHorizonDays is the length of the rolling window (in days beyond today)
// inside which tee times are already released and can be polled for
// cancellations.
const NearHorizonDays = 3

// SelectEligible returns the pending requests actionable today: requests for
// the far-horizon release date (today + horizonDays) and requests already
// inside the near-horizon window [today, today+3d].
//
// The result is sorted by play date descending: the far-horizon request has a
// hard release-time deadline and the most competition, so it must run first
// while the session is freshest. Ties keep queue order.
func SelectEligible(today time.Time, reqs []Request, horizonDays int) []Request {
	nearEnd := today.AddDate(0, 0, NearHorizonDays)
	farDate := today.AddDate(0, 0, horizonDays)

	var out []Request
	for _, r := range reqs {
		if r.Status != StatusPending {
			continue
		}
		if SameDate(r.PlayDate, farDate) {
			out = append(out, r)
			continue
		}
		if !r.PlayDate.Before(today) && !r.PlayDate.After(nearEnd) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayDate.After(out[j].PlayDate)
	})
	return out
}
