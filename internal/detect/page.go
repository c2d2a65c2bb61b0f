// Package detect classifies the remote service's state from its two
// observable channels: the rendered view (primary) and the structured
// tee-sheet responses captured from background traffic (secondary).
package detect

import (
	"strings"
	"time"

	"github.com/example/tee-scheduler/internal/driver"
)

// PageState is the per-observation classification of the rendered view.
// Recomputed on every poll, never stored.
type PageState int

const (
	PageReady PageState = iota
	PageTooEarly
	PageNoResults
	PageLoading
)

func (s PageState) String() string {
	switch s {
	case PageReady:
		return "ready"
	case PageTooEarly:
		return "too-early"
	case PageNoResults:
		return "no-results"
	default:
		return "loading"
	}
}

var noResultsMessages = []string{
	"no results",
	"no tee times",
	"no times available",
	"nothing available",
}

// ClassifyPage assigns a state to the snapshot for the target date.
//
// The ordering is load-bearing: during a render the pre-release placeholder
// and the "no results" message can both be transiently present, so the
// too-early pattern must win over no-results, and no-results over the slot
// indicators.
func ClassifyPage(snap driver.Snapshot, target time.Time) PageState {
	text := strings.ToLower(snap.Text)

	if mentionsRelease(text, target) {
		return PageTooEarly
	}
	for _, msg := range noResultsMessages {
		if strings.Contains(text, msg) {
			return PageNoResults
		}
	}
	if snap.SlotIndicators > 0 {
		return PageReady
	}
	return PageLoading
}

// mentionsRelease matches the "becomes available on <date> at <time>"
// placeholder in the date renderings the site uses.
func mentionsRelease(lowerText string, target time.Time) bool {
	for _, layout := range []string{"January 2, 2006", "Jan 2, 2006", "01/02/2006", "1/2/2006"} {
		needle := "available on " + strings.ToLower(target.Format(layout))
		if strings.Contains(lowerText, needle) {
			return true
		}
	}
	return false
}
