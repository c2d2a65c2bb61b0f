package booking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TimeRange is a time-of-day window, inclusive at both ends. Start and End
// are 24h "HH:MM" strings; comparisons convert to fractional hours so that
// "07:30" < "15:00" works without caring about dates.
type TimeRange struct {
	Start string
	End   string
}

func (r TimeRange) Validate() error {
	s, err := ClockHours(r.Start)
	if err != nil {
		return fmt.Errorf("window start: %w", err)
	}
	e, err := ClockHours(r.End)
	if err != nil {
		return fmt.Errorf("window end: %w", err)
	}
	if e < s {
		return fmt.Errorf("window end %s before start %s", r.End, r.Start)
	}
	return nil
}

// Contains reports whether the clock time falls inside the window.
func (r TimeRange) Contains(clock string) bool {
	t, err := ClockHours(clock)
	if err != nil {
		return false
	}
	s, err := ClockHours(r.Start)
	if err != nil {
		return false
	}
	e, err := ClockHours(r.End)
	if err != nil {
		return false
	}
	return t >= s && t <= e
}

func (r TimeRange) String() string {
	return r.Start + "-" + r.End
}

// ClockHours converts "HH:MM" to fractional hours, e.g. "14:30" -> 14.5.
func ClockHours(clock string) (float64, error) {
	h, m, err := splitClock(clock)
	if err != nil {
		return 0, err
	}
	return float64(h) + float64(m)/60, nil
}

// NormalizeClock accepts "HH:MM", "H:MM" and 12-hour forms like "3:30 PM"
// as rendered by the booking site, and returns 24h "HH:MM".
func NormalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)

	meridiem := ""
	for _, suffix := range []string{"AM", "PM", "A.M.", "P.M."} {
		if strings.HasSuffix(upper, suffix) {
			meridiem = string(suffix[0])
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break
		}
	}

	h, m, err := splitClock(s)
	if err != nil {
		return "", err
	}
	switch meridiem {
	case "P":
		if h < 12 {
			h += 12
		}
	case "A":
		if h == 12 {
			h = 0
		}
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func splitClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q (want HH:MM)", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	return hour, minute, nil
}

// Slot is a discovered candidate tee time. Handle is an opaque driver token
// valid only for the view the slot was discovered on; slots are never
// persisted.
type Slot struct {
	Time   string // normalized HH:MM
	Handle string
}

// SortSlotsLatestFirst orders candidates by time-of-day descending. Later
// tee times are historically less contested, so they are attempted first.
func SortSlotsLatestFirst(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, erra := ClockHours(slots[i].Time)
		b, errb := ClockHours(slots[j].Time)
		if erra != nil || errb != nil {
			return false
		}
		return a > b
	})
}
