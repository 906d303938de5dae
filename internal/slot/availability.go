package slot

import (
	"fmt"
	"strconv"
	"time"
)

// Hourly fallback grid offered when a doctor has no usable configured
// slots: starts from 08:00 through 16:00 inclusive.
const (
	gridStartHour = 8
	gridEndHour   = 16
)

// Compute turns a doctor's configured slot specs into the ordered list
// of open slots for date.
//
// Each spec is split into tokens and normalized; tokens that fail to
// parse are dropped. Duplicate canonical start times keep the
// first-seen entry so the doctor's original display text survives.
// When nothing usable is configured the default hourly grid applies.
// Slots whose start time is already booked are removed, and when date
// is the same day as now, slots not strictly after now are removed.
func Compute(specs []string, booked []time.Time, date, now time.Time) []Slot {
	slots := normalizeAll(specs)
	if len(slots) == 0 {
		slots = defaultGrid()
	}

	bookedSet := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		bookedSet[t.Format("15:04")] = struct{}{}
	}

	cutoff := sameDate(date, now)

	open := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if _, taken := bookedSet[s.Start]; taken {
			continue
		}
		if cutoff && !startsAfter(s.Start, date, now) {
			continue
		}
		open = append(open, s)
	}
	return open
}

func normalizeAll(specs []string) []Slot {
	var out []Slot
	seen := make(map[string]struct{})

	for _, spec := range specs {
		for _, token := range Split(spec) {
			s, err := Normalize(token)
			if err != nil {
				continue
			}
			if _, dup := seen[s.Start]; dup {
				continue
			}
			seen[s.Start] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func defaultGrid() []Slot {
	out := make([]Slot, 0, gridEndHour-gridStartHour+1)
	for h := gridStartHour; h <= gridEndHour; h++ {
		out = append(out, Slot{
			Start:  fmt.Sprintf("%02d:00", h),
			Source: fmt.Sprintf("%02d:00-%02d:00", h, h+1),
		})
	}
	return out
}

func sameDate(date, now time.Time) bool {
	return date.Year() == now.Year() && date.YearDay() == now.YearDay()
}

// startsAfter reports whether the canonical "HH:MM" start, placed on
// date, is strictly after now.
func startsAfter(canonical string, date, now time.Time) bool {
	hh, _ := strconv.Atoi(canonical[:2])
	mm, _ := strconv.Atoi(canonical[3:])
	start := time.Date(date.Year(), date.Month(), date.Day(), hh, mm, 0, 0, now.Location())
	return start.After(now)
}
