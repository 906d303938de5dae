package slot

import (
	"fmt"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(base time.Time, hh, mm int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), hh, mm, 0, 0, base.Location())
}

func sources(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Source
	}
	return out
}

func TestComputeKeepsConfiguredOrder(t *testing.T) {
	date := day(2026, 10, 5)
	now := day(2026, 9, 1)

	specs := []string{"09:00-10:00", "10:00-11:00"}
	got := Compute(specs, nil, date, now)

	if len(got) != 2 {
		t.Fatalf("expected 2 slots, got %d: %v", len(got), got)
	}
	if got[0].Source != "09:00-10:00" || got[1].Source != "10:00-11:00" {
		t.Errorf("unexpected order or text: %v", sources(got))
	}
}

func TestComputeExcludesBookedTimes(t *testing.T) {
	date := day(2026, 10, 5)
	now := day(2026, 9, 1)

	specs := []string{"09:00-10:00", "10:00-11:00"}
	booked := []time.Time{at(date, 10, 0)}

	got := Compute(specs, booked, date, now)
	if len(got) != 1 || got[0].Source != "09:00-10:00" {
		t.Fatalf("expected only 09:00-10:00, got %v", sources(got))
	}
}

func TestComputeSameDayCutoff(t *testing.T) {
	date := day(2026, 10, 5)
	now := at(date, 9, 30)

	specs := []string{"09:00-10:00", "10:00-11:00"}
	got := Compute(specs, nil, date, now)

	if len(got) != 1 || got[0].Start != "10:00" {
		t.Fatalf("expected only the 10:00 slot after 09:30, got %v", sources(got))
	}
}

func TestComputeCutoffIsStrict(t *testing.T) {
	date := day(2026, 10, 5)
	now := at(date, 10, 0)

	got := Compute([]string{"10:00-11:00"}, nil, date, now)
	if len(got) != 0 {
		t.Fatalf("slot starting exactly at now must be excluded, got %v", sources(got))
	}
}

func TestComputeAllPastReturnsEmpty(t *testing.T) {
	date := day(2026, 10, 5)
	now := at(date, 18, 0)

	got := Compute([]string{"09:00-10:00", "10:00-11:00"}, nil, date, now)
	if len(got) != 0 {
		t.Fatalf("expected empty result for all-past slots, got %v", sources(got))
	}
}

func TestComputeDefaultGrid(t *testing.T) {
	date := day(2026, 10, 5)
	now := day(2026, 9, 1)

	got := Compute(nil, nil, date, now)
	if len(got) != 9 {
		t.Fatalf("expected 9 default slots, got %d: %v", len(got), sources(got))
	}
	for i, s := range got {
		want := fmt.Sprintf("%02d:00", 8+i)
		if s.Start != want {
			t.Errorf("slot %d start = %q, want %q", i, s.Start, want)
		}
	}
}

func TestComputeDefaultGridWhenNothingParses(t *testing.T) {
	date := day(2026, 10, 5)
	now := day(2026, 9, 1)

	got := Compute([]string{"morning", "???"}, nil, date, now)
	if len(got) != 9 {
		t.Fatalf("unparsable specs should fall back to the grid, got %d slots", len(got))
	}
}

func TestComputeDefaultGridRespectsBookedAndCutoff(t *testing.T) {
	date := day(2026, 10, 5)
	now := at(date, 11, 30)
	booked := []time.Time{at(date, 13, 0)}

	got := Compute(nil, booked, date, now)

	// 08:00..11:00 are past, 13:00 is booked: 12, 14, 15, 16 remain.
	want := []string{"12:00", "14:00", "15:00", "16:00"}
	if len(got) != len(want) {
		t.Fatalf("expected %d slots, got %v", len(want), sources(got))
	}
	for i, s := range got {
		if s.Start != want[i] {
			t.Errorf("slot %d = %q, want %q", i, s.Start, want[i])
		}
	}
}

func TestComputeDeduplicatesByCanonicalTime(t *testing.T) {
	date := day(2026, 10, 5)
	now := day(2026, 9, 1)

	// Same start time in three different formats; first-seen display
	// text wins.
	specs := []string{"09:00-10:00", "9:00 AM", "09:00:00–10:00"}
	got := Compute(specs, nil, date, now)

	if len(got) != 1 {
		t.Fatalf("expected 1 slot after de-dup, got %v", sources(got))
	}
	if got[0].Source != "09:00-10:00" {
		t.Errorf("expected first-seen display text kept, got %q", got[0].Source)
	}
}

func TestComputeSkipsMalformedTokensOnly(t *testing.T) {
	date := day(2026, 10, 5)
	now := day(2026, 9, 1)

	specs := []string{"garbage", "09:00-10:00; broken", "10:00-11:00"}
	got := Compute(specs, nil, date, now)

	if len(got) != 2 {
		t.Fatalf("expected the 2 valid slots to survive, got %v", sources(got))
	}
}

func TestComputeMultiSlotSpecString(t *testing.T) {
	date := day(2026, 10, 5)
	now := day(2026, 9, 1)

	got := Compute([]string{"09:00-10:00, 10:00-11:00; 11:00-12:00"}, nil, date, now)
	if len(got) != 3 {
		t.Fatalf("expected 3 slots from one joined spec, got %v", sources(got))
	}
}
