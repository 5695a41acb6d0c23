package availability

import (
	"testing"
	"time"
)

func TestAvailableSlots_Basic(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(10 * time.Hour)

	busy := []Interval{
		{Start: day.Add(9*time.Hour + 15*time.Minute), End: day.Add(9*time.Hour + 45*time.Minute)},
	}

	slots := AvailableSlots(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, busy, day)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Format(time.RFC3339))
	}
	if !slots[1].Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected second slot 09:45, got %s", slots[1].Format(time.RFC3339))
	}
}

func TestAvailableSlots_SkipsPast(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(10 * time.Hour)

	now := day.Add(9*time.Hour + 31*time.Minute)
	slots := AvailableSlots(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, nil, now)
	// 09:00, 09:15, 09:30 start in the past. 09:45 remains.
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected slot 09:45, got %s", slots[0].Format(time.RFC3339))
	}
}

func TestAvailableSlots_DegenerateInputs(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if got := AvailableSlots(day, day, 15*time.Minute, 15*time.Minute, nil, day); got != nil {
		t.Fatalf("empty window should yield no slots, got %v", got)
	}
	if got := AvailableSlots(day, day.Add(time.Hour), 0, 15*time.Minute, nil, day); got != nil {
		t.Fatalf("zero duration should yield no slots, got %v", got)
	}
	if got := AvailableSlots(day, day.Add(10*time.Minute), 15*time.Minute, 15*time.Minute, nil, day); got != nil {
		t.Fatalf("window shorter than duration should yield no slots, got %v", got)
	}
}

func TestWindowsForDay(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) // Tuesday
	windows := []DayWindow{
		{IsWorking: true, StartMinute: 540, EndMinute: 720},  // 09:00-12:00
		{IsWorking: true, StartMinute: 780, EndMinute: 1080}, // 13:00-18:00
		{IsWorking: false, StartMinute: 0, EndMinute: 0},
		{IsWorking: true, StartMinute: 600, EndMinute: 600}, // degenerate
	}

	out := WindowsForDay(day, time.UTC, windows)
	if len(out) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(out))
	}
	if !out[0].Start.Equal(day.Add(9 * time.Hour)) || !out[0].End.Equal(day.Add(12 * time.Hour)) {
		t.Fatalf("unexpected first interval: %+v", out[0])
	}
	if !out[1].Start.Equal(day.Add(13 * time.Hour)) || !out[1].End.Equal(day.Add(18 * time.Hour)) {
		t.Fatalf("unexpected second interval: %+v", out[1])
	}
}
