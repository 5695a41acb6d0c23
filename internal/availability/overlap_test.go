package availability

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func TestOverlaps_HalfOpen(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"disjoint before", at(9, 0), at(10, 0), at(11, 0), at(12, 0), false},
		{"back to back, a ends when b starts", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"back to back, a starts when b ends", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"partial overlap", at(10, 30), at(11, 30), at(10, 0), at(11, 0), true},
		{"contained", at(10, 15), at(10, 45), at(10, 0), at(11, 0), true},
		{"containing", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"zero duration candidate at busy start", at(10, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"zero duration candidate inside busy", at(10, 30), at(10, 30), at(10, 0), at(11, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConflictsAny(t *testing.T) {
	busy := []Interval{
		{Start: at(10, 0), End: at(11, 0)},
		{Start: at(14, 0), End: at(15, 0)},
	}

	if ConflictsAny(at(11, 0), at(12, 0), busy) {
		t.Fatal("slot starting exactly at a busy end must not conflict")
	}
	if ConflictsAny(at(9, 0), at(10, 0), busy) {
		t.Fatal("slot ending exactly at a busy start must not conflict")
	}
	if !ConflictsAny(at(10, 30), at(11, 30), busy) {
		t.Fatal("overlapping slot must conflict")
	}
	if ConflictsAny(at(12, 0), at(13, 0), busy) {
		t.Fatal("slot between busy intervals must not conflict")
	}
	if ConflictsAny(at(9, 0), at(10, 0), nil) {
		t.Fatal("empty busy list must never conflict")
	}
	if ConflictsAny(at(10, 30), at(10, 30), busy) {
		t.Fatal("zero-duration candidate inside a busy interval must not conflict")
	}
}
