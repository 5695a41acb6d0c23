package availability

import "time"

// AvailableSlots returns slot start times within [windowStart, windowEnd) where a booking of
// length duration would not overlap any of the busy intervals.
//
// All times are expected to be in the same location (timezone).
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) {
		return nil
	}
	if windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		if !ConflictsAny(t, t.Add(duration), busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

// WindowsForDay materializes a professional's recurring weekly windows for a
// concrete calendar day. Minutes are minutes from midnight in loc.
func WindowsForDay(day time.Time, loc *time.Location, windows []DayWindow) []Interval {
	var out []Interval
	for _, w := range windows {
		if !w.IsWorking || w.EndMinute <= w.StartMinute {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, w.StartMinute, 0, 0, loc)
		end := time.Date(day.Year(), day.Month(), day.Day(), 0, w.EndMinute, 0, 0, loc)
		out = append(out, Interval{Start: start, End: end})
	}
	return out
}

// DayWindow is a recurring window already filtered to the requested weekday.
type DayWindow struct {
	IsWorking   bool
	StartMinute int
	EndMinute   int
}
