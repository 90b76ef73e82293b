package reminders

import "time"

// TimeWindow is the half-open interval [Start, End) covering one calendar day.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Window returns the calendar day daysOut days after now, in now's location.
// End is the following midnight, so DST transition days are 23 or 25 hours
// long but still exactly one calendar day.
func Window(now time.Time, daysOut int) TimeWindow {
	d := now.AddDate(0, 0, daysOut)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return TimeWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w TimeWindow) vars() map[string]any {
	return map[string]any{
		"startRange": w.Start.Format(time.RFC3339),
		"endRange":   w.End.Format(time.RFC3339),
	}
}
