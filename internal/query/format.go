package query

import "time"

// FormatEventTime renders a compact start(-end) string for display: ":00"
// minutes are dropped ("6 PM", not "6:00 PM"), a range renders as
// "start - end", and showDate prefixes the long weekday/month/day form.
// Fixed English 12-hour convention; times render in loc.
func FormatEventTime(start time.Time, end *time.Time, loc *time.Location, showDate bool) string {
	s := formatClock(start.In(loc))
	if end != nil {
		s += " - " + formatClock(end.In(loc))
	}
	if showDate {
		s = start.In(loc).Format("Monday, January 2") + ", " + s
	}
	return s
}

func formatClock(t time.Time) string {
	if t.Minute() == 0 {
		return t.Format("3 PM")
	}
	return t.Format("3:04 PM")
}
