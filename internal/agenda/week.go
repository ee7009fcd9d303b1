package agenda

import "time"

// WeekStart returns Monday 00:00:00 UTC of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 { // Sunday belongs to the week started 6 days earlier
		weekday = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -(weekday - 1))
}

// WeekEnd returns the last day of the week containing t (start + 6d).
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// ThreadID derives the thread identifier for the week containing t.
// Two calls within the same ISO week return the same string, which is
// what makes thread publication replace-not-append.
func ThreadID(t time.Time) string {
	return "thread-" + WeekStart(t).Format("2006-01-02")
}
