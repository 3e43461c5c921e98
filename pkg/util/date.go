package util

import "time"

// TimestampLayout is the wall-clock format shown on the dashboard.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// LookbackRange returns [to-days, to]. Calendar days, not trading days.
func LookbackRange(to time.Time, days int) (time.Time, time.Time) {
	return to.AddDate(0, 0, -days), to
}
