package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Keyword accepted by --start_date and --end_date.
	LastMonth = "last_month"

	dateLayout = "20060102"
)

/*
LastMonthRange returns the first and the last day of the calendar month before now.
*/
func LastMonthRange(now time.Time) (first, last time.Time) {
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first = firstOfThisMonth.AddDate(0, -1, 0)
	last = firstOfThisMonth.AddDate(0, 0, -1)
	return first, last
}

/*
ParseDate accepts YYYYMMDD or last_month.

For last_month the start of the range resolves to the first day of the previous month
and the end of the range to its last day.
*/
func ParseDate(value string, now time.Time, isEnd bool) (date time.Time, err error) {
	value = strings.TrimSpace(value)
	if value == LastMonth {
		first, last := LastMonthRange(now)
		if isEnd {
			return last, nil
		}
		return first, nil
	}
	date, err = time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date '%s' must be in YYYYMMDD format or '%s'", value, LastMonth)
	}
	return date, nil
}

// FormatDate renders a date the way Teamwork query parameters expect it.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
