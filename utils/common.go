package utils

import (
	"strings"
	"time"
)

// Date returns midnight of the given civil date in LocCN.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, LocCN)
}

// DateOf truncates t to its civil date in LocCN.
func DateOf(t time.Time) time.Time {
	t = t.In(LocCN)
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date (2006-01-02) into LocCN.
func ParseDate(text string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(text), LocCN)
}

/*
YMD format a civil date

separator: between year, month and day
fullYear: 4 digit year or 2 digit year
*/
func YMD(day time.Time, separator string, fullYear bool) string {
	yearFormat := "2006"
	if !fullYear {
		yearFormat = "06"
	}
	return day.In(LocCN).Format(yearFormat + separator + "01" + separator + "02")
}

// DaysBetween counts calendar days from begin to end, both civil dates.
func DaysBetween(begin, end time.Time) int {
	b, e := DateOf(begin), DateOf(end)
	return int(e.Sub(b) / (24 * time.Hour))
}

// EachDay calls fn for every date in [begin, end] ascending, stopping when fn returns false.
func EachDay(begin, end time.Time, fn func(day time.Time) bool) {
	cur, last := DateOf(begin), DateOf(end)
	for !cur.After(last) {
		if !fn(cur) {
			return
		}
		cur = cur.AddDate(0, 0, 1)
	}
}

func IsWeekend(day time.Time) bool {
	wd := day.In(LocCN).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
