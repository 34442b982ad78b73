// Package isoweek implements the ISO-8601 week arithmetic used to key weekly
// menus and order queries. All functions work on the calendar date of the
// given time in its own location.
package isoweek

import (
	"fmt"
	"time"
)

const labelLayout = "Jan 02"

// Info describes one ISO week. Start is its Monday and End its Friday, the
// last served day.
type Info struct {
	Year  int
	Week  int
	Start time.Time
	End   time.Time
	Label string
}

// Week returns the ISO week number (1-53) of t.
func Week(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// YearWeek returns the ISO week-numbering year and week of t. Near New Year
// the ISO year can differ from t.Year().
func YearWeek(t time.Time) (year, week int) {
	return t.ISOWeek()
}

// DayOfWeek returns 1 for Monday through 7 for Sunday.
func DayOfWeek(t time.Time) int {
	if wd := t.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}

// WeeksInYear returns 52 or 53.
func WeeksInYear(year int) int {
	week := Week(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
	if week == 1 {
		week = Week(time.Date(year, time.December, 24, 0, 0, 0, 0, time.UTC))
	}
	return week
}

// firstMonday returns the Monday of ISO week 1 of year.
func firstMonday(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	monday := jan1.AddDate(0, 0, 1-DayOfWeek(jan1))
	if y, w := monday.ISOWeek(); y != year || w != 1 {
		monday = monday.AddDate(0, 0, 7)
	}
	return monday
}

// DateOf returns the UTC calendar date of ISO day (1-7) in week of year. It
// does not range-check its arguments.
func DateOf(year, week, day int) time.Time {
	return firstMonday(year).AddDate(0, 0, (week-1)*7+day-1)
}

// WeekInfo describes week of year. week must be within 1..WeeksInYear(year).
func WeekInfo(year, week int) (Info, error) {
	if n := WeeksInYear(year); week < 1 || week > n {
		return Info{}, fmt.Errorf("week %d out of range 1..%d for %d", week, n, year)
	}

	start := DateOf(year, week, 1)
	end := start.AddDate(0, 0, 4)
	return Info{
		Year:  year,
		Week:  week,
		Start: start,
		End:   end,
		Label: start.Format(labelLayout) + " - " + end.Format(labelLayout),
	}, nil
}

// Weeks lists every ISO week of year in order.
func Weeks(year int) []Info {
	n := WeeksInYear(year)
	weeks := make([]Info, 0, n)
	for w := 1; w <= n; w++ {
		info, _ := WeekInfo(year, w)
		weeks = append(weeks, info)
	}
	return weeks
}

// Current returns the ISO week containing t.
func Current(t time.Time) Info {
	year, week := YearWeek(t)
	info, _ := WeekInfo(year, week)
	return info
}
