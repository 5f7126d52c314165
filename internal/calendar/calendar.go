// Package calendar implements the Westmarch in-game calendar: ten-day
// weeks, three weeks to a month, twelve months to a year, with extra days
// folded into even-numbered months on a four-year leap cycle.
package calendar

import (
	"errors"
	"fmt"
)

const (
	DaysPerWeek      = 10
	WeeksPerMonth    = 3
	BaseDaysPerMonth = DaysPerWeek * WeeksPerMonth // 30
	MonthsPerYear    = 12
)

// ErrDayNumber indicates an absolute day number below 1.
var ErrDayNumber = errors.New("day number must be >= 1")

// ErrOutOfRange indicates a date whose fields do not name a real calendar day.
var ErrOutOfRange = errors.New("date fields out of range")

// Date is an immutable in-game calendar date. Month and Day are 1-based;
// DayOfYear runs 1..365 (366 in leap years).
type Date struct {
	Year      int
	Month     int
	Day       int
	DayOfYear int
}

// Week returns the 1-based week of the year (ten days per week).
func (d Date) Week() int {
	return ((d.DayOfYear - 1) / DaysPerWeek) + 1
}

// Weekday returns the day within the week, 1..10.
func (d Date) Weekday() int {
	return ((d.DayOfYear - 1) % DaysPerWeek) + 1
}

// Key formats the date as YYYY-MM-DD. This exact format feeds the weather
// seed tuples, so it must never change shape.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsLeapYear reports whether the year carries a sixth extra day.
func IsLeapYear(year int) bool {
	return year%4 == 0
}

// YearLength returns the number of days in the year: 366 for leap years,
// 365 otherwise.
func YearLength(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// extraDayMonths lists, in priority order, the months that absorb the days
// beyond the 360-day base. Short years use the first five, leaving month 12
// at 30 days.
var extraDayMonths = [6]int{2, 4, 6, 8, 10, 12}

// MonthLengths returns the length of each month for the given year.
func MonthLengths(year int) [MonthsPerYear]int {
	var lengths [MonthsPerYear]int
	for i := range lengths {
		lengths[i] = BaseDaysPerMonth
	}

	extras := 5
	if IsLeapYear(year) {
		extras = 6
	}
	for _, m := range extraDayMonths[:extras] {
		lengths[m-1]++
	}
	return lengths
}

// FromDayNumber converts an absolute day number (1-based count of in-game
// days from year 1, month 1, day 1) to a Date.
//
// The scan over years and months is linear, which is fine for campaign-scale
// year counts.
func FromDayNumber(n int) (Date, error) {
	if n < 1 {
		return Date{}, ErrDayNumber
	}

	year := 1
	remaining := n
	for remaining > YearLength(year) {
		remaining -= YearLength(year)
		year++
	}
	dayOfYear := remaining

	lengths := MonthLengths(year)
	month := 1
	for remaining > lengths[month-1] {
		remaining -= lengths[month-1]
		month++
	}

	return Date{
		Year:      year,
		Month:     month,
		Day:       remaining,
		DayOfYear: dayOfYear,
	}, nil
}

// DayNumber converts the date back to an absolute day number. It validates
// Year, Month and Day against the computed month lengths; DayOfYear is
// recomputed, not trusted.
func (d Date) DayNumber() (int, error) {
	if d.Year < 1 || d.Month < 1 || d.Month > MonthsPerYear {
		return 0, ErrOutOfRange
	}
	lengths := MonthLengths(d.Year)
	if d.Day < 1 || d.Day > lengths[d.Month-1] {
		return 0, ErrOutOfRange
	}

	n := 0
	for y := 1; y < d.Year; y++ {
		n += YearLength(y)
	}
	for m := 1; m < d.Month; m++ {
		n += lengths[m-1]
	}
	return n + d.Day, nil
}

// Season is one of the four quarters of the in-game year.
type Season int

const (
	Winter Season = iota + 1
	Spring
	Summer
	Autumn
)

func (s Season) String() string {
	switch s {
	case Winter:
		return "Winter"
	case Spring:
		return "Spring"
	case Summer:
		return "Summer"
	case Autumn:
		return "Autumn"
	default:
		return "Unknown"
	}
}

// SeasonForMonth maps months 1-3 to Winter, 4-6 to Spring, 7-9 to Summer
// and 10-12 to Autumn.
func SeasonForMonth(month int) Season {
	switch {
	case month >= 1 && month <= 3:
		return Winter
	case month <= 6:
		return Spring
	case month <= 9:
		return Summer
	default:
		return Autumn
	}
}
