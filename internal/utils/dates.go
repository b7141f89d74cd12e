package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted wire format for calendar dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date represents a calendar date with no time-of-day component
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct.
// Only unsigned, zero-padded 4-2-2 digit fields are accepted.
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(dateStr), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, ok := parseDigits(parts[0], 4)
	if !ok {
		return Date{}, fmt.Errorf("invalid year: %q", parts[0])
	}

	month, ok := parseDigits(parts[1], 2)
	if !ok {
		return Date{}, fmt.Errorf("invalid month: %q", parts[1])
	}

	day, ok := parseDigits(parts[2], 2)
	if !ok {
		return Date{}, fmt.Errorf("invalid day: %q", parts[2])
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// parseDigits reads exactly width ASCII digits.
func parseDigits(s string, width int) (int, bool) {
	if len(s) != width {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// MustParseDate is ParseDate for literals known to be valid. It panics otherwise.
func MustParseDate(dateStr string) Date {
	d, err := ParseDate(dateStr)
	if err != nil {
		panic(err)
	}
	return d
}

// NormalizeDate validates a date and returns its canonical form, trimmed of
// surrounding space, so lexicographic comparison matches calendar order.
func NormalizeDate(dateStr string) (string, error) {
	d, err := ParseDate(dateStr)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// FromTime takes the calendar date of t in its own location.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// FromOrdinal is the inverse of Date.Ordinal.
func FromOrdinal(n int) Date {
	return FromTime(time.Unix(int64(n)*secondsPerDay, 0).UTC())
}

// Ordinal returns the number of days since 1970-01-01.
func (d Date) Ordinal() int {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return int(t.Unix() / secondsPerDay)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	a, b := d.Ordinal(), other.Ordinal()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// AddDays shifts a date by n calendar days; n may be negative.
func AddDays(d Date, n int) Date {
	return FromOrdinal(d.Ordinal() + n)
}

// DaysBetween returns b - a in whole days.
func DaysBetween(a, b Date) int {
	return b.Ordinal() - a.Ordinal()
}

// DayCount returns the inclusive number of days in [start, end].
func DayCount(start, end Date) int {
	return DaysBetween(start, end) + 1
}

// Overlaps reports whether the inclusive ranges [startA, endA] and [startB, endB] share a day.
func Overlaps(startA, endA, startB, endB Date) bool {
	return startA.Ordinal() <= endB.Ordinal() && endA.Ordinal() >= startB.Ordinal()
}

// Contains reports whether day lies within the inclusive range [start, end].
func Contains(start, end, day Date) bool {
	return Overlaps(start, end, day, day)
}

// DatesInRange lists every date in [start, end] in ascending order.
func DatesInRange(start, end Date) []Date {
	n := DayCount(start, end)
	if n <= 0 {
		return nil
	}
	dates := make([]Date, 0, n)
	first := start.Ordinal()
	for i := 0; i < n; i++ {
		dates = append(dates, FromOrdinal(first+i))
	}
	return dates
}

// ParseRange parses an inclusive date range and checks start <= end.
func ParseRange(startStr, endStr string) (Date, Date, error) {
	start, err := ParseDate(startStr)
	if err != nil {
		return Date{}, Date{}, fmt.Errorf("invalid start date: %v", err)
	}
	end, err := ParseDate(endStr)
	if err != nil {
		return Date{}, Date{}, fmt.Errorf("invalid end date: %v", err)
	}
	if end.Before(start) {
		return Date{}, Date{}, fmt.Errorf("end date must be >= start date")
	}
	return start, end, nil
}
