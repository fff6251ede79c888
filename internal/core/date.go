package core

import (
	"fmt"
	"time"
)

// Date is a calendar date with no time-of-day component, fixed at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in the 2006-01-02 form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t.UTC()}, nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as 2006-01-02.
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Equal reports whether d and other are the same calendar date.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON encodes the date as a 2006-01-02 string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a 2006-01-02 string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay limits day to the length of the given month.
func ClampDay(year, month, day int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// AddMonths advances d by n calendar months, preserving the day of the month
// and clamping it to the length of the target month. The result is computed
// from d directly, so an anchor on the 31st stepped through February lands on
// the 28th (or 29th) and returns to the 31st in longer months.
func (d Date) AddMonths(n int) Date {
	year, month := d.Year(), d.Month()
	month += n
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		year--
	}
	return NewDate(year, month, ClampDay(year, month, d.Day()))
}

// AddYears advances d by n calendar years with the same clamping rule,
// so Feb 29 anchors land on Feb 28 in non-leap years.
func (d Date) AddYears(n int) Date {
	year := d.Year() + n
	return NewDate(year, d.Month(), ClampDay(year, d.Month(), d.Day()))
}

// AddDays advances d by n days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// MonthStart returns the first day of the given month.
func MonthStart(year, month int) Date {
	return NewDate(year, month, 1)
}

// MonthEnd returns the last day of the given month.
func MonthEnd(year, month int) Date {
	return NewDate(year, month, DaysInMonth(year, month))
}

// PrevMonth returns the year and month immediately before the given one.
func PrevMonth(year, month int) (int, int) {
	month--
	if month < 1 {
		month = 12
		year--
	}
	return year, month
}

// MonthsBetween returns the number of whole calendar months from a to b,
// ignoring the day component. Negative when b is in an earlier month.
func MonthsBetween(a, b Date) int {
	return (b.Year()-a.Year())*12 + b.Month() - a.Month()
}
