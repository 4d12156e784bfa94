package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Supported calendar years. January 1 of year 1 is the zero Date, which
// means "unset" in a DateRange, so early years are not representable.
const (
	MinYear = 1000
	MaxYear = 9999
)

// Date is a calendar date at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. Malformed input is reported as
// ErrInvalidDateRange.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDateRange, s)
	}
	if t.Year() < MinYear {
		return Date{}, fmt.Errorf("%w: year %d is before %d", ErrInvalidDateRange, t.Year(), MinYear)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.New("date must be a string")
	}
	v, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DateRange is an inclusive window. A zero Start or End leaves that side open.
type DateRange struct {
	Start Date
	End   Date
}

// MonthRange covers the first to the last day of a month.
func MonthRange(year, month int) DateRange {
	start := NewDate(year, month, 1)
	return DateRange{Start: start, End: Date{Time: start.AddDate(0, 1, -1)}}
}

// YearRange covers January 1 to December 31.
func YearRange(year int) DateRange {
	return DateRange{Start: NewDate(year, 1, 1), End: NewDate(year, 12, 31)}
}

func (r DateRange) Bounded() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Validate rejects windows whose end precedes their start.
func (r DateRange) Validate() error {
	if r.Bounded() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidDateRange, r.End, r.Start)
	}
	return nil
}

func (r DateRange) Contains(d Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// Days is the number of calendar days in a bounded range, 0 otherwise.
func (r DateRange) Days() int {
	if !r.Bounded() || r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}
