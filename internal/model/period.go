package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrConflictingPeriod is returned when both a quarter and a month are selected.
var ErrConflictingPeriod = errors.New("quarter and month are mutually exclusive")

// DateRange is an inclusive [From, To] pair of YYYY-MM-DD strings.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (r DateRange) String() string {
	return r.From + ".." + r.To
}

// Contains reports whether the day of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := t.Format(DateFormat)
	return d >= r.From && d <= r.To
}

// Quarter is a calendar quarter, Q1 through Q4.
type Quarter int

const (
	Q1 Quarter = iota + 1
	Q2
	Q3
	Q4
)

func (q Quarter) String() string {
	if q < Q1 || q > Q4 {
		return fmt.Sprintf("Quarter(%d)", int(q))
	}
	return "Q" + strconv.Itoa(int(q))
}

// Months returns the first and last month of the quarter.
func (q Quarter) Months() (first, last time.Month) {
	first = time.Month(3*(int(q)-1) + 1)
	return first, first + 2
}

// QuarterOf returns the quarter a month falls in.
func QuarterOf(m time.Month) Quarter {
	return Quarter((int(m)-1)/3 + 1)
}

// ParseQuarter accepts "1".."4" and "Q1".."Q4" (case-insensitive).
func ParseQuarter(s string) (Quarter, error) {
	trimmed := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "Q")
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 || n > 4 {
		return 0, fmt.Errorf("invalid quarter %q: must be Q1..Q4", s)
	}
	return Quarter(n), nil
}

// ParseMonth accepts "1".."12" and English month names or their
// three-letter abbreviations.
func ParseMonth(s string) (time.Month, error) {
	trimmed := strings.TrimSpace(s)
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("invalid month %q: must be 1..12", s)
		}
		return time.Month(n), nil
	}
	lower := strings.ToLower(trimmed)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if lower == name || (len(lower) == 3 && strings.HasPrefix(name, lower)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid month %q", s)
}

// ComputeDateRange derives the inclusive range for a year and an optional
// quarter or month. With neither selector the range spans the whole year.
func ComputeDateRange(year int, quarter *Quarter, month *time.Month) (DateRange, error) {
	if year < 1 || year > 9999 {
		return DateRange{}, fmt.Errorf("invalid year %d", year)
	}
	if quarter != nil && month != nil {
		return DateRange{}, ErrConflictingPeriod
	}

	first, last := time.January, time.December
	switch {
	case quarter != nil:
		if *quarter < Q1 || *quarter > Q4 {
			return DateRange{}, fmt.Errorf("invalid quarter %d", int(*quarter))
		}
		first, last = quarter.Months()
	case month != nil:
		if *month < time.January || *month > time.December {
			return DateRange{}, fmt.Errorf("invalid month %d", int(*month))
		}
		first, last = *month, *month
	}

	from := time.Date(year, first, 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the following month is the last day of this one.
	to := time.Date(year, last+1, 0, 0, 0, 0, 0, time.UTC)

	return DateRange{
		From: from.Format(DateFormat),
		To:   to.Format(DateFormat),
	}, nil
}
