package model

import "time"

// Period names a date window ending at "now".
type Period string

// Supported periods.
const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Start returns the first instant of the window for p relative to now.
// The boolean is false for unknown periods, which callers treat as "no filter".
func (p Period) Start(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case PeriodQuarter:
		quarterStart := time.Month((int(now.Month())-1)/3*3 + 1)
		return time.Date(now.Year(), quarterStart, 1, 0, 0, 0, 0, now.Location()), true
	case PeriodYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// Contains reports whether t falls inside [start, now].
func (p Period) Contains(t, now time.Time) bool {
	start, ok := p.Start(now)
	if !ok {
		return true
	}
	return !t.Before(start) && !t.After(now)
}
