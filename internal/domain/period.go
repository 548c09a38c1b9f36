package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PeriodUnit string

const (
	PeriodDay         PeriodUnit = "day"
	PeriodWeek        PeriodUnit = "week"
	PeriodMonth       PeriodUnit = "month"
	PeriodQuarter     PeriodUnit = "quarter"
	PeriodYear        PeriodUnit = "year"
	PeriodMonthEnd    PeriodUnit = "monthend"
	PeriodQuarterEnd  PeriodUnit = "quarterend"
	PeriodYearEnd     PeriodUnit = "yearend"
	PeriodImmediately PeriodUnit = "immediately"
	PeriodNone        PeriodUnit = "none"
)

var validPeriodUnits = map[PeriodUnit]bool{
	PeriodDay: true, PeriodWeek: true, PeriodMonth: true, PeriodQuarter: true,
	PeriodYear: true, PeriodMonthEnd: true, PeriodQuarterEnd: true, PeriodYearEnd: true,
	PeriodImmediately: true, PeriodNone: true,
}

// Valid reports whether u is a known period unit.
func (u PeriodUnit) Valid() bool { return validPeriodUnits[u] }

// Period is a relative time expression of the form "unit|amount".
type Period struct {
	Unit   PeriodUnit
	Amount int
}

// ParsePeriod parses "unit|amount". An omitted amount defaults to 1 for
// calendar units and 0 for none/immediately. Amounts may be negative.
func ParsePeriod(expr string) (Period, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Period{}, &InvalidPeriodError{Expression: expr, Reason: "empty expression"}
	}
	unitStr, amountStr, hasAmount := strings.Cut(expr, "|")
	unit := PeriodUnit(strings.ToLower(strings.TrimSpace(unitStr)))
	if !validPeriodUnits[unit] {
		return Period{}, &InvalidPeriodError{Expression: expr, Reason: fmt.Sprintf("unknown unit %q", unitStr)}
	}

	p := Period{Unit: unit}
	if unit != PeriodNone && unit != PeriodImmediately {
		p.Amount = 1
	}
	if hasAmount && strings.TrimSpace(amountStr) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(amountStr))
		if err != nil {
			return Period{}, &InvalidPeriodError{Expression: expr, Reason: "amount is not an integer"}
		}
		p.Amount = n
	}
	return p, nil
}

// MustParsePeriod is ParsePeriod for literals known to be valid.
func MustParsePeriod(expr string) Period {
	p, err := ParsePeriod(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the canonical "unit|amount" form. The zero Period is
// written as none.
func (p Period) String() string {
	if p.Unit == "" {
		return fmt.Sprintf("%s|%d", PeriodNone, 0)
	}
	return fmt.Sprintf("%s|%d", p.Unit, p.Amount)
}

// Expression returns the amount part, as stored in projections.
func (p Period) Expression() string {
	return strconv.Itoa(p.Amount)
}

// NextDate evaluates the period against base. A none period has no date.
// The end-of-period units land on the last instant of the period that lies
// Amount-1 periods after the one containing base, so monthend|1 is the end
// of the current month and monthend|0 the end of the previous one.
func (p Period) NextDate(base time.Time) *time.Time {
	var next time.Time
	switch p.Unit {
	case PeriodNone:
		return nil
	case PeriodImmediately:
		next = base
	case PeriodDay:
		next = base.AddDate(0, 0, p.Amount)
	case PeriodWeek:
		next = base.AddDate(0, 0, 7*p.Amount)
	case PeriodMonth:
		next = addMonthsClamped(base, p.Amount)
	case PeriodQuarter:
		next = addMonthsClamped(base, 3*p.Amount)
	case PeriodYear:
		next = addMonthsClamped(base, 12*p.Amount)
	case PeriodMonthEnd:
		y, m, _ := base.Date()
		next = endOfMonth(y, m+time.Month(p.Amount-1), base.Location())
	case PeriodQuarterEnd:
		y, m, _ := base.Date()
		lastMonth := (m-1)/3*3 + 3
		// A base on the quarter's last instant belongs to the next quarter.
		if !base.Before(endOfMonth(y, lastMonth, base.Location())) {
			lastMonth += 3
		}
		next = endOfMonth(y, lastMonth+time.Month(3*(p.Amount-1)), base.Location())
	case PeriodYearEnd:
		next = endOfMonth(base.Year()+p.Amount-1, time.December, base.Location())
	default:
		return nil
	}
	return &next
}

// addMonthsClamped adds months, clamping the day to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// endOfMonth returns 23:59:59.999 on the last day of month m of year y.
// Month overflow is normalized.
func endOfMonth(y int, m time.Month, loc *time.Location) time.Time {
	first := time.Date(y, m+1, 1, 0, 0, 0, 0, loc)
	return first.Add(-time.Millisecond)
}
