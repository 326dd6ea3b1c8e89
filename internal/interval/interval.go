// Package interval implements calendar arithmetic for monitoring periods.
// All functions are pure: the first day of week is an explicit parameter,
// never read from ambient locale, and no function touches shared state.
package interval

import (
	"fmt"
	"strings"
	"time"
)

// Interval enumerates the supported monitoring period granularities.
type Interval int

const (
	Hourly Interval = iota
	Every3Hours
	Every4Hours
	Every6Hours
	Every8Hours
	Every12Hours
	Daily
	Weekly
	Every2Weeks
	Monthly
	Every2Months
	Quarterly
	BiAnnually
	Annually
)

// identifierLayout is the canonical YYYYMMDD form consumed by the
// schedule manager.
const identifierLayout = "20060102"

var names = map[Interval]string{
	Hourly:       "hourly",
	Every3Hours:  "every_3_hours",
	Every4Hours:  "every_4_hours",
	Every6Hours:  "every_6_hours",
	Every8Hours:  "every_8_hours",
	Every12Hours: "every_12_hours",
	Daily:        "daily",
	Weekly:       "weekly",
	Every2Weeks:  "every_2_weeks",
	Monthly:      "monthly",
	Every2Months: "every_2_months",
	Quarterly:    "quarterly",
	BiAnnually:   "bi_annually",
	Annually:     "annually",
}

// Intervals returns every defined granularity in ascending order. Tests
// iterate this set to ensure no variant falls through a dispatch switch.
func Intervals() []Interval {
	return []Interval{
		Hourly, Every3Hours, Every4Hours, Every6Hours, Every8Hours, Every12Hours,
		Daily, Weekly, Every2Weeks,
		Monthly, Every2Months, Quarterly, BiAnnually, Annually,
	}
}

// String returns the snake_case configuration name of the interval.
func (iv Interval) String() string {
	if name, ok := names[iv]; ok {
		return name
	}
	return fmt.Sprintf("interval(%d)", int(iv))
}

// Parse resolves a configuration name into an Interval.
func Parse(name string) (Interval, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for iv, known := range names {
		if known == needle {
			return iv, nil
		}
	}
	return 0, fmt.Errorf("unknown monitoring interval %q", name)
}

// hourSpan reports the hour multiple of an hour-based interval.
func hourSpan(iv Interval) (int, bool) {
	switch iv {
	case Hourly:
		return 1, true
	case Every3Hours:
		return 3, true
	case Every4Hours:
		return 4, true
	case Every6Hours:
		return 6, true
	case Every8Hours:
		return 8, true
	case Every12Hours:
		return 12, true
	}
	return 0, false
}

// monthSpan reports the month multiple of a month-based interval.
func monthSpan(iv Interval) (int, bool) {
	switch iv {
	case Monthly:
		return 1, true
	case Every2Months:
		return 2, true
	case Quarterly:
		return 3, true
	case BiAnnually:
		return 6, true
	}
	return 0, false
}

// StartOf floors t to the first instant of its enclosing period.
// Hour multiples floor to the nearest lower multiple within the day,
// weeks floor to midnight of the configured first weekday.
func StartOf(t time.Time, iv Interval, weekStart time.Weekday) time.Time {
	switch iv {
	case Hourly, Every3Hours, Every4Hours, Every6Hours, Every8Hours, Every12Hours:
		span, _ := hourSpan(iv)
		return startOfDay(t).Add(time.Duration(t.Hour()-t.Hour()%span) * time.Hour)
	case Daily:
		return startOfDay(t)
	case Weekly, Every2Weeks:
		return startOfWeek(t, weekStart)
	case Monthly, Every2Months, Quarterly, BiAnnually:
		return startOfMonth(t)
	case Annually:
		return startOfYear(t)
	default:
		// Unreachable for defined variants; pinned by TestEveryIntervalHandled.
		return t
	}
}

// EndOf returns the last representable millisecond of the enclosing period.
func EndOf(t time.Time, iv Interval, weekStart time.Weekday) time.Time {
	switch iv {
	case Hourly, Every3Hours, Every4Hours, Every6Hours, Every8Hours, Every12Hours:
		span, _ := hourSpan(iv)
		return StartOf(t, iv, weekStart).Add(time.Duration(span)*time.Hour - time.Millisecond)
	case Daily:
		return endOfDay(t)
	case Weekly, Every2Weeks:
		return endOfDay(startOfWeek(t, weekStart).AddDate(0, 0, 6))
	case Monthly, Every2Months, Quarterly, BiAnnually:
		return endOfDay(lastDayOfMonth(t))
	case Annually:
		return endOfDay(time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location()))
	default:
		return t
	}
}

// NextStart returns the first instant of the period after the one
// enclosing t. For hour multiples the step is the remaining hours to the
// next multiple, not a fixed span: 14:45 under Every3Hours yields 15:00.
func NextStart(t time.Time, iv Interval, weekStart time.Weekday) time.Time {
	switch iv {
	case Hourly, Every3Hours, Every4Hours, Every6Hours, Every8Hours, Every12Hours:
		span, _ := hourSpan(iv)
		return startOfDay(t).Add(time.Duration(t.Hour()+span-t.Hour()%span) * time.Hour)
	case Daily:
		return startOfDay(t).AddDate(0, 0, 1)
	case Weekly:
		return startOfWeek(t, weekStart).AddDate(0, 0, 7)
	case Every2Weeks:
		return startOfWeek(t, weekStart).AddDate(0, 0, 14)
	case Monthly, Every2Months, Quarterly, BiAnnually:
		span, _ := monthSpan(iv)
		return addMonths(startOfMonth(t), span)
	case Annually:
		return startOfYear(t).AddDate(1, 0, 0)
	default:
		return t
	}
}

// NextEnd returns the last millisecond reached by stepping the enclosing
// period's end forward once. For hour multiples the step is the remaining
// hours to the next multiple, so the result is the end of the hour in
// which the next period starts: 14:45 under Every3Hours yields
// 15:59:59.999.
func NextEnd(t time.Time, iv Interval, weekStart time.Weekday) time.Time {
	switch iv {
	case Hourly, Every3Hours, Every4Hours, Every6Hours, Every8Hours, Every12Hours:
		return NextStart(t, iv, weekStart).Add(time.Hour - time.Millisecond)
	case Daily:
		return endOfDay(startOfDay(t).AddDate(0, 0, 1))
	case Weekly:
		return EndOf(t, Weekly, weekStart).AddDate(0, 0, 7)
	case Every2Weeks:
		return EndOf(t, Weekly, weekStart).AddDate(0, 0, 14)
	case Monthly, Every2Months, Quarterly, BiAnnually:
		span, _ := monthSpan(iv)
		return endOfDay(lastDayOfMonth(addMonths(startOfMonth(t), span)))
	case Annually:
		return EndOf(t, Annually, weekStart).AddDate(1, 0, 0)
	default:
		return t
	}
}

// Advance shifts t forward by count whole periods. Month and year steps
// use calendar-aware addition: the day of month is clamped to the last
// valid day of the target month, so Jan 31 advanced monthly lands on
// Feb 29 in a leap year rather than overflowing into March.
func Advance(t time.Time, iv Interval, count int) time.Time {
	t = t.Truncate(time.Millisecond)
	switch iv {
	case Hourly, Every3Hours, Every4Hours, Every6Hours, Every8Hours, Every12Hours:
		span, _ := hourSpan(iv)
		return t.Add(time.Duration(span*count) * time.Hour)
	case Daily:
		return t.AddDate(0, 0, count)
	case Weekly:
		return t.AddDate(0, 0, 7*count)
	case Every2Weeks:
		return t.AddDate(0, 0, 14*count)
	case Monthly, Every2Months, Quarterly, BiAnnually:
		span, _ := monthSpan(iv)
		return addMonths(t, span*count)
	case Annually:
		return addMonths(t, 12*count)
	default:
		return t
	}
}

// Identifier derives the canonical week key for t: the YYYYMMDD form of
// the start of the enclosing week. Only the weekly granularity has a
// canonical identifier today.
func Identifier(t time.Time, weekStart time.Weekday) string {
	return StartOf(t, Weekly, weekStart).Format(identifierLayout)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func startOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	offset := int(t.Weekday()) - int(weekStart)
	if offset < 0 {
		offset += 7
	}
	return startOfDay(t.AddDate(0, 0, -offset))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

func lastDayOfMonth(t time.Time) time.Time {
	// Day zero of the next month normalizes to the last day of this one.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}

// addMonths adds whole calendar months, clamping the day of month to the
// length of the target month instead of letting time.AddDate normalize
// the overflow into the following month.
func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := lastDayOfMonth(first).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
