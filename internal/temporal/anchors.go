package temporal

import (
	"time"

	"rolodex/internal/model"
)

// Anchors are calendar reference points derived from a single captured
// instant. Every relative date in one parse is resolved against the same
// Anchors value.
type Anchors struct {
	now       time.Time
	weekStart time.Weekday
}

// NewAnchors captures now (in its own location) and the first day of the week.
func NewAnchors(now time.Time, weekStart time.Weekday) Anchors {
	return Anchors{now: now, weekStart: weekStart}
}

func (a Anchors) Now() time.Time {
	return a.now
}

func (a Anchors) Location() *time.Location {
	return a.now.Location()
}

func (a Anchors) StartOfDay() time.Time {
	return StartOfDay(a.now)
}

func (a Anchors) StartOfTomorrow() time.Time {
	return a.StartOfDay().AddDate(0, 0, 1)
}

func (a Anchors) StartOfYesterday() time.Time {
	return a.StartOfDay().AddDate(0, 0, -1)
}

func (a Anchors) StartOfWeek() time.Time {
	today := a.StartOfDay()
	back := (int(today.Weekday()) - int(a.weekStart) + 7) % 7
	return today.AddDate(0, 0, -back)
}

func (a Anchors) StartOfMonth() time.Time {
	y, m, _ := a.now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, a.now.Location())
}

func (a Anchors) StartOfYear() time.Time {
	return time.Date(a.now.Year(), time.January, 1, 0, 0, 0, 0, a.now.Location())
}

// NearestWeekday rolls forward day by day from the start of today until the
// weekday matches; today counts.
func (a Anchors) NearestWeekday(day time.Weekday) time.Time {
	return NearestWeekday(day, a.StartOfDay())
}

// NearestWeekday rolls forward from the start of from's day until the weekday
// matches, inclusive of from's day.
func NearestWeekday(day time.Weekday, from time.Time) time.Time {
	d := StartOfDay(from)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// DaysUntil counts calendar days from from's day to date's day, inclusive.
func DaysUntil(date, from time.Time) int {
	a := StartOfDay(from)
	b := StartOfDay(date.In(from.Location()))
	// Civil-date arithmetic so DST shifts do not skew the count.
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(bd.Sub(ad).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days + 1
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Add advances t by amount units using calendar arithmetic. Month and
// year steps clamp to the last day of the target month.
func Add(t time.Time, amount int, unit model.Interval) time.Time {
	switch unit {
	case model.Day:
		return t.AddDate(0, 0, amount)
	case model.Week:
		return t.AddDate(0, 0, 7*amount)
	case model.Month:
		return addMonths(t, amount)
	case model.Year:
		return addMonths(t, 12*amount)
	default:
		return t
	}
}

// AddPattern is Add for a Pattern.
func AddPattern(t time.Time, p model.Pattern) time.Time {
	return Add(t, int(p.Amount), p.Interval)
}

func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(monthStart time.Time) int {
	return monthStart.AddDate(0, 1, -monthStart.Day()).Day()
}
