package ics

import (
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/cockroachdb/errors"

	"rolodex/internal/model"
)

const productID = "-//rolodex//rolodex//EN"

// Export writes events as an all-day VCALENDAR. Recurrent events carry an
// RRULE from RuleFor; tags become CATEGORIES without the leading '#'.
func Export(w io.Writer, name string, events []model.Event, loc *time.Location, now time.Time) error {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		if e.ID == "" {
			return errors.Newf("event %q has no id", e.Title)
		}
		start := e.Date.StartDate.Time(loc)
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

		ev := cal.AddEvent(e.ID + "@rolodex")
		ev.SetDtStampTime(now.UTC())
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))

		if opt, ok := RuleFor(e.Date, loc); ok {
			ev.AddProperty(ical.ComponentPropertyRrule, opt.RRuleString())
		}

		if len(e.Tags) > 0 {
			cats := make([]string, 0, len(e.Tags))
			for _, t := range e.Tags {
				cats = append(cats, strings.TrimPrefix(t, "#"))
			}
			ev.AddProperty(ical.ComponentPropertyCategories, strings.Join(cats, ","))
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return errors.Wrap(err, "write calendar")
	}
	return nil
}
