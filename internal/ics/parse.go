package ics

import (
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/cockroachdb/errors"
	"github.com/teambition/rrule-go"

	appLog "rolodex/internal/log"
	"rolodex/internal/model"
	"rolodex/internal/temporal"
)

// Import reads VEVENTs into events owned by userID.
//
//   - DTSTART becomes the start date, truncated to the start of its day in loc.
//   - RRULE FREQ/INTERVAL become the recurrence; INTERVAL=2 reads back as
//     "every other".
//   - UNTIL/COUNT become a finite duration, otherwise the event runs forever.
//   - CATEGORIES become #tags.
//
// Events without a summary or start are logged and skipped.
func Import(r io.Reader, userID string, loc *time.Location) ([]model.Event, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse calendar")
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		e, perr := parseVEvent(ve, userID, loc)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent import failed", perr, "user", userID)
			continue
		}
		events = append(events, e)
	}

	appLog.Info("ics import completed", "user", userID, "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent, userID string, loc *time.Location) (model.Event, error) {
	out := model.Event{UserID: userID}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = strings.TrimSpace(p.Value)
	}
	if out.Title == "" {
		return out, errors.New("missing SUMMARY")
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}

	dt := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dt == nil {
		return out, errors.Newf("event %q has no DTSTART", out.Title)
	}
	var (
		start time.Time
		err   error
	)
	// VALUE=DATE or no 'T' in the value -> all-day
	if !strings.Contains(dt.Value, "T") {
		start, err = ve.GetAllDayStartAt()
	} else {
		start, err = ve.GetStartAt()
	}
	if err != nil {
		return out, errors.Wrapf(err, "event %q DTSTART", out.Title)
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	out.Date = model.ParsedDate{StartDate: model.TimestampOf(start), EndDate: model.TimestampOf(start)}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		d, rerr := dateFromRule(p.Value, start)
		if rerr != nil {
			return out, errors.Wrapf(rerr, "event %q RRULE", out.Title)
		}
		out.Date = d
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if !strings.HasPrefix(c, "#") {
				c = "#" + c
			}
			out.Tags = append(out.Tags, strings.ReplaceAll(c, " ", "-"))
		}
	}
	out.Tags = model.DedupeTags(out.Tags)

	return out, nil
}

func dateFromRule(value string, start time.Time) (model.ParsedDate, error) {
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return model.ParsedDate{}, err
	}

	unit := intervalOf(opt.Freq)
	every := &model.RecurEvery{Pattern: model.Pattern{Amount: 1, Interval: unit}}
	switch {
	case opt.Interval == 2:
		every.IsAlternating = true
	case opt.Interval > 1:
		every.Pattern.Amount = uint(opt.Interval)
	}

	d := model.ParsedDate{
		StartDate: model.TimestampOf(start),
		EndDate:   model.Forever,
		Recurrence: model.Recurrence{
			IsRecurrent: true,
			RecurEvery:  every,
			RecurFor:    &model.RecurFor{IsForever: true},
		},
	}

	var end time.Time
	switch {
	case !opt.Until.IsZero():
		u := opt.Until.In(start.Location())
		end = temporal.StartOfDay(u).AddDate(0, 0, 1)
	case opt.Count > 0:
		step := max(opt.Interval, 1)
		end = temporal.Add(start, opt.Count*step, unit)
	default:
		return d, nil
	}

	p := spanPattern(start, end, unit)
	d.Recurrence.RecurFor = &model.RecurFor{Pattern: &p}
	d.EndDate = model.TimestampOf(temporal.AddPattern(start, p))
	return d, nil
}

func intervalOf(f rrule.Frequency) model.Interval {
	switch f {
	case rrule.WEEKLY:
		return model.Week
	case rrule.MONTHLY:
		return model.Month
	case rrule.YEARLY:
		return model.Year
	default:
		return model.Day
	}
}

// spanPattern expresses [start, end) as a whole number of unit when it
// fits exactly, otherwise in days.
func spanPattern(start, end time.Time, unit model.Interval) model.Pattern {
	for n := 1; n <= 1000; n++ {
		t := temporal.Add(start, n, unit)
		if t.Equal(end) {
			return model.Pattern{Amount: uint(n), Interval: unit}
		}
		if t.After(end) {
			break
		}
	}
	days := temporal.DaysUntil(end, start) - 1
	return model.Pattern{Amount: uint(max(days, 1)), Interval: model.Day}
}
