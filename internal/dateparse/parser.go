// Package dateparse reads start dates and recurrences out of free text such
// as "Josh's birthday on September 7th every year".
package dateparse

import (
	"time"

	appLog "rolodex/internal/log"
	"rolodex/internal/model"
	"rolodex/internal/temporal"
)

// Parser resolves relative dates in Location with weeks starting on
// WeekStart. Now is sampled once per Parse call.
type Parser struct {
	Now       func() time.Time
	Location  *time.Location
	WeekStart time.Weekday
}

// New returns a Parser reading the wall clock.
func New(loc *time.Location, weekStart time.Weekday) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{Now: time.Now, Location: loc, WeekStart: weekStart}
}

// Parse reads text against the current time. ok is false when no part of
// the text describes a date; that is the common case, not an error.
func (p *Parser) Parse(text string) (model.ParsedDate, bool) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return p.ParseAt(text, now())
}

// ParseAt is Parse with an explicit "now".
func (p *Parser) ParseAt(text string, now time.Time) (model.ParsedDate, bool) {
	loc := p.Location
	if loc == nil {
		loc = now.Location()
	}
	a := temporal.NewAnchors(now.In(loc), p.WeekStart)

	var (
		start  *startMatch
		every  *model.RecurEvery
		recFor *model.RecurFor
	)

	for _, f := range segment(text) {
		switch f.role {
		case roleStart:
			if start != nil {
				continue
			}
			if m, ok := parseStart(f, a); ok {
				start = &m
			}
		case roleEvery:
			if every != nil {
				continue
			}
			if r, ok := parseEvery(f); ok {
				every = &r
			}
		case roleFor:
			if recFor != nil {
				continue
			}
			if r, ok := parseFor(f); ok {
				recFor = &r
			}
		}
		if start != nil && every != nil && recFor != nil {
			break
		}
	}

	if start == nil && every == nil && recFor == nil {
		return model.ParsedDate{}, false
	}

	recurrent := every != nil || recFor != nil || (start != nil && start.impliesRecurrence)

	var out model.ParsedDate
	startTime := a.StartOfDay()
	if start != nil {
		startTime = start.at
		out.StartInputText = start.inputText
	}
	out.StartDate = model.TimestampOf(startTime)

	if !recurrent {
		out.EndDate = out.StartDate
		appLog.Debug("date parsed", "text", text, "start", startTime.Format(time.RFC3339))
		return out, true
	}

	if every == nil {
		d := temporal.DefaultRecurrence
		every = &d
	}
	if recFor == nil {
		d := temporal.DefaultDuration
		recFor = &d
	}
	out.Recurrence = model.Recurrence{IsRecurrent: true, RecurEvery: every, RecurFor: recFor}

	switch {
	case recFor.IsForever || recFor.Pattern == nil:
		out.EndDate = model.Forever
	default:
		out.EndDate = model.TimestampOf(temporal.AddPattern(startTime, *recFor.Pattern))
	}

	appLog.Debug("date parsed",
		"text", text,
		"start", startTime.Format(time.RFC3339),
		"every", every.Pattern.String(),
		"forever", recFor.IsForever,
	)
	return out, true
}

// IsDate reports whether token alone parses as a date.
func (p *Parser) IsDate(token string) bool {
	_, ok := p.Parse(token)
	return ok
}
