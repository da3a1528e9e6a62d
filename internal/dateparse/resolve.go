package dateparse

import (
	"strings"
	"time"

	"rolodex/internal/model"
	"rolodex/internal/temporal"
)

type startMatch struct {
	at                time.Time
	inputText         string
	impliesRecurrence bool
}

func parseStart(f fragment, a temporal.Anchors) (startMatch, bool) {
	words := f.words
	implies := false
	switch words[0] {
	case "starting":
		implies = true
		words = words[1:]
		// "starting on Monday"
		if len(words) > 0 && (words[0] == "on" || words[0] == "is") {
			words = words[1:]
		}
	case "on", "is":
		words = words[1:]
	}
	if len(words) == 0 {
		return startMatch{}, false
	}

	at, ok := keywordDate(words, a)
	if !ok {
		at, ok = exactDateWithPrefix(words, a)
	}
	if !ok {
		return startMatch{}, false
	}
	return startMatch{at: at, inputText: f.text, impliesRecurrence: implies}, true
}

// keywordDate resolves today/tomorrow/yesterday, [this|next|this coming]
// week/month/year and weekday names. next and "this coming" roll the anchor
// forward by one unit.
func keywordDate(words []string, a temporal.Anchors) (time.Time, bool) {
	roll, prefixed := 0, false
	switch {
	case len(words) >= 3 && words[0] == "this" && words[1] == "coming":
		roll, prefixed, words = 1, true, words[2:]
	case len(words) >= 2 && words[0] == "next":
		roll, prefixed, words = 1, true, words[1:]
	case len(words) >= 2 && words[0] == "this":
		prefixed, words = true, words[1:]
	}
	if len(words) != 1 {
		return time.Time{}, false
	}

	w := words[0]
	switch w {
	case "today":
		return a.StartOfDay(), !prefixed
	case "tomorrow":
		return a.StartOfTomorrow(), !prefixed
	case "yesterday":
		return a.StartOfYesterday(), !prefixed
	case "week":
		return temporal.Add(a.StartOfWeek(), roll, model.Week), prefixed
	case "month":
		return temporal.Add(a.StartOfMonth(), roll, model.Month), prefixed
	case "year":
		return temporal.Add(a.StartOfYear(), roll, model.Year), prefixed
	}

	if day, ok := temporal.Weekday(w); ok {
		from := temporal.Add(a.StartOfDay(), roll, model.Week)
		return temporal.NearestWeekday(day, from), true
	}
	return time.Time{}, false
}

// exactDateWithPrefix matches an absolute date; a leading "next" moves it
// one year later and a leading "this" is ignored.
func exactDateWithPrefix(words []string, a temporal.Anchors) (time.Time, bool) {
	years := 0
	switch words[0] {
	case "next":
		years, words = 1, words[1:]
	case "this":
		words = words[1:]
	}
	if len(words) == 0 {
		return time.Time{}, false
	}
	t, ok := exactDate(words, a)
	if !ok {
		return time.Time{}, false
	}
	return temporal.Add(t, years, model.Year), true
}

// exactDate tries temporal.Layouts in order; the first strict match wins.
// Layouts without a year take the year of the captured now.
func exactDate(words []string, a temporal.Anchors) (time.Time, bool) {
	s := normalizeDate(words)
	if s == "" {
		return time.Time{}, false
	}
	loc := a.Location()
	for _, layout := range temporal.Layouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if hasYear(layout) {
			return t, true
		}
		withYear := time.Date(a.Now().Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if withYear.Day() != t.Day() {
			// February 29 outside a leap year.
			return time.Time{}, false
		}
		return withYear, true
	}
	return time.Time{}, false
}

func hasYear(layout string) bool {
	return strings.Contains(layout, "06")
}

// normalizeDate drops ordinal suffixes and commas and shortens "sept".
func normalizeDate(words []string) string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ReplaceAll(w, ",", "")
		if w == "" {
			continue
		}
		if w == "sept" {
			w = "sep"
		}
		out = append(out, stripOrdinal(w))
	}
	return strings.Join(out, " ")
}

func stripOrdinal(w string) string {
	if len(w) < 3 || len(w) > 4 {
		return w
	}
	digits, suffix := w[:len(w)-2], w[len(w)-2:]
	switch suffix {
	case "st", "nd", "rd", "th":
	default:
		return w
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return w
		}
	}
	return digits
}

// parseEvery reads "everyday", "every [other] [amount] unit".
func parseEvery(f fragment) (model.RecurEvery, bool) {
	words := f.words
	if words[0] == "everyday" {
		if len(words) != 1 {
			return model.RecurEvery{}, false
		}
		return model.RecurEvery{
			Pattern:   model.Pattern{Amount: 1, Interval: model.Day},
			InputText: f.text,
		}, true
	}

	words = words[1:]
	alternating := false
	if len(words) > 0 && words[0] == "other" {
		alternating, words = true, words[1:]
	}
	p, ok := parsePattern(words)
	if !ok {
		return model.RecurEvery{}, false
	}
	return model.RecurEvery{Pattern: p, IsAlternating: alternating, InputText: f.text}, true
}

// parseFor reads "forever" or "for [amount] unit".
func parseFor(f fragment) (model.RecurFor, bool) {
	words := f.words
	if words[0] == "forever" {
		if len(words) != 1 {
			return model.RecurFor{}, false
		}
		d := temporal.DefaultDuration
		d.InputText = f.text
		return d, true
	}

	p, ok := parsePattern(words[1:])
	if !ok {
		return model.RecurFor{}, false
	}
	return model.RecurFor{Pattern: &p, InputText: f.text}, true
}

// parsePattern reads "[amount] unit"; the amount defaults to 1.
func parsePattern(words []string) (model.Pattern, bool) {
	switch len(words) {
	case 1:
		unit, ok := temporal.Unit(words[0])
		if !ok {
			return model.Pattern{}, false
		}
		return model.Pattern{Amount: 1, Interval: unit}, true
	case 2:
		amount, ok := temporal.Amount(words[0])
		if !ok {
			return model.Pattern{}, false
		}
		unit, ok := temporal.Unit(words[1])
		if !ok {
			return model.Pattern{}, false
		}
		return model.Pattern{Amount: amount, Interval: unit}, true
	default:
		return model.Pattern{}, false
	}
}
