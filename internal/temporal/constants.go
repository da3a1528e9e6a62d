// Package temporal holds the read-only name tables and accepted layouts used
// by the date parser, plus calendar anchors computed from one captured "now".
package temporal

import (
	"strings"
	"time"

	"rolodex/internal/model"
)

var (
	Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	Months   = []string{"January", "February", "March", "April", "May", "June", "July",
		"August", "September", "October", "November", "December"}

	WeekdaysLower = lowerAll(Weekdays)
	MonthsLower   = lowerAll(Months)
)

var weekdayByName = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 14)
	for i, name := range WeekdaysLower {
		m[name] = time.Weekday(i)
		m[name[:3]] = time.Weekday(i)
	}
	return m
}()

var monthByName = func() map[string]time.Month {
	m := make(map[string]time.Month, 25)
	for i, name := range MonthsLower {
		m[name] = time.Month(i + 1)
		m[name[:3]] = time.Month(i + 1)
	}
	m["sept"] = time.September
	return m
}()

// unitSynonyms maps date-unit words onto intervals.
var unitSynonyms = map[string]model.Interval{
	"day":    model.Day,
	"days":   model.Day,
	"week":   model.Week,
	"weeks":  model.Week,
	"month":  model.Month,
	"months": model.Month,
	"year":   model.Year,
	"years":  model.Year,
}

// amountWords are the spelled-out amounts accepted before a unit.
var amountWords = map[string]uint{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

// Layouts are the accepted absolute-date layouts, most specific first.
// Inputs are normalized (ordinal suffixes and commas removed, "sept"
// shortened) before matching; matching is strict.
var Layouts = []string{
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02",
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"January 2006",
	"Jan 2006",
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
	"1/2",
}

// DefaultRecurrence is "every 1 day"; DefaultDuration is "forever".
var (
	DefaultRecurrence = model.RecurEvery{Pattern: model.Pattern{Amount: 1, Interval: model.Day}}
	DefaultDuration   = model.RecurFor{IsForever: true}
	NoRecurrence      = model.RecurEvery{}
	NoDuration        = model.RecurFor{}
)

// Weekday looks up a full or three-letter weekday name, case-insensitively.
func Weekday(name string) (time.Weekday, bool) {
	d, ok := weekdayByName[strings.ToLower(name)]
	return d, ok
}

// Month looks up a full or abbreviated month name, case-insensitively.
func Month(name string) (time.Month, bool) {
	m, ok := monthByName[strings.ToLower(name)]
	return m, ok
}

// Unit maps a unit word ("weeks") to its interval.
func Unit(word string) (model.Interval, bool) {
	i, ok := unitSynonyms[strings.ToLower(word)]
	return i, ok
}

// Amount parses a positive amount written as digits or a small number word.
func Amount(word string) (uint, bool) {
	w := strings.ToLower(word)
	if n, ok := amountWords[w]; ok {
		return n, true
	}
	if w == "" || len(w) > 4 {
		return 0, false
	}
	var n uint
	for _, r := range w {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + uint(r-'0')
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
