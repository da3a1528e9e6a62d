package ics

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/teambition/rrule-go"

	appLog "rolodex/internal/log"
	"rolodex/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are reported in and the
	// zone calendar arithmetic happens in. If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps daily-forever style rules over long
	// windows. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the list of expanded occurrences and the events that
// hit the cap.
type ExpandResult struct {
	Occurrences     []model.Occurrence
	TruncatedEvents []string
}

// RuleFor maps a recurrent date onto an RRULE option set. ok is false for
// one-time dates.
//
// Alternating rules double the interval. Finite durations end just before
// EndDate, so "every day for 1 week" yields seven days.
func RuleFor(d model.ParsedDate, loc *time.Location) (rrule.ROption, bool) {
	r := d.Recurrence
	if !r.IsRecurrent || r.RecurEvery == nil {
		return rrule.ROption{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	amount := int(r.RecurEvery.Pattern.Amount)
	if amount <= 0 {
		amount = 1
	}
	if r.RecurEvery.IsAlternating {
		amount *= 2
	}

	opt := rrule.ROption{
		Freq:     frequency(r.RecurEvery.Pattern.Interval),
		Interval: amount,
		Dtstart:  d.StartDate.Time(loc),
	}
	if !d.EndDate.IsForever() && d.EndDate > d.StartDate {
		opt.Until = d.EndDate.Time(loc).Add(-time.Second)
	}
	return opt, true
}

func frequency(i model.Interval) rrule.Frequency {
	switch i {
	case model.Week:
		return rrule.WEEKLY
	case model.Month:
		return rrule.MONTHLY
	case model.Year:
		return rrule.YEARLY
	default:
		return rrule.DAILY
	}
}

// Occurrences lists e's instances inside [cfg.RangeStart, cfg.RangeEnd].
// The bool reports whether the cap cut the list short.
func Occurrences(e model.Event, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	cfg = withDefaults(cfg)
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, false, errors.New("expand: RangeEnd is before RangeStart")
	}
	loc := cfg.DisplayLocation

	opt, recurrent := RuleFor(e.Date, loc)
	if !recurrent {
		start := e.Date.StartDate.Time(loc)
		if start.Before(cfg.RangeStart) || start.After(cfg.RangeEnd) {
			return []model.Occurrence{}, false, nil
		}
		return []model.Occurrence{makeOccurrence(e, start)}, false, nil
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, false, errors.Wrapf(err, "rrule for event %s", e.ID)
	}

	times := r.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)
	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerEvent {
		times = times[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(times))
	for _, t := range times {
		out = append(out, makeOccurrence(e, t.In(loc)))
	}
	return out, hitCap, nil
}

// ExpandEvents expands every event and returns all occurrences sorted by
// start. Events whose rule cannot be built are logged and skipped.
func ExpandEvents(events []model.Event, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	cfg = withDefaults(cfg)
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}

	all := make([]model.Occurrence, 0)
	for _, e := range events {
		occ, hitCap, err := Occurrences(e, cfg)
		if err != nil {
			appLog.Error("expand: skipping event", err, "event", e.ID)
			continue
		}
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, e.ID)
			appLog.Error("expand: truncated occurrences due to cap",
				errors.New("max occurrences reached"),
				"event", e.ID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
		all = append(all, occ...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Start.Equal(all[j].Start) {
			return all[i].Start.Before(all[j].Start)
		}
		return all[i].Title < all[j].Title
	})
	result.Occurrences = all
	return result, nil
}

func withDefaults(cfg ExpandConfig) ExpandConfig {
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}
	return cfg
}

func makeOccurrence(e model.Event, start time.Time) model.Occurrence {
	return model.Occurrence{
		EventID:     e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Tags:        e.Tags,
		Start:       start,
		InstanceKey: e.ID + "/" + start.Format("2006-01-02"),
	}
}
