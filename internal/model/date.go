package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Timestamp is an absolute instant in milliseconds since the Unix epoch.
type Timestamp int64

// Forever is the end date of a recurrence that never stops.
const Forever Timestamp = math.MaxInt64

// TimestampOf converts t to a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time converts ts into loc. Forever has no meaningful time value and
// callers are expected to check IsForever first.
func (ts Timestamp) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(int64(ts)).In(loc)
}

func (ts Timestamp) IsForever() bool {
	return ts == Forever
}

// Interval is the calendar unit of a recurrence pattern.
type Interval int

const (
	Day Interval = iota + 1
	Week
	Month
	Year
)

func (i Interval) String() string {
	switch i {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return "unknown"
	}
}

// MarshalText encodes the interval by name so JSON and YAML stay readable.
func (i Interval) MarshalText() ([]byte, error) {
	if i == 0 {
		return []byte{}, nil
	}
	if i < Day || i > Year {
		return nil, fmt.Errorf("invalid interval %d", int(i))
	}
	return []byte(i.String()), nil
}

func (i *Interval) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "":
		*i = 0
	case "day":
		*i = Day
	case "week":
		*i = Week
	case "month":
		*i = Month
	case "year":
		*i = Year
	default:
		return fmt.Errorf("invalid interval %q", string(b))
	}
	return nil
}

// Pattern is "amount units", e.g. 2 weeks.
type Pattern struct {
	Amount   uint     `json:"amount" yaml:"amount"`
	Interval Interval `json:"interval" yaml:"interval"`
}

func (p Pattern) String() string {
	if p.Amount == 1 {
		return "1 " + p.Interval.String()
	}
	return fmt.Sprintf("%d %ss", p.Amount, p.Interval)
}

// RecurEvery is how often a recurring date repeats.
type RecurEvery struct {
	Pattern       Pattern `json:"pattern" yaml:"pattern"`
	IsAlternating bool    `json:"isAlternating" yaml:"is_alternating"`
	InputText     string  `json:"inputText,omitempty" yaml:"input_text,omitempty"`
}

// RecurFor is how long a recurring date continues. Pattern is nil when
// IsForever is set.
type RecurFor struct {
	Pattern   *Pattern `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	IsForever bool     `json:"isForever" yaml:"is_forever"`
	InputText string   `json:"inputText,omitempty" yaml:"input_text,omitempty"`
}

type Recurrence struct {
	IsRecurrent bool        `json:"isRecurrent" yaml:"is_recurrent"`
	RecurEvery  *RecurEvery `json:"recurEvery,omitempty" yaml:"recur_every,omitempty"`
	RecurFor    *RecurFor   `json:"recurFor,omitempty" yaml:"recur_for,omitempty"`
}

// ParsedDate is the structured reading of a free-text date.
//
// Invariants:
//   - not recurrent: EndDate == StartDate and RecurEvery/RecurFor are nil
//   - recurrent: RecurEvery and RecurFor are both set
//   - RecurFor.IsForever: EndDate == Forever
//
// StartInputText is empty when the start date was defaulted.
type ParsedDate struct {
	StartDate      Timestamp  `json:"startDate" yaml:"start_date"`
	EndDate        Timestamp  `json:"endDate" yaml:"end_date"`
	StartInputText string     `json:"startInputText,omitempty" yaml:"start_input_text,omitempty"`
	Recurrence     Recurrence `json:"recurrence" yaml:"recurrence"`
}

// InputTexts lists the substrings of the source text that produced d,
// in start/every/for order, skipping empty ones.
func (d ParsedDate) InputTexts() []string {
	out := make([]string, 0, 3)
	if d.StartInputText != "" {
		out = append(out, d.StartInputText)
	}
	if r := d.Recurrence.RecurEvery; r != nil && r.InputText != "" {
		out = append(out, r.InputText)
	}
	if r := d.Recurrence.RecurFor; r != nil && r.InputText != "" {
		out = append(out, r.InputText)
	}
	return out
}

// DateLayout is the human layout used for dates in descriptions and snippets.
const DateLayout = "January 2, 2006"

// Describe renders d for display, e.g.
// "September 7, 2026, every other week for 2 weeks".
func (d ParsedDate) Describe(loc *time.Location) string {
	var b strings.Builder
	b.WriteString(d.StartDate.Time(loc).Format(DateLayout))

	if !d.Recurrence.IsRecurrent {
		return b.String()
	}

	if every := d.Recurrence.RecurEvery; every != nil {
		b.WriteString(", every ")
		if every.IsAlternating {
			b.WriteString("other ")
		}
		if every.Pattern.Amount == 1 {
			b.WriteString(every.Pattern.Interval.String())
		} else {
			b.WriteString(every.Pattern.String())
		}
	}

	if rf := d.Recurrence.RecurFor; rf != nil {
		if rf.IsForever || rf.Pattern == nil {
			b.WriteString(", forever")
		} else {
			b.WriteString(" for ")
			b.WriteString(rf.Pattern.String())
		}
	}

	return b.String()
}
