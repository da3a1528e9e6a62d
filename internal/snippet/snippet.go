// Package snippet builds the labeled, highlighted excerpt that explains why a
// friend or event matched a search.
package snippet

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"rolodex/internal/lexical"
	"rolodex/internal/model"
)

type FieldID int

const (
	FieldName FieldID = iota + 1
	FieldBirthday
	FieldEmail
	FieldPhone
	FieldLocation
	FieldOrganization
	FieldSkills
	FieldNotes
	FieldTitle
	FieldDate
	FieldDescription
	FieldTaggedFriends
)

var labels = map[FieldID]string{
	FieldName:          "Name",
	FieldBirthday:      "Birthday",
	FieldEmail:         "Email",
	FieldPhone:         "Phone",
	FieldLocation:      "Location",
	FieldOrganization:  "Organization",
	FieldSkills:        "Skills",
	FieldNotes:         "Notes",
	FieldTitle:         "Title",
	FieldDate:          "Date",
	FieldDescription:   "Description",
	FieldTaggedFriends: "Tagged friends",
}

func (f FieldID) Label() string {
	return labels[f]
}

// Field is one searchable piece of record text.
type Field struct {
	ID   FieldID `json:"id"`
	Text string  `json:"text"`
}

// Span is a [Start, End) byte range inside a field's text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Snippet is a field with the spans that matched search tokens.
type Snippet struct {
	Field Field  `json:"field"`
	Spans []Span `json:"spans"`
}

// FriendFields lists a friend's searchable fields in match priority order.
// Empty fields are skipped.
func FriendFields(f model.Friend, loc *time.Location) []Field {
	fields := make([]Field, 0, 8)
	add := func(id FieldID, text string) {
		if strings.TrimSpace(text) != "" {
			fields = append(fields, Field{ID: id, Text: text})
		}
	}

	add(FieldName, f.Name.Display())
	if f.Birthday != nil {
		add(FieldBirthday, f.Birthday.Time(loc).Format(model.DateLayout))
	}
	add(FieldEmail, f.Email)
	add(FieldPhone, f.Phone)
	if f.Address != nil {
		add(FieldLocation, f.Address.Location())
	}
	add(FieldOrganization, f.Organization)
	add(FieldSkills, strings.Join(f.Skills, ", "))

	notes := make([]string, 0, len(f.Notes))
	for _, n := range f.Notes {
		if n.Text != "" {
			notes = append(notes, n.Text)
		}
	}
	add(FieldNotes, strings.Join(notes, " "))

	return fields
}

// EventFields lists an event's searchable fields in match priority order.
func EventFields(e model.Event, loc *time.Location) []Field {
	fields := make([]Field, 0, 4)
	add := func(id FieldID, text string) {
		if strings.TrimSpace(text) != "" {
			fields = append(fields, Field{ID: id, Text: text})
		}
	}

	add(FieldTitle, e.Title)
	add(FieldDate, e.Date.Describe(loc))
	add(FieldDescription, e.Description)
	add(FieldTaggedFriends, strings.Join(e.RelatedFriends, ", "))

	return fields
}

// Match picks the first field containing any token (case-insensitive). Once
// a field is picked, later tokens only add spans inside that same field.
// Tag tokens are ignored.
func Match(fields []Field, tokens []string) (Snippet, bool) {
	var (
		s     Snippet
		found bool
	)
	for _, tok := range tokens {
		tok = lexical.Normalize(tok)
		if tok == "" || lexical.IsTag(tok) {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(tok))

		if found {
			if loc := re.FindStringIndex(s.Field.Text); loc != nil {
				s = AddSpan(s, Span{Start: loc[0], End: loc[1]})
			}
			continue
		}

		for _, f := range fields {
			if loc := re.FindStringIndex(f.Text); loc != nil {
				s = Snippet{Field: f, Spans: []Span{{Start: loc[0], End: loc[1]}}}
				found = true
				break
			}
		}
	}
	return s, found
}

// AddSpan returns s with sp merged into its spans. Overlapping and touching
// spans collapse; s is not modified.
func AddSpan(s Snippet, sp Span) Snippet {
	if sp.End <= sp.Start {
		return s
	}
	spans := make([]Span, 0, len(s.Spans)+1)
	spans = append(spans, s.Spans...)
	spans = append(spans, sp)
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	merged := spans[:1]
	for _, cur := range spans[1:] {
		last := &merged[len(merged)-1]
		if cur.Start <= last.End {
			if cur.End > last.End {
				last.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	return Snippet{Field: s.Field, Spans: merged}
}

// Highlight wraps every span of the field text in open/close.
func (s Snippet) Highlight(open, close string) string {
	text := s.Field.Text
	var b strings.Builder
	prev := 0
	for _, sp := range s.Spans {
		b.WriteString(text[prev:sp.Start])
		b.WriteString(open)
		b.WriteString(text[sp.Start:sp.End])
		b.WriteString(close)
		prev = sp.End
	}
	b.WriteString(text[prev:])
	return b.String()
}

// Render is "Label: highlighted text".
func (s Snippet) Render(open, close string) string {
	return s.Field.ID.Label() + ": " + s.Highlight(open, close)
}
