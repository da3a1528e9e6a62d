package command

import (
	"strings"
	"time"

	"rolodex/internal/lexical"
	"rolodex/internal/model"
	"rolodex/internal/temporal"
)

// eventTriggers are the words that, alone, make a search look like an event.
// "is", "every", "for", "this" and "next" are left out: they need a real
// date word next to them.
var eventTriggers = map[string]struct{}{
	"starting":  {},
	"on":        {},
	"everyday":  {},
	"forever":   {},
	"today":     {},
	"tomorrow":  {},
	"yesterday": {},
}

// IsEventTrigger reports whether a single token marks a date phrase.
func IsEventTrigger(token string) bool {
	tok := strings.ToLower(lexical.Normalize(token))
	if tok == "" {
		return false
	}
	if _, ok := eventTriggers[tok]; ok {
		return true
	}
	if _, ok := temporal.Weekday(tok); ok {
		return true
	}
	if _, ok := temporal.Month(tok); ok {
		return true
	}
	if _, ok := temporal.Unit(tok); ok {
		return true
	}
	return lexical.IsDateLike(tok)
}

// ValidateAddEvent reports whether any token is an event trigger.
func ValidateAddEvent(tokens []string) bool {
	for _, t := range tokens {
		if IsEventTrigger(t) {
			return true
		}
	}
	return false
}

// ExtractAddEvent pulls tags, one date and a title out of tokens. ok is
// false when no date was found.
func ExtractAddEvent(tokens []string, dates DateParser, now time.Time) (AddEventArgs, bool) {
	var (
		args  AddEventArgs
		title []string
		found bool
	)
	// Work on a private copy; the date text is cut out of it below.
	rest := append([]string(nil), tokens...)

	for i := 0; i < len(rest); {
		tok := lexical.Normalize(rest[i])

		if lexical.IsTag(tok) {
			args.Tags = append(args.Tags, tok)
			i++
			continue
		}

		if !found && dates != nil {
			window := strings.Join(rest[i:], " ")
			if d, ok := dates.ParseAt(window, now); ok {
				if remaining, cut := removeAll(window, d.InputTexts()); cut {
					args.Date = d
					found = true
					rest = append(rest[:i:i], strings.Fields(remaining)...)
					continue
				}
			}
		}

		if tok != "" {
			title = append(title, rest[i])
		}
		i++
	}

	args.Title = lexical.Capitalize(lexical.Normalize(strings.Join(title, " ")))
	args.Tags = model.DedupeTags(args.Tags)
	return args, found
}

// removeAll deletes the first occurrence of each non-empty part from s.
// cut is false when nothing was removed.
func removeAll(s string, parts []string) (string, bool) {
	cut := false
	for _, p := range parts {
		if p == "" {
			continue
		}
		if idx := strings.Index(s, p); idx >= 0 {
			s = s[:idx] + s[idx+len(p):]
			cut = true
		}
	}
	return s, cut
}
