package command

import (
	"strings"
	"time"

	"rolodex/internal/lexical"
	"rolodex/internal/model"
)

// DateParser reads a date out of free text relative to now.
type DateParser interface {
	ParseAt(text string, now time.Time) (model.ParsedDate, bool)
}

// Longest birthday window tried, e.g. "on September 7th 1990".
const maxBirthdayWords = 4

// ValidateAddFriend reports whether tokens start with "add" or "met".
func ValidateAddFriend(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	switch strings.ToLower(lexical.Normalize(tokens[0])) {
	case "add", "met":
		return true
	default:
		return false
	}
}

// ExtractAddFriend classifies the tokens after the trigger word. Each token
// is tried as tag, email, phone, birthday, first name, last name, in that
// order; anything left over becomes the first note.
func ExtractAddFriend(tokens []string, dates DateParser, now time.Time) AddFriendArgs {
	var (
		args AddFriendArgs
		note []string
	)
	if len(tokens) > 0 {
		tokens = tokens[1:]
	}

	for i := 0; i < len(tokens); {
		raw := tokens[i]
		tok := lexical.Normalize(raw)

		switch {
		case tok == "":
			i++
		case lexical.IsTag(tok):
			args.Tags = append(args.Tags, tok)
			i++
		case args.Email == "" && lexical.IsEmail(tok):
			args.Email = tok
			i++
		case args.Phone == "" && lexical.IsPhoneNumber(tok):
			args.Phone = tok
			i++
		default:
			if args.Birthday == nil && dates != nil {
				if ts, n := birthdayAt(tokens, i, dates, now); n > 0 {
					args.Birthday = &ts
					i += n
					continue
				}
			}
			switch {
			case args.First == "":
				args.First = lexical.Capitalize(tok)
			case args.Last == "":
				args.Last = lexical.Capitalize(tok)
			default:
				note = append(note, raw)
			}
			i++
		}
	}

	args.FirstNote = strings.Join(note, " ")
	args.Tags = model.DedupeTags(args.Tags)
	return args
}

// birthdayAt tries windows of maxBirthdayWords..1 tokens starting at i and
// returns the date and how many tokens it used. The matched text has to
// begin the window so the tokens consumed are exactly the date's.
func birthdayAt(tokens []string, i int, dates DateParser, now time.Time) (model.Timestamp, int) {
	for w := maxBirthdayWords; w >= 1; w-- {
		if i+w > len(tokens) {
			continue
		}
		window := strings.Join(tokens[i:i+w], " ")
		d, ok := dates.ParseAt(window, now)
		if !ok || d.StartInputText == "" || !strings.HasPrefix(window, d.StartInputText) {
			continue
		}
		n := len(strings.Fields(d.StartInputText))
		if n == 0 || n > w {
			continue
		}
		return d.StartDate, n
	}
	return 0, 0
}
