// Package command classifies a raw search string into add/query intents and
// extracts the typed payload for each.
package command

import (
	"fmt"
	"strings"
	"time"

	"rolodex/internal/model"
	"rolodex/internal/snippet"
)

// Kind identifies which interpretation a ParseResult carries.
type Kind int

const (
	KindAddFriend Kind = iota + 1
	KindAddEvent
	KindQueryFriend
	KindQueryEvent
)

func (k Kind) String() string {
	switch k {
	case KindAddFriend:
		return "add_friend"
	case KindAddEvent:
		return "add_event"
	case KindQueryFriend:
		return "query_friend"
	case KindQueryEvent:
		return "query_event"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// View is the screen a selected result routes to.
type View int

const (
	ViewAddFriend View = iota + 1
	ViewAddEvent
	ViewShowFriend
	ViewShowEvent
)

func (v View) String() string {
	switch v {
	case ViewAddFriend:
		return "add-friend"
	case ViewAddEvent:
		return "add-event"
	case ViewShowFriend:
		return "show-friend"
	case ViewShowEvent:
		return "show-event"
	default:
		return "unknown"
	}
}

func (v View) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Arguments is the payload of one of the four result kinds. The set is
// closed: only types in this package implement it.
type Arguments interface {
	kind() Kind
}

type AddFriendArgs struct {
	First     string           `json:"first,omitempty"`
	Last      string           `json:"last,omitempty"`
	Email     string           `json:"email,omitempty"`
	Phone     string           `json:"phone,omitempty"`
	Birthday  *model.Timestamp `json:"birthday,omitempty"`
	FirstNote string           `json:"firstNote,omitempty"`
	Tags      []string         `json:"tags"`
}

type AddEventArgs struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Date        model.ParsedDate `json:"date"`
	Tags        []string         `json:"tags"`
}

type QueryFriendArgs struct {
	Friend  model.Friend     `json:"friend"`
	Snippet *snippet.Snippet `json:"snippet,omitempty"`
	Tags    []string         `json:"tags"`
}

type QueryEventArgs struct {
	Event   model.Event      `json:"event"`
	Snippet *snippet.Snippet `json:"snippet,omitempty"`
	Tags    []string         `json:"tags"`
}

func (AddFriendArgs) kind() Kind   { return KindAddFriend }
func (AddEventArgs) kind() Kind    { return KindAddEvent }
func (QueryFriendArgs) kind() Kind { return KindQueryFriend }
func (QueryEventArgs) kind() Kind  { return KindQueryEvent }

// ParseResult is one suggested interpretation of a search string.
type ParseResult struct {
	Kind        Kind      `json:"kind"`
	Header      string    `json:"header"`
	Description string    `json:"description"`
	LeadsTo     View      `json:"leadsTo"`
	Arguments   Arguments `json:"arguments"`
}

// Format controls how descriptions are rendered.
type Format struct {
	Location *time.Location
	Open     string
	Close    string
}

// DefaultFormat highlights with <b></b> in the local zone.
func DefaultFormat() Format {
	return Format{Location: time.Local, Open: "<b>", Close: "</b>"}
}

const descriptionSep = " · "

// Build derives header, description and view from args.
func Build(args Arguments, f Format) ParseResult {
	if f.Location == nil {
		f.Location = time.Local
	}
	r := ParseResult{Kind: args.kind(), Arguments: args}

	switch a := args.(type) {
	case AddFriendArgs:
		r.LeadsTo = ViewAddFriend
		r.Header = strings.TrimSpace("Add friend " + strings.TrimSpace(a.First+" "+a.Last))
		parts := make([]string, 0, 5)
		if a.Birthday != nil {
			parts = append(parts, "Birthday "+a.Birthday.Time(f.Location).Format(model.DateLayout))
		}
		parts = appendNonEmpty(parts, a.Email, a.Phone, a.FirstNote, strings.Join(a.Tags, " "))
		r.Description = strings.Join(parts, descriptionSep)
	case AddEventArgs:
		r.LeadsTo = ViewAddEvent
		r.Header = "Add event"
		if a.Title != "" {
			r.Header = fmt.Sprintf("Add event %q", a.Title)
		}
		r.Description = strings.Join(
			appendNonEmpty(nil, a.Date.Describe(f.Location), strings.Join(a.Tags, " ")),
			descriptionSep,
		)
	case QueryFriendArgs:
		r.LeadsTo = ViewShowFriend
		r.Header = a.Friend.Name.Display()
		r.Description = queryDescription(a.Snippet, a.Tags, f)
	case QueryEventArgs:
		r.LeadsTo = ViewShowEvent
		r.Header = a.Event.Title
		r.Description = queryDescription(a.Snippet, a.Tags, f)
	default:
		panic(fmt.Sprintf("command: unhandled arguments %T", args))
	}
	return r
}

func queryDescription(s *snippet.Snippet, tags []string, f Format) string {
	parts := make([]string, 0, 2)
	if s != nil {
		parts = append(parts, s.Render(f.Open, f.Close))
	}
	parts = appendNonEmpty(parts, strings.Join(tags, " "))
	return strings.Join(parts, descriptionSep)
}

func appendNonEmpty(dst []string, vals ...string) []string {
	for _, v := range vals {
		if v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}
