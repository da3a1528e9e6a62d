package model

import "strings"

// Name is a friend's name as entered.
type Name struct {
	First       string `json:"first" yaml:"first"`
	Last        string `json:"last,omitempty" yaml:"last,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"display_name,omitempty"`
}

// Display returns DisplayName, or "First Last" when it is unset.
func (n Name) Display() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return strings.TrimSpace(n.First + " " + n.Last)
}

type Address struct {
	Street  string `json:"street,omitempty" yaml:"street,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Location joins the non-empty address parts, city first.
func (a Address) Location() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.City, a.State, a.Country, a.Street} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Note struct {
	Text string `json:"text" yaml:"text"`
}

// Friend is a person record owned by a user.
type Friend struct {
	ID           string     `json:"id" yaml:"id"`
	UserID       string     `json:"userId" yaml:"user_id"`
	Name         Name       `json:"name" yaml:"name"`
	Birthday     *Timestamp `json:"birthday,omitempty" yaml:"birthday,omitempty"`
	Email        string     `json:"email,omitempty" yaml:"email,omitempty"`
	Phone        string     `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address      *Address   `json:"address,omitempty" yaml:"address,omitempty"`
	Organization string     `json:"organization,omitempty" yaml:"organization,omitempty"`
	Skills       []string   `json:"skills,omitempty" yaml:"skills,omitempty"`
	Notes        []Note     `json:"notes,omitempty" yaml:"notes,omitempty"`
	Tags         []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Event is a dated item owned by a user, optionally tied to friends.
type Event struct {
	ID             string     `json:"id" yaml:"id"`
	UserID         string     `json:"userId" yaml:"user_id"`
	Title          string     `json:"title" yaml:"title"`
	Date           ParsedDate `json:"date" yaml:"date"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	RelatedFriends []string   `json:"relatedFriends,omitempty" yaml:"related_friends,omitempty"`
	Tags           []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// HasTag reports whether tag is present verbatim.
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DedupeTags removes repeated tags keeping the first occurrence.
func DedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
