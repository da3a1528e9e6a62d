package dateparse

import (
	"regexp"
	"sort"
	"strings"

	"rolodex/internal/lexical"
)

// role is what part of a date a fragment can describe.
type role int

const (
	roleStart role = iota
	roleEvery
	roleFor
)

type keywordKind int

const (
	notKeyword keywordKind = iota
	minorKeyword
	majorKeyword
)

// Fragments never span more than this many words once truncated; the longest
// date expressions seen are 4 words ("on September 18th 2017").
const maxFragmentWords = 4

var (
	wordRe = regexp.MustCompile(`\S+`)

	majorKeywords = map[string]struct{}{
		"starting": {}, "on": {}, "is": {}, "every": {}, "everyday": {}, "for": {}, "forever": {},
	}
	minorKeywords = map[string]struct{}{
		"next": {}, "this": {}, "today": {}, "tomorrow": {}, "yesterday": {},
	}
)

// fragment is a keyword-anchored run of words from one sentence.
type fragment struct {
	// text is the exact substring of the input, trailing punctuation dropped.
	text string
	// words are the normalized, lower-cased words of text.
	words []string
	role  role
}

type word struct {
	raw        string
	norm       string
	start, end int
}

func classify(norm string) keywordKind {
	if _, ok := majorKeywords[norm]; ok {
		return majorKeyword
	}
	if _, ok := minorKeywords[norm]; ok {
		return minorKeyword
	}
	return notKeyword
}

func roleOf(first string) role {
	switch first {
	case "every", "everyday":
		return roleEvery
	case "for", "forever":
		return roleFor
	default:
		return roleStart
	}
}

// splitSentences splits on ". " boundaries.
func splitSentences(text string) []string {
	parts := strings.Split(text, ". ")
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitWords(sentence string) []word {
	locs := wordRe.FindAllStringIndex(sentence, -1)
	words := make([]word, 0, len(locs))
	for _, loc := range locs {
		raw := sentence[loc[0]:loc[1]]
		trimmed := strings.TrimRight(raw, ".,!?;:")
		words = append(words, word{
			raw:   raw,
			norm:  strings.ToLower(lexical.Normalize(raw)),
			start: loc[0],
			end:   loc[0] + len(trimmed),
		})
	}
	return words
}

// spans returns [from, to) word ranges that start at keywords. A major
// keyword always opens a new span; a minor keyword only opens one when no
// span is in progress. A sentence without keywords is one unprefixed span.
func spans(words []word) [][2]int {
	var out [][2]int
	cur := -1
	for i, w := range words {
		switch classify(w.norm) {
		case majorKeyword:
			// "starting on Monday" stays one span.
			if cur >= 0 && i-cur == 1 && words[cur].norm == "starting" && (w.norm == "on" || w.norm == "is") {
				continue
			}
			if cur >= 0 {
				out = append(out, [2]int{cur, i})
			}
			cur = i
		case minorKeyword:
			if cur < 0 {
				cur = i
			}
		}
	}
	if cur >= 0 {
		out = append(out, [2]int{cur, len(words)})
	}
	if len(out) == 0 && len(words) > 0 {
		out = append(out, [2]int{0, len(words)})
	}
	return out
}

// segment turns text into candidate fragments, longest first. Every span
// also yields its leading 1..4-word prefixes so trailing clauses do not hide
// a shorter date.
func segment(text string) []fragment {
	var frags []fragment
	for _, sentence := range splitSentences(text) {
		words := splitWords(sentence)
		for _, sp := range spans(words) {
			from, to := sp[0], sp[1]
			n := to - from
			frags = append(frags, newFragment(sentence, words[from:to]))
			for k := min(maxFragmentWords, n-1); k >= 1; k-- {
				frags = append(frags, newFragment(sentence, words[from:from+k]))
			}
		}
	}

	sort.SliceStable(frags, func(i, j int) bool {
		if len(frags[i].words) != len(frags[j].words) {
			return len(frags[i].words) > len(frags[j].words)
		}
		return len(frags[i].text) > len(frags[j].text)
	})
	return frags
}

func newFragment(sentence string, ws []word) fragment {
	norms := make([]string, len(ws))
	for i, w := range ws {
		norms[i] = w.norm
	}
	return fragment{
		text:  sentence[ws[0].start:ws[len(ws)-1].end],
		words: norms,
		role:  roleOf(norms[0]),
	}
}
