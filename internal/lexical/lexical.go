// Package lexical holds the token predicates used to classify search words.
package lexical

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

	// North-American numbers: 10 digits, optional parens around the area
	// code, optional '-', '.' or ' ' separators.
	phoneRe = regexp.MustCompile(`^(?:\(\d{3}\)|\d{3})[-. ]?\d{3}[-. ]?\d{4}$`)

	// Numeric and ordinal date shapes: 9/7, 9/7/2017, 2017-09-07, 7th.
	dateLikeRe = regexp.MustCompile(`^(?:\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?|\d{4}-\d{1,2}-\d{1,2}|\d{1,2}(?:st|nd|rd|th))$`)
)

// IsTag reports whether token is a "#tag" with a non-empty name.
func IsTag(token string) bool {
	return len(token) > 1 && token[0] == '#'
}

func IsEmail(token string) bool {
	return emailRe.MatchString(token)
}

func IsPhoneNumber(token string) bool {
	return phoneRe.MatchString(token)
}

// IsDateLike reports whether token has a numeric or ordinal date shape.
// It does not validate the calendar value.
func IsDateLike(token string) bool {
	return dateLikeRe.MatchString(strings.ToLower(Normalize(token)))
}

// Normalize trims surrounding whitespace and trailing sentence punctuation.
func Normalize(token string) string {
	return strings.TrimRight(strings.TrimSpace(token), ".,!?;:")
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
