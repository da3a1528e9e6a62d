package command

import (
	"time"

	"rolodex/internal/lexical"
	"rolodex/internal/model"
	"rolodex/internal/snippet"
)

// ValidateQuery accepts any non-empty token list.
func ValidateQuery(tokens []string) bool {
	return len(tokens) > 0
}

// ExtractQueryFriend explains why f matched tokens.
func ExtractQueryFriend(f model.Friend, tokens []string, loc *time.Location) QueryFriendArgs {
	args := QueryFriendArgs{Friend: f, Tags: matchedTags(f.Tags, tokens)}
	if s, ok := snippet.Match(snippet.FriendFields(f, loc), tokens); ok {
		args.Snippet = &s
	}
	return args
}

// ExtractQueryEvent explains why e matched tokens.
func ExtractQueryEvent(e model.Event, tokens []string, loc *time.Location) QueryEventArgs {
	args := QueryEventArgs{Event: e, Tags: matchedTags(e.Tags, tokens)}
	if s, ok := snippet.Match(snippet.EventFields(e, loc), tokens); ok {
		args.Snippet = &s
	}
	return args
}

// matchedTags keeps the tag tokens the record carries verbatim.
func matchedTags(recordTags, tokens []string) []string {
	out := make([]string, 0)
	for _, t := range tokens {
		t = lexical.Normalize(t)
		if lexical.IsTag(t) && model.HasTag(recordTags, t) {
			out = append(out, t)
		}
	}
	return model.DedupeTags(out)
}
