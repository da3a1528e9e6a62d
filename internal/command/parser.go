package command

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	appLog "rolodex/internal/log"
	"rolodex/internal/model"
)

var (
	ErrEmptySearch = errors.New("search term is empty")
	ErrMissingUser = errors.New("user id is missing")
)

// Searcher is the full-text store queried for existing records.
type Searcher interface {
	SearchFriends(ctx context.Context, userID string, tokens []string) ([]model.Friend, error)
	SearchEvents(ctx context.Context, userID string, tokens []string) ([]model.Event, error)
}

// Parser turns a raw search string into an ordered list of suggestions.
// It keeps no state between calls.
type Parser struct {
	Dates  DateParser
	Search Searcher
	Format Format
	// Now defaults to time.Now.
	Now func() time.Time
}

func New(dates DateParser, search Searcher, format Format) *Parser {
	return &Parser{Dates: dates, Search: search, Format: format, Now: time.Now}
}

// Parse returns AddFriend, AddEvent, friend matches and event matches, in
// that order. Search failures are logged and count as no matches.
func (p *Parser) Parse(ctx context.Context, userID, search string) ([]ParseResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.WithHint(ErrMissingUser, "pass the id of the user searching")
	}
	tokens := strings.Fields(search)
	if len(tokens) == 0 {
		return nil, errors.WithHint(ErrEmptySearch, "type something to search for")
	}

	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	results := make([]ParseResult, 0, 4)
	if ValidateAddFriend(tokens) {
		results = append(results, Build(ExtractAddFriend(tokens, p.Dates, now), p.Format))
	}
	if ValidateAddEvent(tokens) {
		if args, ok := ExtractAddEvent(tokens, p.Dates, now); ok {
			results = append(results, Build(args, p.Format))
		}
	}

	if p.Search == nil || !ValidateQuery(tokens) {
		return results, nil
	}

	friends, events, err := p.searchBoth(ctx, userID, tokens)
	if err != nil {
		return nil, err
	}
	for _, f := range friends {
		results = append(results, Build(ExtractQueryFriend(f, tokens, p.Format.Location), p.Format))
	}
	for _, e := range events {
		results = append(results, Build(ExtractQueryEvent(e, tokens, p.Format.Location), p.Format))
	}

	appLog.Debug("search parsed",
		"user", userID,
		"tokens", len(tokens),
		"friends", len(friends),
		"events", len(events),
		"results", len(results),
	)
	return results, nil
}

// searchBoth runs both lookups concurrently. Only cancellation of ctx is
// returned as an error.
func (p *Parser) searchBoth(ctx context.Context, userID string, tokens []string) ([]model.Friend, []model.Event, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		friends []model.Friend
		events  []model.Event
	)

	g.Go(func() error {
		found, err := p.Search.SearchFriends(gctx, userID, tokens)
		if err != nil {
			appLog.Error("friend search failed", err, "user", userID)
			return nil
		}
		friends = found
		return nil
	})
	g.Go(func() error {
		found, err := p.Search.SearchEvents(gctx, userID, tokens)
		if err != nil {
			appLog.Error("event search failed", err, "user", userID)
			return nil
		}
		events = found
		return nil
	})

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "search canceled")
	}
	return friends, events, nil
}
