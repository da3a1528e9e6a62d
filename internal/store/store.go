// Package store keeps friends and events in memory behind a bleve full-text
// index scoped per user.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	appLog "rolodex/internal/log"
	"rolodex/internal/model"
	"rolodex/internal/snippet"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrInvalid  = errors.New("invalid record")
	ErrClosed   = errors.New("store is closed")
)

const (
	kindFriend = "friend"
	kindEvent  = "event"

	DefaultLimit = 20
)

// indexDoc is what bleve sees for each record.
type indexDoc struct {
	Owner string `json:"owner"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	index   bleve.Index
	friends map[string]model.Friend
	events  map[string]model.Event
	closed  bool

	loc   *time.Location
	limit int
}

// New creates an empty in-memory store. limit caps search hits per kind;
// zero means DefaultLimit.
func New(loc *time.Location, limit int) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	idx, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return nil, errors.Wrap(err, "create index")
	}
	return &Store{
		index:   idx,
		friends: make(map[string]model.Friend),
		events:  make(map[string]model.Event),
		loc:     loc,
		limit:   limit,
	}, nil
}

func indexMapping() *mapping.IndexMappingImpl {
	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("owner", mapping.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt("kind", mapping.NewKeywordFieldMapping())

	text := mapping.NewTextFieldMapping()
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt("text", text)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}

// AddFriend validates, assigns an ID when missing and indexes f.
func (s *Store) AddFriend(ctx context.Context, f model.Friend) (model.Friend, error) {
	if strings.TrimSpace(f.UserID) == "" {
		return model.Friend{}, errors.Wrap(ErrInvalid, "friend has no user id")
	}
	if strings.TrimSpace(f.Name.First) == "" && strings.TrimSpace(f.Name.DisplayName) == "" {
		return model.Friend{}, errors.WithHint(errors.Wrap(ErrInvalid, "friend has no name"), "set at least a first name")
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.Tags = model.DedupeTags(f.Tags)

	text := fieldText(snippet.FriendFields(f, s.loc), f.Tags)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Friend{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return model.Friend{}, err
	}
	if err := s.index.Index(f.ID, indexDoc{Owner: f.UserID, Kind: kindFriend, Text: text}); err != nil {
		return model.Friend{}, errors.Wrapf(err, "index friend %s", f.ID)
	}
	s.friends[f.ID] = f
	appLog.Debug("friend stored", "user", f.UserID, "id", f.ID)
	return f, nil
}

// AddEvent validates, assigns an ID when missing and indexes e.
func (s *Store) AddEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if strings.TrimSpace(e.UserID) == "" {
		return model.Event{}, errors.Wrap(ErrInvalid, "event has no user id")
	}
	if strings.TrimSpace(e.Title) == "" {
		return model.Event{}, errors.WithHint(errors.Wrap(ErrInvalid, "event has no title"), "give the event a title")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Tags = model.DedupeTags(e.Tags)

	text := fieldText(snippet.EventFields(e, s.loc), e.Tags)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Event{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return model.Event{}, err
	}
	if err := s.index.Index(e.ID, indexDoc{Owner: e.UserID, Kind: kindEvent, Text: text}); err != nil {
		return model.Event{}, errors.Wrapf(err, "index event %s", e.ID)
	}
	s.events[e.ID] = e
	appLog.Debug("event stored", "user", e.UserID, "id", e.ID)
	return e, nil
}

func fieldText(fields []snippet.Field, tags []string) string {
	parts := make([]string, 0, len(fields)+len(tags))
	for _, f := range fields {
		parts = append(parts, f.Text)
	}
	parts = append(parts, tags...)
	return strings.Join(parts, "\n")
}

// Friend returns the user's friend with id.
func (s *Store) Friend(userID, id string) (model.Friend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.friends[id]
	if !ok || f.UserID != userID {
		return model.Friend{}, errors.Wrapf(ErrNotFound, "friend %s", id)
	}
	return f, nil
}

// Event returns the user's event with id.
func (s *Store) Event(userID, id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok || e.UserID != userID {
		return model.Event{}, errors.Wrapf(ErrNotFound, "event %s", id)
	}
	return e, nil
}

// Friends lists the user's friends by display name.
func (s *Store) Friends(userID string) []model.Friend {
	s.mu.RLock()
	out := make([]model.Friend, 0)
	for _, f := range s.friends {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Name.Display(), out[j].Name.Display()
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Events lists the user's events by start date.
func (s *Store) Events(userID string) []model.Event {
	s.mu.RLock()
	out := make([]model.Event, 0)
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sortEvents(out)
	return out
}

func sortEvents(events []model.Event) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Date.StartDate != b.Date.StartDate {
			return a.Date.StartDate < b.Date.StartDate
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}

// Users lists every user that owns at least one record.
func (s *Store) Users() []string {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, f := range s.friends {
		seen[f.UserID] = struct{}{}
	}
	for _, e := range s.events {
		seen[e.UserID] = struct{}{}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// SearchFriends returns the user's friends matching any token, best first.
func (s *Store) SearchFriends(ctx context.Context, userID string, tokens []string) ([]model.Friend, error) {
	ids, err := s.search(ctx, userID, kindFriend, tokens)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Friend, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.friends[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// SearchEvents returns the user's events matching any token, best first.
func (s *Store) SearchEvents(ctx context.Context, userID string, tokens []string) ([]model.Event, error) {
	ids, err := s.search(ctx, userID, kindEvent, tokens)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.events[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) search(ctx context.Context, userID, kind string, tokens []string) ([]string, error) {
	terms := tokenQueries(tokens)
	if len(terms) == 0 || userID == "" {
		return []string{}, nil
	}

	anyTerm := bleve.NewDisjunctionQuery(terms...)
	anyTerm.SetMin(1)

	owner := bleve.NewTermQuery(userID)
	owner.SetField("owner")
	k := bleve.NewTermQuery(kind)
	k.SetField("kind")

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(owner, k, anyTerm))
	req.Size = s.limit

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	idx := s.index
	s.mu.RUnlock()

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "search %ss", kind)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// tokenQueries matches each token as analyzed text and as a lower-case
// prefix, so partially typed words still hit.
func tokenQueries(tokens []string) []query.Query {
	out := make([]query.Query, 0, len(tokens)*2)
	for _, tok := range tokens {
		tok = strings.TrimLeft(strings.TrimSpace(tok), "#")
		if tok == "" {
			continue
		}
		m := bleve.NewMatchQuery(tok)
		m.SetField("text")
		out = append(out, m)

		if p := strings.ToLower(tok); len(p) >= 2 && isWord(p) {
			pq := bleve.NewPrefixQuery(p)
			pq.SetField("text")
			out = append(out, pq)
		}
	}
	return out
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
