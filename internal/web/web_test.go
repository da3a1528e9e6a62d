package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/command"
	"rolodex/internal/config"
	"rolodex/internal/model"
	"rolodex/internal/store"
)

// Monday, October 19 2026.
var fixedNow = time.Date(2026, time.October, 19, 15, 4, 5, 0, time.UTC)

func (s *Server) setClock(now func() time.Time) {
	s.now = now
	s.dates.Now = now
	s.parser.Now = now
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.Normalize()
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *store.Store) {
	t.Helper()
	st, err := store.New(time.UTC, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s, err := NewServer(cfg, st)
	require.NoError(t, err)
	s.setClock(func() time.Time { return fixedNow })
	return s, st
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "me", Password: "secret"}
	s, _ := newTestServer(t, cfg)
	h := s.Handler()

	// Health stays open.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)

	rec := do(t, h, http.MethodGet, "/api/parse?text=today", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Rolodex")

	req := httptest.NewRequest(http.MethodGet, "/api/parse?text=today", nil)
	req.SetBasicAuth("me", "secret")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestParseEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(t, s.Handler(), http.MethodGet, "/api/parse?text="+url.QueryEscape("Josh's birthday on September 7th every year"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp parseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	require.NotNil(t, resp.Date)
	assert.True(t, resp.Date.Recurrence.IsRecurrent)
	assert.Equal(t, "September 7, 2026, every year, forever", resp.Description)

	rec = do(t, s.Handler(), http.MethodGet, "/api/parse?text=nothing+here", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
}

type searchResult struct {
	Kind        string `json:"kind"`
	Header      string `json:"header"`
	Description string `json:"description"`
	LeadsTo     string `json:"leadsTo"`
}

func TestSearchEndpoint(t *testing.T) {
	// Given a stored friend
	s, st := newTestServer(t, testConfig())
	_, err := st.AddFriend(context.Background(), model.Friend{UserID: "u1", Name: model.Name{First: "Joe", Last: "Schmoe"}})
	require.NoError(t, err)

	// When searching for him with an add intent
	rec := do(t, s.Handler(), http.MethodGet, "/api/search?user=u1&q="+url.QueryEscape("add Joe tomorrow"), "")

	// Then add suggestions come before the match
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results []searchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "add_friend", resp.Results[0].Kind)
	assert.Equal(t, "add_event", resp.Results[1].Kind)
	assert.Equal(t, "query_friend", resp.Results[2].Kind)
	assert.Equal(t, "show-friend", resp.Results[2].LeadsTo)
	assert.Equal(t, "Name: <b>Joe</b> Schmoe", resp.Results[2].Description)
}

func TestSearchEndpoint_InvalidInvocation(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	assert.Equal(t, http.StatusBadRequest, do(t, s.Handler(), http.MethodGet, "/api/search?user=u1&q=", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s.Handler(), http.MethodGet, "/api/search?q=joe", "").Code)
}

func TestBeginSearch_Supersedes(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	first, doneFirst := s.beginSearch(context.Background(), "u1")
	second, doneSecond := s.beginSearch(context.Background(), "u1")
	other, doneOther := s.beginSearch(context.Background(), "u2")

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.NoError(t, other.Err())

	// Finishing the stale search must not drop the newer registration.
	doneFirst()
	_, ok := s.sessions.Peek("u1")
	assert.True(t, ok)

	doneSecond()
	_, ok = s.sessions.Peek("u1")
	assert.False(t, ok)
	doneOther()
}

func TestAddFriendAndEvent(t *testing.T) {
	s, st := newTestServer(t, testConfig())
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/friends", `{"userId":"u1","text":"Joe Schmoe 455-444-4455 #work"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var f model.Friend
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, "Joe", f.Name.First)
	assert.Equal(t, "455-444-4455", f.Phone)
	assert.Equal(t, []string{"#work"}, f.Tags)

	rec = do(t, h, http.MethodGet, "/api/friends/"+f.ID+"?user=u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/friends/"+f.ID+"?user=u2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/events", `{"userId":"u1","text":"Lunch with Joe on Friday"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var e model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "Lunch with Joe", e.Title)
	assert.Equal(t, model.TimestampOf(time.Date(2026, time.October, 23, 0, 0, 0, 0, time.UTC)), e.Date.StartDate)

	got, err := st.Event("u1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)

	rec = do(t, h, http.MethodPost, "/api/events", `{"userId":"u1","text":"nothing to see"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/events", `{"userId":"","event":{"title":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/friends", `{"bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpcomingAndCalendar(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/events", `{"userId":"u1","text":"Standup starting tomorrow every day for 1 week #work"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/upcoming?user=u1&days=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var up upcomingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	// Today (19th) has nothing; the 20th and 21st do.
	require.Len(t, up.Occurrences, 2)
	assert.Equal(t, "Standup", up.Occurrences[0].Title)
	assert.Equal(t, "UTC", up.DisplayTimeZone)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/upcoming", "").Code)

	rec = do(t, h, http.MethodGet, "/api/calendar.ics?user=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "SUMMARY:Standup")
	assert.Contains(t, rec.Body.String(), "CATEGORIES:work")
}

func TestWriteErr(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, command.ErrEmptySearch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	writeErr(rec, store.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	writeErr(rec, context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}
