package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"

	"rolodex/internal/command"
	"rolodex/internal/config"
	"rolodex/internal/dateparse"
	"rolodex/internal/ics"
	appLog "rolodex/internal/log"
	"rolodex/internal/model"
	"rolodex/internal/reminder"
	"rolodex/internal/store"
)

// Store is the record store behind the API.
type Store interface {
	command.Searcher
	AddFriend(ctx context.Context, f model.Friend) (model.Friend, error)
	AddEvent(ctx context.Context, e model.Event) (model.Event, error)
	Friend(userID, id string) (model.Friend, error)
	Event(userID, id string) (model.Event, error)
	Events(userID string) []model.Event
}

// Server provides the JSON API over parsing, search and records.
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	store  Store
	dates  *dateparse.Parser
	parser *command.Parser
	loc    *time.Location
	now    func() time.Time

	// One in-flight search per user; a newer one cancels the older.
	sessionsMu sync.Mutex
	sessions   *lru.Cache[string, inflight]
	seq        atomic.Uint64

	// In-memory cache for /api/upcoming, dropped on every write.
	upcomingMu    sync.RWMutex
	upcomingCache map[string]upcomingCache
}

type inflight struct {
	id     uint64
	cancel context.CancelFunc
}

type upcomingCache struct {
	resp      upcomingResponse
	days      int
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st Store) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	loc := cfg.Location()
	dates := dateparse.New(loc, cfg.WeekStartDay())

	sessions, err := lru.New[string, inflight](max(cfg.MaxSessions, 1))
	if err != nil {
		return nil, errors.Wrap(err, "create session table")
	}

	s := &Server{
		cfg:   cfg,
		mux:   http.NewServeMux(),
		store: st,
		dates: dates,
		parser: command.New(dates, st, command.Format{
			Location: loc,
			Open:     cfg.Highlight.Open,
			Close:    cfg.Highlight.Close,
		}),
		loc:           loc,
		now:           time.Now,
		sessions:      sessions,
		upcomingCache: make(map[string]upcomingCache),
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := logRequests(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials count as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Rolodex", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/parse", s.handleParse)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("POST /api/friends", s.handleAddFriend)
	s.mux.HandleFunc("GET /api/friends/{id}", s.handleGetFriend)
	s.mux.HandleFunc("POST /api/events", s.handleAddEvent)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("GET /api/upcoming", s.handleUpcoming)
	s.mux.HandleFunc("GET /api/calendar.ics", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// parseResponse is the JSON response shape for /api/parse.
type parseResponse struct {
	Found       bool              `json:"found"`
	Date        *model.ParsedDate `json:"date,omitempty"`
	Description string            `json:"description,omitempty"`
}

// handleParse reads a free-text date.
//
// GET /api/parse?text=lunch+on+friday
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	d, ok := s.dates.ParseAt(text, s.now())
	if !ok {
		writeJSON(w, http.StatusOK, parseResponse{Found: false})
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{Found: true, Date: &d, Description: d.Describe(s.loc)})
}

type searchResponse struct {
	Results []command.ParseResult `json:"results"`
}

// handleSearch classifies q and merges full-text matches.
//
// GET /api/search?user=u1&q=add+Joe
//
// A newer search from the same user cancels this one; the canceled request
// gets 409.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := q.Get("user")

	ctx, done := s.beginSearch(r.Context(), user)
	defer done()

	results, err := s.parser.Parse(ctx, user, q.Get("q"))
	if err != nil {
		if errors.Is(err, context.Canceled) && r.Context().Err() == nil {
			writeError(w, http.StatusConflict, "superseded by a newer search")
			return
		}
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// beginSearch registers a cancelable search for user, canceling the user's
// previous one if it is still running.
func (s *Server) beginSearch(parent context.Context, user string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	if user == "" {
		return ctx, cancel
	}
	id := s.seq.Add(1)

	s.sessionsMu.Lock()
	if prev, ok := s.sessions.Peek(user); ok {
		prev.cancel()
	}
	s.sessions.Add(user, inflight{id: id, cancel: cancel})
	s.sessionsMu.Unlock()

	return ctx, func() {
		s.sessionsMu.Lock()
		if cur, ok := s.sessions.Peek(user); ok && cur.id == id {
			s.sessions.Remove(user)
		}
		s.sessionsMu.Unlock()
		cancel()
	}
}

// addFriendRequest carries either free text ("add Joe 555-...") or a full
// record.
type addFriendRequest struct {
	UserID string        `json:"userId"`
	Text   string        `json:"text,omitempty"`
	Friend *model.Friend `json:"friend,omitempty"`
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req addFriendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var f model.Friend
	switch {
	case req.Friend != nil:
		f = *req.Friend
	case req.Text != "":
		tokens := strings.Fields(req.Text)
		if !command.ValidateAddFriend(tokens) {
			tokens = append([]string{"add"}, tokens...)
		}
		f = store.FriendFromArgs(req.UserID, command.ExtractAddFriend(tokens, s.dates, s.now()))
	default:
		writeError(w, http.StatusBadRequest, "text or friend is required")
		return
	}
	f.UserID = req.UserID

	saved, err := s.store.AddFriend(r.Context(), f)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type addEventRequest struct {
	UserID string       `json:"userId"`
	Text   string       `json:"text,omitempty"`
	Event  *model.Event `json:"event,omitempty"`
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req addEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var e model.Event
	switch {
	case req.Event != nil:
		e = *req.Event
	case req.Text != "":
		args, ok := command.ExtractAddEvent(strings.Fields(req.Text), s.dates, s.now())
		if !ok {
			writeError(w, http.StatusBadRequest, "no date found in text")
			return
		}
		e = store.EventFromArgs(req.UserID, args)
	default:
		writeError(w, http.StatusBadRequest, "text or event is required")
		return
	}
	e.UserID = req.UserID

	saved, err := s.store.AddEvent(r.Context(), e)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.invalidateUpcoming(saved.UserID)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetFriend(w http.ResponseWriter, r *http.Request) {
	f, err := s.store.Friend(r.URL.Query().Get("user"), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.Event(r.URL.Query().Get("user"), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// upcomingResponse is the JSON response shape for /api/upcoming.
type upcomingResponse struct {
	Occurrences     []model.Occurrence `json:"occurrences"`
	RangeStart      time.Time          `json:"range_start"`
	RangeEnd        time.Time          `json:"range_end"`
	DisplayTimeZone string             `json:"display_timezone"`
}

// handleUpcoming returns the user's occurrences from today on.
//
// GET /api/upcoming?user=u1&days=7
//   - days: how many days ahead to look (default horizon_days)
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := q.Get("user")
	if user == "" {
		writeErr(w, command.ErrMissingUser)
		return
	}
	days := parseIntDefault(q.Get("days"), s.cfg.HorizonDays)
	if days <= 0 {
		days = s.cfg.HorizonDays
	}

	const upcomingCacheTTL = 30 * time.Second
	now := s.now()

	s.upcomingMu.RLock()
	uc, ok := s.upcomingCache[user]
	s.upcomingMu.RUnlock()
	if ok && uc.days == days && now.Sub(uc.updatedAt) < upcomingCacheTTL {
		writeJSON(w, http.StatusOK, uc.resp)
		return
	}

	from, to := reminder.Window(now, days, s.loc)
	resp := upcomingResponse{
		Occurrences:     reminder.Upcoming(s.store.Events(user), now, days, s.loc),
		RangeStart:      from,
		RangeEnd:        to,
		DisplayTimeZone: s.loc.String(),
	}

	s.upcomingMu.Lock()
	s.upcomingCache[user] = upcomingCache{resp: resp, days: days, updatedAt: now}
	s.upcomingMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) invalidateUpcoming(user string) {
	s.upcomingMu.Lock()
	delete(s.upcomingCache, user)
	s.upcomingMu.Unlock()
}

// handleCalendar exports the user's events as an ICS feed.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeErr(w, command.ErrMissingUser)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := ics.Export(w, "Rolodex", s.store.Events(user), s.loc, s.now()); err != nil {
		appLog.Error("calendar export failed", err, "user", user)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// writeErr maps domain errors onto status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, command.ErrEmptySearch),
		errors.Is(err, command.ErrMissingUser),
		errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		appLog.Error("request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
