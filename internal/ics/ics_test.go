package ics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"rolodex/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func recurring(start time.Time, every model.Pattern, alternating bool, forP *model.Pattern) model.ParsedDate {
	d := model.ParsedDate{
		StartDate: model.TimestampOf(start),
		Recurrence: model.Recurrence{
			IsRecurrent: true,
			RecurEvery:  &model.RecurEvery{Pattern: every, IsAlternating: alternating},
		},
	}
	if forP == nil {
		d.Recurrence.RecurFor = &model.RecurFor{IsForever: true}
		d.EndDate = model.Forever
	} else {
		d.Recurrence.RecurFor = &model.RecurFor{Pattern: forP}
		switch forP.Interval {
		case model.Week:
			d.EndDate = model.TimestampOf(start.AddDate(0, 0, 7*int(forP.Amount)))
		default:
			d.EndDate = model.TimestampOf(start.AddDate(0, 0, int(forP.Amount)))
		}
	}
	return d
}

func starts(occ []model.Occurrence) []time.Time {
	out := make([]time.Time, 0, len(occ))
	for _, o := range occ {
		out = append(out, o.Start)
	}
	return out
}

func TestRuleFor(t *testing.T) {
	_, ok := RuleFor(model.ParsedDate{}, time.UTC)
	assert.False(t, ok)

	d := recurring(day(2026, 10, 21), model.Pattern{Amount: 1, Interval: model.Week}, true, &model.Pattern{Amount: 4, Interval: model.Week})
	opt, ok := RuleFor(d, time.UTC)
	require.True(t, ok)
	assert.Equal(t, rrule.WEEKLY, opt.Freq)
	assert.Equal(t, 2, opt.Interval)
	assert.Equal(t, day(2026, 11, 17).Add(24*time.Hour-time.Second), opt.Until)
}

func TestOccurrences_FiniteDuration(t *testing.T) {
	// Given "every day for 1 week" starting Oct 20
	e := model.Event{ID: "e1", Title: "Standup",
		Date: recurring(day(2026, 10, 20), model.Pattern{Amount: 1, Interval: model.Day}, false, &model.Pattern{Amount: 7, Interval: model.Day})}

	// When expanded over a wide window
	occ, truncated, err := Occurrences(e, ExpandConfig{DisplayLocation: time.UTC, RangeStart: day(2026, 1, 1), RangeEnd: day(2027, 1, 1)})

	// Then exactly seven days come back
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, occ, 7)
	assert.Equal(t, day(2026, 10, 20), occ[0].Start)
	assert.Equal(t, day(2026, 10, 26), occ[6].Start)
	assert.Equal(t, "e1/2026-10-20", occ[0].InstanceKey)
}

func TestOccurrences_Alternating(t *testing.T) {
	e := model.Event{ID: "e1", Title: "Book club",
		Date: recurring(day(2026, 10, 21), model.Pattern{Amount: 1, Interval: model.Week}, true, &model.Pattern{Amount: 4, Interval: model.Week})}

	occ, _, err := Occurrences(e, ExpandConfig{DisplayLocation: time.UTC, RangeStart: day(2026, 10, 1), RangeEnd: day(2026, 12, 31)})

	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2026, 10, 21), day(2026, 11, 4)}, starts(occ))
}

func TestOccurrences_OneTime(t *testing.T) {
	at := day(2026, 10, 23)
	e := model.Event{ID: "e1", Title: "Lunch", Date: model.ParsedDate{StartDate: model.TimestampOf(at), EndDate: model.TimestampOf(at)}}

	occ, _, err := Occurrences(e, ExpandConfig{DisplayLocation: time.UTC, RangeStart: day(2026, 10, 19), RangeEnd: day(2026, 10, 26)})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at}, starts(occ))

	occ, _, err = Occurrences(e, ExpandConfig{DisplayLocation: time.UTC, RangeStart: day(2026, 11, 1), RangeEnd: day(2026, 11, 8)})
	require.NoError(t, err)
	assert.Empty(t, occ)

	_, _, err = Occurrences(e, ExpandConfig{RangeStart: day(2026, 11, 8), RangeEnd: day(2026, 11, 1)})
	assert.Error(t, err)
}

func TestExpandEvents_CapAndOrder(t *testing.T) {
	daily := model.Event{ID: "daily", Title: "Water plants",
		Date: recurring(day(2026, 1, 1), model.Pattern{Amount: 1, Interval: model.Day}, false, nil)}
	once := model.Event{ID: "once", Title: "Dentist",
		Date: model.ParsedDate{StartDate: model.TimestampOf(day(2026, 1, 2)), EndDate: model.TimestampOf(day(2026, 1, 2))}}

	res, err := ExpandEvents([]model.Event{daily, once}, ExpandConfig{
		DisplayLocation:        time.UTC,
		RangeStart:             day(2026, 1, 1),
		RangeEnd:               day(2026, 12, 31),
		MaxOccurrencesPerEvent: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"daily"}, res.TruncatedEvents)
	require.Len(t, res.Occurrences, 4)
	assert.Equal(t, "Water plants", res.Occurrences[0].Title)
	// Same day: ties break by title.
	assert.Equal(t, "Dentist", res.Occurrences[1].Title)
	assert.Equal(t, "Water plants", res.Occurrences[2].Title)
}

func TestExportImport(t *testing.T) {
	// Given a recurring tagged event
	orig := model.Event{
		ID:          "e1",
		UserID:      "u1",
		Title:       "Book club",
		Description: "Bring snacks",
		Date:        recurring(day(2026, 10, 21), model.Pattern{Amount: 1, Interval: model.Week}, true, &model.Pattern{Amount: 4, Interval: model.Week}),
		Tags:        []string{"#books"},
	}

	// When exported and read back
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, "Friends", []model.Event{orig}, time.UTC, day(2026, 10, 19)))
	out := buf.String()
	assert.Contains(t, out, "SUMMARY:Book club")
	assert.Contains(t, out, "FREQ=WEEKLY")
	assert.Contains(t, out, "INTERVAL=2")
	assert.Contains(t, out, "CATEGORIES:books")

	got, err := Import(strings.NewReader(out), "u2", time.UTC)

	// Then the schedule survives
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u2", got[0].UserID)
	assert.Equal(t, orig.Title, got[0].Title)
	assert.Equal(t, orig.Description, got[0].Description)
	assert.Equal(t, orig.Date, got[0].Date)
	assert.Equal(t, orig.Tags, got[0].Tags)
}

func TestExport_RequiresID(t *testing.T) {
	var buf bytes.Buffer
	err := Export(&buf, "", []model.Event{{Title: "x"}}, time.UTC, time.Now())
	assert.Error(t, err)
}

func TestImport_Calendar(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:1@test",
		"DTSTAMP:20261019T000000Z",
		"SUMMARY:Book club",
		"DTSTART;VALUE=DATE:20261021",
		"RRULE:FREQ=WEEKLY;INTERVAL=2;COUNT=3",
		"CATEGORIES:books,Friends Group",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:2@test",
		"DTSTAMP:20261019T000000Z",
		"DTSTART;VALUE=DATE:20261101",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:3@test",
		"DTSTAMP:20261019T000000Z",
		"SUMMARY:Dentist",
		"DTSTART:20261030T140000Z",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	events, err := Import(strings.NewReader(body), "u1", time.UTC)

	require.NoError(t, err)
	require.Len(t, events, 2)

	club := events[0]
	assert.Equal(t, "Book club", club.Title)
	assert.Equal(t, model.TimestampOf(day(2026, 10, 21)), club.Date.StartDate)
	require.NotNil(t, club.Date.Recurrence.RecurEvery)
	assert.True(t, club.Date.Recurrence.RecurEvery.IsAlternating)
	require.NotNil(t, club.Date.Recurrence.RecurFor.Pattern)
	assert.Equal(t, model.Pattern{Amount: 6, Interval: model.Week}, *club.Date.Recurrence.RecurFor.Pattern)
	assert.Equal(t, model.TimestampOf(day(2026, 12, 2)), club.Date.EndDate)
	assert.Equal(t, []string{"#books", "#Friends-Group"}, club.Tags)

	dentist := events[1]
	assert.False(t, dentist.Date.Recurrence.IsRecurrent)
	assert.Equal(t, model.TimestampOf(day(2026, 10, 30)), dentist.Date.StartDate)
	assert.Equal(t, dentist.Date.StartDate, dentist.Date.EndDate)
}

func TestFetcher_UsesCache(t *testing.T) {
	const body = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	ctx := context.Background()

	first, err := f.Fetch(ctx, srv.URL+"/cal.ics")
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, body, string(first.Body))

	second, err := f.Fetch(ctx, srv.URL+"/cal.ics")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, body, string(second.Body))

	fail.Store(true)
	third, err := f.Fetch(ctx, srv.URL+"/cal.ics")
	require.NoError(t, err)
	assert.True(t, third.FromCache)

	_, err = NewFetcher("").Fetch(ctx, srv.URL+"/cal.ics")
	assert.Error(t, err)
}

func TestIsURLAndRedact(t *testing.T) {
	assert.True(t, IsURL("webcal://example.com/x.ics"))
	assert.True(t, IsURL("https://example.com/x.ics"))
	assert.False(t, IsURL("./x.ics"))
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/x.ics?token=abc"))
	assert.Equal(t, "ics://...(redacted)", redactURL("nope"))
}
