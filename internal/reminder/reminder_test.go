package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/model"
)

// Monday, October 19 2026.
var fixedNow = time.Date(2026, time.October, 19, 15, 4, 5, 0, time.UTC)

type fakeSource map[string][]model.Event

func (f fakeSource) Users() []string {
	out := make([]string, 0, len(f))
	for _, u := range []string{"u1", "u2", "u3"} {
		if _, ok := f[u]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (f fakeSource) Events(userID string) []model.Event { return f[userID] }

func at(y int, m time.Month, d int) model.Timestamp {
	return model.TimestampOf(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func yearly(start model.Timestamp) model.ParsedDate {
	return model.ParsedDate{
		StartDate: start,
		EndDate:   model.Forever,
		Recurrence: model.Recurrence{
			IsRecurrent: true,
			RecurEvery:  &model.RecurEvery{Pattern: model.Pattern{Amount: 1, Interval: model.Year}},
			RecurFor:    &model.RecurFor{IsForever: true},
		},
	}
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New(fakeSource{}, "not a cron", time.UTC, 7, nil)
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	// Given a birthday inside the horizon, one outside, and a user with nothing upcoming
	src := fakeSource{
		"u1": {
			{ID: "b1", UserID: "u1", Title: "Joe's birthday", Date: yearly(at(1990, time.October, 22))},
			{ID: "b2", UserID: "u1", Title: "Ann's birthday", Date: yearly(at(1985, time.December, 1))},
			{ID: "l1", UserID: "u1", Title: "Lunch", Date: model.ParsedDate{StartDate: at(2026, time.October, 19), EndDate: at(2026, time.October, 19)}},
		},
		"u2": {
			{ID: "x", UserID: "u2", Title: "Past", Date: model.ParsedDate{StartDate: at(2026, time.October, 1), EndDate: at(2026, time.October, 1)}},
		},
	}
	var notified []Digest
	s, err := New(src, "0 8 * * *", time.UTC, 7, func(d Digest) { notified = append(notified, d) })
	require.NoError(t, err)

	// When the digest runs
	digests := s.RunOnce(fixedNow)

	// Then only u1 gets one, earliest first, today included
	require.Len(t, digests, 1)
	d := digests[0]
	assert.Equal(t, "u1", d.UserID)
	require.Len(t, d.Occurrences, 2)
	assert.Equal(t, "Lunch", d.Occurrences[0].Title)
	assert.Equal(t, "Joe's birthday", d.Occurrences[1].Title)
	assert.Equal(t, time.Date(2026, time.October, 22, 0, 0, 0, 0, time.UTC), d.Occurrences[1].Start)
	assert.Equal(t, digests, notified)
	assert.Equal(t, digests, s.Last())
}

func TestWindow(t *testing.T) {
	from, to := Window(fixedNow, 7, time.UTC)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), from)
	assert.True(t, to.Before(time.Date(2026, time.October, 26, 0, 0, 0, 0, time.UTC)))
	assert.True(t, to.After(time.Date(2026, time.October, 25, 23, 59, 0, 0, time.UTC)))
}

func TestStartStop(t *testing.T) {
	s, err := New(fakeSource{}, "@every 1h", time.UTC, 0, nil)
	require.NoError(t, err)
	s.Start()
	<-s.Stop().Done()
}
