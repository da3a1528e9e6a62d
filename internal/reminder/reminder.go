// Package reminder periodically collects each user's upcoming occurrences
// into a digest.
package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"rolodex/internal/ics"
	appLog "rolodex/internal/log"
	"rolodex/internal/model"
	"rolodex/internal/temporal"
)

// EventSource lists users and their events.
type EventSource interface {
	Users() []string
	Events(userID string) []model.Event
}

// Digest is one user's occurrences inside the horizon.
type Digest struct {
	UserID      string             `json:"userId"`
	From        time.Time          `json:"from"`
	To          time.Time          `json:"to"`
	Occurrences []model.Occurrence `json:"occurrences"`
}

// Notifier receives digests with at least one occurrence.
type Notifier func(Digest)

type Scheduler struct {
	src         EventSource
	loc         *time.Location
	horizonDays int
	notify      Notifier
	now         func() time.Time

	cron *cron.Cron

	mu   sync.Mutex
	last []Digest
}

// New schedules the digest on a standard 5-field cron spec evaluated in
// loc. notify may be nil; digests are always logged.
func New(src EventSource, spec string, loc *time.Location, horizonDays int, notify Notifier) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if horizonDays <= 0 {
		horizonDays = 7
	}
	s := &Scheduler{
		src:         src,
		loc:         loc,
		horizonDays: horizonDays,
		notify:      notify,
		now:         time.Now,
		cron:        cron.New(cron.WithLocation(loc)),
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(s.now()) }); err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "reminder schedule %q", spec), `use a 5-field cron spec such as "0 8 * * *"`)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	appLog.Info("reminder scheduler started", "horizon_days", s.horizonDays, "location", s.loc.String())
}

// Stop halts the schedule and returns a context done once a running digest
// has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce builds digests for every user as of now.
func (s *Scheduler) RunOnce(now time.Time) []Digest {
	digests := make([]Digest, 0)
	for _, u := range s.src.Users() {
		occ := Upcoming(s.src.Events(u), now, s.horizonDays, s.loc)
		if len(occ) == 0 {
			continue
		}
		from, to := Window(now, s.horizonDays, s.loc)
		d := Digest{UserID: u, From: from, To: to, Occurrences: occ}
		digests = append(digests, d)

		appLog.Info("reminder digest",
			"user", u,
			"count", len(occ),
			"next", occ[0].Title,
			"next_at", occ[0].Start.Format(model.DateLayout),
		)
		if s.notify != nil {
			s.notify(d)
		}
	}

	s.mu.Lock()
	s.last = digests
	s.mu.Unlock()
	return digests
}

// Last returns the digests from the most recent run.
func (s *Scheduler) Last() []Digest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Digest(nil), s.last...)
}

// Window is [start of today, start of today + days) in loc.
func Window(now time.Time, days int, loc *time.Location) (time.Time, time.Time) {
	from := temporal.StartOfDay(now.In(loc))
	to := from.AddDate(0, 0, days).Add(-time.Nanosecond)
	return from, to
}

// Upcoming expands events over the next days starting today.
func Upcoming(events []model.Event, now time.Time, days int, loc *time.Location) []model.Occurrence {
	from, to := Window(now, days, loc)
	res, err := ics.ExpandEvents(events, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      from,
		RangeEnd:        to,
	})
	if err != nil {
		appLog.Error("reminder expand failed", err)
		return []model.Occurrence{}
	}
	return res.Occurrences
}
