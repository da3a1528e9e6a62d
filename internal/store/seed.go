package store

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"rolodex/internal/command"
	appLog "rolodex/internal/log"
	"rolodex/internal/model"
)

// DateParser reads free-text dates in seed files.
type DateParser interface {
	Parse(text string) (model.ParsedDate, bool)
}

// Seed is the on-disk YAML layout. Dates are free text:
//
//	users:
//	  - id: u1
//	    friends:
//	      - first: Joe
//	        last: Schmoe
//	        birthday: September 7th 1990
//	    events:
//	      - title: Book club
//	        when: starting Wednesday every other week
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	ID      string       `yaml:"id"`
	Friends []SeedFriend `yaml:"friends"`
	Events  []SeedEvent  `yaml:"events"`
}

type SeedFriend struct {
	First        string         `yaml:"first"`
	Last         string         `yaml:"last"`
	DisplayName  string         `yaml:"display_name"`
	Birthday     string         `yaml:"birthday"`
	Email        string         `yaml:"email"`
	Phone        string         `yaml:"phone"`
	Address      *model.Address `yaml:"address"`
	Organization string         `yaml:"organization"`
	Skills       []string       `yaml:"skills"`
	Notes        []string       `yaml:"notes"`
	Tags         []string       `yaml:"tags"`
}

type SeedEvent struct {
	Title          string   `yaml:"title"`
	When           string   `yaml:"when"`
	Description    string   `yaml:"description"`
	RelatedFriends []string `yaml:"related_friends"`
	Tags           []string `yaml:"tags"`
}

// LoadSeedFile reads a seed file from path and adds its records to s.
func (s *Store) LoadSeedFile(ctx context.Context, path string, dates DateParser) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read seed %s", path)
	}
	var seed Seed
	if err := yaml.Unmarshal(b, &seed); err != nil {
		return errors.Wrapf(err, "parse seed %s", path)
	}
	return s.LoadSeed(ctx, seed, dates)
}

// LoadSeed adds every record in seed. Unparseable dates are logged and the
// record is kept without them.
func (s *Store) LoadSeed(ctx context.Context, seed Seed, dates DateParser) error {
	var friends, events int
	for _, u := range seed.Users {
		for _, sf := range u.Friends {
			f := model.Friend{
				UserID:       u.ID,
				Name:         model.Name{First: sf.First, Last: sf.Last, DisplayName: sf.DisplayName},
				Email:        sf.Email,
				Phone:        sf.Phone,
				Address:      sf.Address,
				Organization: sf.Organization,
				Skills:       sf.Skills,
				Tags:         sf.Tags,
			}
			for _, n := range sf.Notes {
				f.Notes = append(f.Notes, model.Note{Text: n})
			}
			if strings.TrimSpace(sf.Birthday) != "" {
				if d, ok := dates.Parse(sf.Birthday); ok {
					bday := d.StartDate
					f.Birthday = &bday
				} else {
					appLog.Info("seed birthday not understood", "user", u.ID, "friend", f.Name.Display(), "text", sf.Birthday)
				}
			}
			if _, err := s.AddFriend(ctx, f); err != nil {
				return errors.Wrapf(err, "seed friend %q", f.Name.Display())
			}
			friends++
		}

		for _, se := range u.Events {
			e := model.Event{
				UserID:         u.ID,
				Title:          se.Title,
				Description:    se.Description,
				RelatedFriends: se.RelatedFriends,
				Tags:           se.Tags,
			}
			d, ok := dates.Parse(se.When)
			if !ok {
				appLog.Info("seed event date not understood, skipping", "user", u.ID, "title", se.Title, "text", se.When)
				continue
			}
			e.Date = d
			if _, err := s.AddEvent(ctx, e); err != nil {
				return errors.Wrapf(err, "seed event %q", e.Title)
			}
			events++
		}
	}
	appLog.Info("seed loaded", "users", len(seed.Users), "friends", friends, "events", events)
	return nil
}

// FriendFromArgs turns an "add friend" suggestion into a record for userID.
func FriendFromArgs(userID string, a command.AddFriendArgs) model.Friend {
	f := model.Friend{
		UserID:   userID,
		Name:     model.Name{First: a.First, Last: a.Last},
		Email:    a.Email,
		Phone:    a.Phone,
		Birthday: a.Birthday,
		Tags:     model.DedupeTags(a.Tags),
	}
	if a.FirstNote != "" {
		f.Notes = []model.Note{{Text: a.FirstNote}}
	}
	return f
}

// EventFromArgs turns an "add event" suggestion into a record for userID.
func EventFromArgs(userID string, a command.AddEventArgs) model.Event {
	return model.Event{
		UserID:      userID,
		Title:       a.Title,
		Date:        a.Date,
		Description: a.Description,
		Tags:        model.DedupeTags(a.Tags),
	}
}
