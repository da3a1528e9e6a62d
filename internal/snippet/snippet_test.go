package snippet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/model"
)

func testFriend() model.Friend {
	bday := model.TimestampOf(time.Date(1990, time.September, 7, 0, 0, 0, 0, time.UTC))
	return model.Friend{
		Name:         model.Name{First: "Joe", Last: "Schmoe"},
		Birthday:     &bday,
		Email:        "joe@schmoe.com",
		Phone:        "455-444-4455",
		Address:      &model.Address{City: "Portland", State: "OR"},
		Organization: "Acme Rockets",
		Skills:       []string{"welding", "guitar"},
		Notes:        []model.Note{{Text: "Met at the rocket expo"}, {Text: "Owes me lunch"}},
		Tags:         []string{"#work"},
	}
}

func TestFriendFields_Order(t *testing.T) {
	fields := FriendFields(testFriend(), time.UTC)

	ids := make([]FieldID, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []FieldID{
		FieldName, FieldBirthday, FieldEmail, FieldPhone,
		FieldLocation, FieldOrganization, FieldSkills, FieldNotes,
	}, ids)
	assert.Equal(t, "September 7, 1990", fields[1].Text)
	assert.Equal(t, "welding, guitar", fields[6].Text)
	assert.Equal(t, "Met at the rocket expo Owes me lunch", fields[7].Text)
}

func TestFriendFields_SkipsEmpty(t *testing.T) {
	fields := FriendFields(model.Friend{Name: model.Name{First: "Ann"}}, time.UTC)
	require.Len(t, fields, 1)
	assert.Equal(t, FieldName, fields[0].ID)
}

func TestEventFields(t *testing.T) {
	start := model.TimestampOf(time.Date(2026, time.October, 21, 0, 0, 0, 0, time.UTC))
	e := model.Event{
		Title:          "Lunch",
		Date:           model.ParsedDate{StartDate: start, EndDate: start},
		Description:    "Catch up about the trip",
		RelatedFriends: []string{"Joe Schmoe", "Ann"},
	}

	fields := EventFields(e, time.UTC)
	require.Len(t, fields, 4)
	assert.Equal(t, Field{ID: FieldDate, Text: "October 21, 2026"}, fields[1])
	assert.Equal(t, Field{ID: FieldTaggedFriends, Text: "Joe Schmoe, Ann"}, fields[3])
}

func TestMatch_FirstFieldWins(t *testing.T) {
	fields := FriendFields(testFriend(), time.UTC)

	// "rocket" appears in Organization and Notes; Organization comes first.
	s, ok := Match(fields, []string{"rocket"})

	require.True(t, ok)
	assert.Equal(t, FieldOrganization, s.Field.ID)
	assert.Equal(t, "Organization: Acme <b>Rocket</b>s", s.Render("<b>", "</b>"))
}

func TestMatch_LaterTokensExtendSameField(t *testing.T) {
	fields := FriendFields(testFriend(), time.UTC)

	// "lunch" only appears in Notes and must not move the snippet there.
	s, ok := Match(fields, []string{"joe", "schmoe", "lunch"})

	require.True(t, ok)
	assert.Equal(t, FieldName, s.Field.ID)
	assert.Equal(t, "Name: <b>Joe</b> <b>Schmoe</b>", s.Render("<b>", "</b>"))
}

func TestMatch_IgnoresTagsAndMisses(t *testing.T) {
	fields := FriendFields(testFriend(), time.UTC)

	_, ok := Match(fields, []string{"#work", "zebra"})
	assert.False(t, ok)
}

func TestMatch_QuotesRegexMetacharacters(t *testing.T) {
	fields := []Field{{ID: FieldNotes, Text: "costs $5 (maybe)"}}

	s, ok := Match(fields, []string{"(maybe)"})
	require.True(t, ok)
	assert.Equal(t, "costs $5 [(maybe)]", s.Highlight("[", "]"))
}

func TestAddSpan_Merges(t *testing.T) {
	s := Snippet{Field: Field{ID: FieldName, Text: "abcdefghij"}}

	s = AddSpan(s, Span{Start: 4, End: 6})
	s = AddSpan(s, Span{Start: 0, End: 2})
	s = AddSpan(s, Span{Start: 5, End: 8})
	s = AddSpan(s, Span{Start: 2, End: 3})
	s = AddSpan(s, Span{Start: 9, End: 9})

	assert.Equal(t, []Span{{Start: 0, End: 3}, {Start: 4, End: 8}}, s.Spans)
	assert.Equal(t, "*abc*d*efgh*ij", s.Highlight("*", "*"))
}

func TestAddSpan_DoesNotMutateInput(t *testing.T) {
	orig := Snippet{Field: Field{Text: "abcdef"}, Spans: []Span{{Start: 0, End: 2}}}

	_ = AddSpan(orig, Span{Start: 1, End: 4})

	assert.Equal(t, []Span{{Start: 0, End: 2}}, orig.Spans)
}
