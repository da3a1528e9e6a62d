package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/command"
)

// Monday, October 19 2026.
var fixedNow = time.Date(2026, time.October, 19, 15, 4, 5, 0, time.UTC)

const testSeed = `
users:
  - id: u1
    friends:
      - first: Joe
        last: Schmoe
        birthday: September 7th 1990
        tags: ["#work"]
    events:
      - title: Book club
        when: starting Wednesday every other week
        tags: ["#books"]
`

// setup pins the clock and writes a config plus seed file into a temp dir.
func setup(t *testing.T) string {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return fixedNow }
	t.Cleanup(func() { timeNow = orig })

	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(testSeed), 0o600))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "timezone: UTC\nlog_level: error\ndata: " + seed + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return buf.String(), err
}

func TestParseCmd(t *testing.T) {
	cfgPath := setup(t)

	out, err := run(t, cfgPath, "parse", "lunch", "on", "Friday")

	require.NoError(t, err)
	assert.Equal(t, "October 23, 2026\nfrom: on Friday\n", out)
}

func TestParseCmd_JSON(t *testing.T) {
	cfgPath := setup(t)

	out, err := run(t, cfgPath, "parse", "--json", "nothing here")

	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false}`, out)
}

func TestParseCmd_RequiresText(t *testing.T) {
	cfgPath := setup(t)
	_, err := run(t, cfgPath, "parse")
	require.Error(t, err)
}

func TestSearchCmd(t *testing.T) {
	// Given a seeded friend
	cfgPath := setup(t)

	// When searching by first name
	out, err := run(t, cfgPath, "search", "--user", "u1", "Joe")

	// Then the friend is listed with the match unmarked in plain output
	require.NoError(t, err)
	assert.Contains(t, out, "query_friend Joe Schmoe")
	assert.Contains(t, out, "Name: Joe Schmoe")
	assert.NotContains(t, out, "add_friend")
}

func TestSearchCmd_MissingUser(t *testing.T) {
	cfgPath := setup(t)

	_, err := run(t, cfgPath, "search", "Joe")

	require.Error(t, err)
	assert.ErrorIs(t, err, command.ErrMissingUser)
}

func TestUpcomingCmd(t *testing.T) {
	cfgPath := setup(t)

	out, err := run(t, cfgPath, "upcoming", "--user", "u1", "--days", "14")

	require.NoError(t, err)
	assert.Equal(t, "Wed Oct 21  Book club  #books\n", out)
}

func TestExportCmd(t *testing.T) {
	cfgPath := setup(t)
	dest := filepath.Join(t.TempDir(), "out.ics")

	_, err := run(t, cfgPath, "export", "--user", "u1", "--out", dest)
	require.NoError(t, err)

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	body := string(b)
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Contains(t, body, "SUMMARY:Book club")
	assert.Contains(t, body, "INTERVAL=2")
}

func TestImportCmd(t *testing.T) {
	cfgPath := setup(t)
	src := filepath.Join(t.TempDir(), "in.ics")
	require.NoError(t, os.WriteFile(src, []byte(strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:1@test",
		"DTSTAMP:20261019T000000Z",
		"SUMMARY:Dentist",
		"DTSTART;VALUE=DATE:20261030",
		"CATEGORIES:health",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")), 0o600))

	out, err := run(t, cfgPath, "import", "--user", "u1", src)

	require.NoError(t, err)
	assert.Equal(t, "October 30, 2026  Dentist  #health\n", out)
}

func TestImportCmd_MissingFile(t *testing.T) {
	cfgPath := setup(t)
	_, err := run(t, cfgPath, "import", "--user", "u1", filepath.Join(t.TempDir(), "nope.ics"))
	require.Error(t, err)
}

func TestRootCmd_WritesDefaultConfig(t *testing.T) {
	orig := timeNow
	timeNow = func() time.Time { return fixedNow }
	t.Cleanup(func() { timeNow = orig })

	cfgPath := filepath.Join(t.TempDir(), "sub", "config.yaml")

	_, err := run(t, cfgPath, "parse", "today")

	require.NoError(t, err)
	_, statErr := os.Stat(cfgPath)
	assert.NoError(t, statErr)
}
