package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/prestataires-ui/internal/data"
	"github.com/target/prestataires-ui/internal/domain/prestataire"
	"github.com/target/prestataires-ui/internal/migrate"
)

func TestCommands(t *testing.T) {
	seen := map[string]bool{}
	for _, cmd := range commands() {
		assert.False(t, seen[cmd.name], "duplicate %s", cmd.name)
		seen[cmd.name] = true
		assert.NotEmpty(t, cmd.description, cmd.name)
		assert.NotNil(t, cmd.run, cmd.name)

		found, ok := lookupCommand(cmd.name)
		require.True(t, ok)
		assert.Equal(t, cmd.name, found.name)
	}
	_, ok := lookupCommand("list-clients")
	assert.False(t, ok)

	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "Usage: prestataires-admin"))
	assert.Contains(t, buf.String(), "clear-catalog-cache")
}

func TestRunUsageErrors(t *testing.T) {
	assert.Equal(t, exitUsage, run(nil))
	assert.Equal(t, exitUsage, run([]string{"bogus"}))
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"", false},
		{"localhost", false},
		{" LOCALHOST ", false},
		{"127.0.0.1", false},
		{"::1", false},
		{"db.local", false},
		{"127.0.0.2", false},
		{"10.0.0.5", true},
		{"db.example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, isLikelyRemoteHost(tt.host))
		})
	}
}

func TestParseFlags(t *testing.T) {
	m, err := parseMigrateFlags("migrate", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, m.Timeout)

	_, err = parseMigrateFlags("migrate", []string{"--timeout", "0s"})
	require.Error(t, err)

	r, err := parseDBResetFlags([]string{"--yes", "--seed", "--timeout", "1m"})
	require.NoError(t, err)
	assert.True(t, r.Yes)
	assert.True(t, r.Seed)
	assert.False(t, r.AllowRemote)
	assert.Equal(t, time.Minute, r.Timeout)

	l, err := parseListPrestatairesFlags([]string{"--status", "Actif"})
	require.NoError(t, err)
	assert.Equal(t, "Actif", l.Filter.Status)
	assert.Equal(t, prestataire.FilterAll, l.Filter.Specialty)

	_, err = parseListProfilesFlags([]string{"--limit", "-1"})
	require.Error(t, err)

	c, err := parseCacheClearFlags([]string{"--dry-run"})
	require.NoError(t, err)
	assert.True(t, c.DryRun)
	assert.False(t, c.Yes)
	assert.False(t, c.All)

	c, err = parseCacheClearFlags([]string{"--all", "--yes"})
	require.NoError(t, err)
	assert.True(t, c.All)
	assert.True(t, c.Yes)
}

func TestPrintPrestataires(t *testing.T) {
	records := prestataire.SampleCatalog()
	filtered := prestataire.Filter{Status: string(prestataire.StatusActif)}.Apply(records)

	var buf bytes.Buffer
	require.NoError(t, printPrestataires(&buf, filtered, len(records)))

	out := buf.String()
	assert.Contains(t, out, "Plomberie Duval")
	assert.NotContains(t, out, "Toitures du Rhône")
	assert.Contains(t, out, "3 of 6 prestataires")
}

func TestPrintProfiles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printProfiles(&buf, nil))
	assert.Equal(t, "No profiles found.\n", buf.String())

	buf.Reset()
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, printProfiles(&buf, []data.Profile{{ID: "u-1", Email: "a@example.com", CreatedAt: created}}))
	assert.Contains(t, buf.String(), "a@example.com")
	assert.Contains(t, buf.String(), "2024-03-01T09:00:00Z")
}

func TestPrintMigrationStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMigrationStatus(&buf, []migrate.Version{
		{Name: "001_init.sql", Applied: true},
		{Name: "002_next.sql", Applied: false},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "false")
	assert.Equal(t, "1 pending", lines[3])
}

func TestRemoteGuard(t *testing.T) {
	t.Run("local host passes silently", func(t *testing.T) {
		var out bytes.Buffer
		remote, err := remoteGuard{in: strings.NewReader(""), out: &out}.check("localhost", false, "drop")
		require.NoError(t, err)
		assert.False(t, remote)
		assert.Empty(t, out.String())
	})

	t.Run("remote host needs allow flag", func(t *testing.T) {
		remote, err := remoteGuard{in: strings.NewReader(""), out: &bytes.Buffer{}}.check("db.example.com", false, "drop")
		require.ErrorContains(t, err, "--allow-remote")
		assert.True(t, remote)
	})

	t.Run("remote host confirmed by retyping", func(t *testing.T) {
		var out bytes.Buffer
		_, err := remoteGuard{in: strings.NewReader("db.example.com\n"), out: &out}.check("db.example.com", true, "drop")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "This operation will drop.")
	})

	t.Run("wrong answer aborts", func(t *testing.T) {
		_, err := remoteGuard{in: strings.NewReader("nope\n"), out: &bytes.Buffer{}}.check("db.example.com", true, "drop")
		require.ErrorIs(t, err, errAborted)
	})
}

func TestConfirmation(t *testing.T) {
	reset := resetConfirmation(`database "p" on localhost:5432`, "", false)

	var out bytes.Buffer
	require.NoError(t, reset.askFrom(strings.NewReader("y\n"), &out))
	assert.Contains(t, out.String(), "About to reset database schema")

	require.ErrorIs(t, reset.askFrom(strings.NewReader("n\n"), &out), errAborted)
	require.ErrorIs(t, reset.askFrom(strings.NewReader(""), &out), errAborted)

	// --yes is ignored for remote hosts.
	remote := resetConfirmation("x", "db.example.com", true)
	require.Error(t, remote.askFrom(strings.NewReader("\n"), &out))

	require.NoError(t, resetConfirmation("x", "", true).askFrom(strings.NewReader(""), &out))
	require.NoError(t, cacheConfirmation("clear", cacheClearOptions{DryRun: true}).askFrom(strings.NewReader(""), &out))
}
