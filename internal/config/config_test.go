package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GRAPHQL_ENDPOINT", "https://api.example.com/simple/v1/abc")
	t.Setenv("MAIL_RATE_PER_SEC", "2.5")

	env, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", env.LogLevel)
	assert.Equal(t, "https://api.example.com/simple/v1/abc", env.GraphQLEndpoint)
	assert.Equal(t, 15*time.Second, env.GraphQLTimeout)
	assert.Equal(t, 20*time.Second, env.MailSendTimeout)
	assert.Equal(t, 2.5, env.MailRatePerSec)

	tpl := env.Templates()
	assert.Equal(t, 349788, tpl.Personal)
	assert.Equal(t, 477313, tpl.Unfilled)
	assert.Equal(t, 0, tpl.AdminSummary)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TEMPLATE_ADMIN_SUMMARY=555\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TEMPLATE_ADMIN_SUMMARY") })

	env, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 555, env.TemplateAdminSummary)
}

func TestParseSchedule(t *testing.T) {
	raw := []byte(`
timezone: America/Chicago
jobs:
  - name: tomorrow
    cron: "0 8 * * *"
    days_out: 1
    filled: true
    unfilled: true
  - name: admins
    cron: "0 7 * * 1"
    days_out: 0
    admin_summary: true
`)
	s, err := ParseSchedule(raw)
	require.NoError(t, err)
	require.Len(t, s.Jobs, 2)
	assert.Equal(t, "America/Chicago", s.Location().String())
	assert.True(t, s.Jobs[1].AdminSummary)
	assert.Equal(t, 1, s.Jobs[0].DaysOut)
}

func TestParseScheduleInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "bad zone", raw: "timezone: Mars/Olympus\n"},
		{name: "missing cron", raw: "jobs:\n  - name: a\n    filled: true\n"},
		{name: "negative days", raw: "jobs:\n  - name: a\n    cron: '* * * * *'\n    days_out: -1\n    filled: true\n"},
		{name: "no lanes", raw: "jobs:\n  - name: a\n    cron: '* * * * *'\n"},
		{name: "duplicate", raw: "jobs:\n  - {name: a, cron: '* * * * *', filled: true}\n  - {name: a, cron: '* * * * *', filled: true}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadScheduleMissingFileUsesDefault(t *testing.T) {
	s, err := LoadSchedule(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, s.Jobs)
	assert.Same(t, time.Local, s.Location())
}

// chdir changes the working directory for the duration of the test, like
// testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
