package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpoutwithus/functions/internal/config"
	"github.com/helpoutwithus/functions/internal/reminders"
)

type fakeRunner struct {
	mu   sync.Mutex
	reqs []reminders.Request
	err  error
}

func (f *fakeRunner) Run(_ context.Context, req reminders.Request) (*reminders.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &reminders.Report{Errors: []string{}, NotificationsSent: 1}, nil
}

func (f *fakeRunner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func TestRunOnceRunsEveryJob(t *testing.T) {
	runner := &fakeRunner{}
	clock := NewClock(nil)
	s := New(context.Background(), runner, clock, zerolog.Nop())

	s.RunOnce(&config.Schedule{
		Timezone: "Europe/Berlin",
		Jobs: []config.Job{
			{Name: "a", Cron: "0 8 * * *", DaysOut: 1, Filled: true},
			{Name: "b", Cron: "0 7 * * *", DaysOut: 2, AdminSummary: true},
		},
	})

	require.Len(t, runner.reqs, 2)
	assert.Equal(t, reminders.Request{DaysOut: 1, Filled: true}, runner.reqs[0])
	assert.Equal(t, reminders.Request{DaysOut: 2, AdminSummary: true}, runner.reqs[1])
	assert.Equal(t, "Europe/Berlin", clock.Now().Location().String())
}

func TestRunOnceSurvivesFailures(t *testing.T) {
	runner := &fakeRunner{err: errors.New("backend down")}
	s := New(context.Background(), runner, NewClock(time.UTC), zerolog.Nop())

	s.RunOnce(&config.Schedule{Jobs: []config.Job{
		{Name: "a", Cron: "* * * * *", Filled: true},
		{Name: "b", Cron: "* * * * *", Unfilled: true},
	}})
	assert.Equal(t, 2, runner.calls())
}

func TestApplyRejectsBadCron(t *testing.T) {
	s := New(context.Background(), &fakeRunner{}, NewClock(time.UTC), zerolog.Nop())
	err := s.Apply(&config.Schedule{Jobs: []config.Job{{Name: "bad", Cron: "every tuesday", Filled: true}}})
	assert.ErrorContains(t, err, "bad")
}

func TestApplyRunsJobs(t *testing.T) {
	runner := &fakeRunner{}
	s := New(context.Background(), runner, NewClock(time.UTC), zerolog.Nop())
	t.Cleanup(s.Stop)

	require.NoError(t, s.Apply(&config.Schedule{Jobs: []config.Job{{Name: "tick", Cron: "@every 1s", Filled: true}}}))

	assert.Eventually(t, func() bool { return runner.calls() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestWatchReloadsSchedule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jobs: []\n"), 0o600))

	clock := NewClock(time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, &fakeRunner{}, clock, zerolog.Nop())
	t.Cleanup(s.Stop)

	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, path) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("timezone: Asia/Tokyo\njobs: []\n"), 0o600))

	assert.Eventually(t, func() bool {
		return clock.Now().Location().String() == "Asia/Tokyo"
	}, 3*time.Second, 50*time.Millisecond)
}
