package schedule

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/helpoutwithus/functions/internal/config"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the schedule file whenever it changes until ctx is done.
// Invalid files are logged and ignored.
func (s *Scheduler) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir, file := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := w.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	reload := func() {
		sched, err := config.LoadSchedule(path)
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("schedule reload failed")
			return
		}
		if err := s.Apply(sched); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("schedule apply failed")
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, reload)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("schedule watch error")
		}
	}
}
