package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/errors"

	"github.com/helpoutwithus/functions/internal/app"
	"github.com/helpoutwithus/functions/internal/auth"
	"github.com/helpoutwithus/functions/internal/config"
	"github.com/helpoutwithus/functions/internal/function"
	"github.com/helpoutwithus/functions/internal/reminders"
	"github.com/helpoutwithus/functions/internal/schedule"
)

const callerID = "reminderd"

// rootRunner calls the reminder function the way the backend scheduler
// would: through the function envelope with a root caller.
type rootRunner struct {
	svc *reminders.Service
}

func (r rootRunner) Run(ctx context.Context, req reminders.Request) (*reminders.Report, error) {
	resp := r.svc.Handle(ctx, function.Event[reminders.Request]{
		Data:    req,
		Context: function.EventContext{Auth: auth.Root(callerID)},
	})
	if resp.Error != "" {
		if resp.Details != "" {
			return nil, errors.Errorf("%s: %s", resp.Error, resp.Details)
		}
		return nil, errors.New(resp.Error)
	}
	report, ok := resp.Data.(*reminders.Report)
	if !ok {
		return nil, errors.Errorf("unexpected response data %T", resp.Data)
	}
	return report, nil
}

func main() {
	var (
		cfgPath string
		once    bool
	)
	flag.StringVar(&cfgPath, "config", "./schedule.yaml", "path to schedule yaml")
	flag.BoolVar(&once, "once", false, "run every job once and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := app.MustLoad(callerID)
	log := a.Log

	sched, err := config.LoadSchedule(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("unable to load schedule")
	}

	clock := schedule.NewClock(sched.Location())
	svc := a.Reminders(ctx, reminders.WithClock(clock.Now))
	s := schedule.New(ctx, rootRunner{svc: svc}, clock, log)

	if once {
		s.RunOnce(sched)
		return
	}

	if err := s.Apply(sched); err != nil {
		log.Fatal().Err(err).Msg("unable to apply schedule")
	}

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if err := s.Watch(ctx, cfgPath); err != nil {
			log.Error().Err(err).Msg("schedule watch stopped")
		}
	}()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn().Err(err).Msg("systemd notify failed")
	} else if ok {
		log.Debug().Msg("systemd notified")
	}
	log.Info().Str("config", cfgPath).Msg("reminderd started")

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	<-watchDone
	s.Stop()
	log.Info().Msg("reminderd stopped")
}
