// Package reminders sends the upcoming-spot reminder emails: unfilled-spot
// alerts to activity members, personal digests to confirmed volunteers and
// summaries to activity admins.
package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helpoutwithus/functions/internal/auth"
	"github.com/helpoutwithus/functions/internal/backend"
	"github.com/helpoutwithus/functions/internal/deliverylog"
	"github.com/helpoutwithus/functions/internal/domain"
	"github.com/helpoutwithus/functions/internal/function"
	"github.com/helpoutwithus/functions/internal/mail"
)

const errSending = "Unexpected error sending notifications"

var ErrNegativeDaysOut = errors.New("daysOut must not be negative")

// Request is the function input.
type Request struct {
	DaysOut      int  `json:"daysOut"`
	Filled       bool `json:"filled"`
	Unfilled     bool `json:"unfilled"`
	AdminSummary bool `json:"adminSummary"`
}

// DeliveryLog records send attempts. Optional.
type DeliveryLog interface {
	Put(ctx context.Context, e deliverylog.Entry) (string, error)
}

type Service struct {
	exec       backend.Executor
	dispatcher *Dispatcher
	templates  mail.Templates
	deliveries DeliveryLog
	now        func() time.Time
	log        zerolog.Logger
}

type Option func(*Service)

// WithClock sets the source of the current time. The location of the
// returned time decides which calendar day a window covers.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithDeliveryLog(d DeliveryLog) Option {
	return func(s *Service) { s.deliveries = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(exec backend.Executor, dispatcher *Dispatcher, templates mail.Templates, opts ...Option) *Service {
	s := &Service{
		exec:       exec,
		dispatcher: dispatcher,
		templates:  templates,
		now:        time.Now,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handle is the function entry point. Only a root caller may trigger a run.
func (s *Service) Handle(ctx context.Context, ev function.Event[Request]) function.Response {
	if err := auth.RequireRoot(ev.Context.Auth); err != nil {
		log := s.logger(ctx)
		log.Warn().Err(err).Msg("reminder run rejected")
		return function.Fail(err.Error())
	}

	report, err := s.Run(ctx, ev.Data)
	if err != nil {
		return function.FailWith(errSending, err)
	}
	return function.OK(report)
}

// logger prefers the logger carried by ctx, which holds invocation fields
// such as the request id or the scheduled job name.
func (s *Service) logger(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return s.log
}

type lanes struct {
	unfilled []domain.Activity
	personal []personalUser
	admins   []adminUser
}

// Run computes and sends every enabled lane. A failed backend query fails
// the whole run; failed sends are only reported.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	if req.DaysOut < 0 {
		return nil, ErrNegativeDaysOut
	}

	runID := uuid.New().String()
	log := s.logger(ctx).With().Str("run_id", runID).Int("days_out", req.DaysOut).Logger()
	ctx = log.WithContext(ctx)

	w := Window(s.now(), req.DaysOut)
	log.Info().Time("start", w.Start).Time("end", w.End).
		Bool("unfilled", req.Unfilled).Bool("filled", req.Filled).Bool("admin_summary", req.AdminSummary).
		Msg("reminder run started")

	data, err := s.fetch(ctx, req, w)
	if err != nil {
		log.Error().Err(err).Msg("reminder query failed")
		return nil, err
	}

	z := newZones(&log)
	batches := [][]Notification{
		unfilledNotifications(data.unfilled, s.templates.Unfilled, z),
		personalNotifications(data.personal, s.templates.Personal, z),
		adminNotifications(data.admins, s.templates.AdminSummary, z),
	}

	report := newReport()
	for _, batch := range batches {
		if len(batch) == 0 {
			continue
		}
		outcomes := s.dispatcher.Dispatch(ctx, batch)
		report.Add(outcomes)
		s.record(ctx, runID, outcomes)
		log.Info().Str("lane", batch[0].Lane.String()).Int("notifications", len(batch)).Msg("lane dispatched")
	}

	log.Info().Int("sent", report.NotificationsSent).Int("errors", len(report.Errors)).Msg("reminder run finished")
	return report, nil
}

// fetch runs the enabled lane queries concurrently. They are independent
// reads, so the first failure cancels the rest.
func (s *Service) fetch(ctx context.Context, req Request, w TimeWindow) (lanes, error) {
	var out lanes
	g, gctx := errgroup.WithContext(ctx)
	if req.Unfilled {
		g.Go(func() error {
			var err error
			out.unfilled, err = fetchUnfilled(gctx, s.exec, w)
			return err
		})
	}
	if req.Filled {
		g.Go(func() error {
			var err error
			out.personal, err = fetchPersonal(gctx, s.exec, w)
			return err
		})
	}
	if req.AdminSummary {
		g.Go(func() error {
			var err error
			out.admins, err = fetchAdmins(gctx, s.exec, w)
			return err
		})
	}
	return out, g.Wait()
}

func (s *Service) record(ctx context.Context, runID string, outcomes []Outcome) {
	if s.deliveries == nil {
		return
	}
	log := zerolog.Ctx(ctx)
	for _, o := range outcomes {
		e := deliverylog.Entry{
			RunID:      runID,
			Lane:       o.Notification.Lane.String(),
			Subject:    o.Notification.Subject,
			TemplateID: o.Notification.Template.TemplateID,
			Status:     deliveryStatus(o),
			Error:      o.Message(),
			SentAt:     time.Now().UTC(),
		}
		for _, to := range o.Notification.Template.To {
			e.Recipients = append(e.Recipients, to.Email)
		}
		if _, err := s.deliveries.Put(ctx, e); err != nil {
			log.Warn().Err(err).Str("subject", e.Subject).Msg("delivery log write failed")
		}
	}
}

func deliveryStatus(o Outcome) string {
	if o.Sent() {
		return deliverylog.StatusSent
	}
	return deliverylog.StatusFailed
}
