package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/helpoutwithus/functions/internal/mail"
)

// Outcome is the settled result of one notification.
type Outcome struct {
	Notification Notification
	Result       mail.Result
}

// Sent reports whether the provider accepted the notification.
func (o Outcome) Sent() bool { return o.Result.Delivered() }

// Failed reports whether the send did not go through. Every outcome is
// either sent or failed.
func (o Outcome) Failed() bool { return !o.Sent() }

// Message returns the failure message of a failed outcome.
func (o Outcome) Message() string {
	if o.Sent() {
		return ""
	}
	return failureMessage(o.Notification, o.Result)
}

// failureMessage describes a result the provider did not fully accept. A
// result without an error message still fails when any message status is
// false or none was returned.
func failureMessage(n Notification, r mail.Result) string {
	if r.Err != "" {
		return r.Err
	}
	rejected := 0
	for _, ok := range r.Success {
		if !ok {
			rejected++
		}
	}
	if len(r.Success) == 0 {
		return fmt.Sprintf("provider returned no acknowledgement for %s", n.Subject)
	}
	return fmt.Sprintf("provider did not acknowledge %d of %d message(s) for %s", rejected, len(r.Success), n.Subject)
}

// Dispatcher fans out the sends of one lane and waits for all of them.
type Dispatcher struct {
	sender  mail.Sender
	timeout time.Duration
	limiter *rate.Limiter
}

// NewDispatcher returns a dispatcher. A zero timeout disables the per-send
// deadline; a zero rate disables throttling.
func NewDispatcher(sender mail.Sender, timeout time.Duration, perSecond float64) *Dispatcher {
	d := &Dispatcher{sender: sender, timeout: timeout}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return d
}

// Dispatch sends every notification concurrently and returns one outcome per
// notification, in input order. It never fails: every error is carried in
// the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, ns []Notification) []Outcome {
	out := make([]Outcome, len(ns))
	var wg sync.WaitGroup
	for i, n := range ns {
		wg.Add(1)
		go func(i int, n Notification) {
			defer wg.Done()
			out[i] = Outcome{Notification: n, Result: d.send(ctx, n)}
		}(i, n)
	}
	wg.Wait()
	return out
}

func (d *Dispatcher) send(ctx context.Context, n Notification) mail.Result {
	log := zerolog.Ctx(ctx)
	if n.Template.TemplateID == 0 {
		return mail.Failed(fmt.Sprintf("no mail template configured for %s notifications", n.Lane))
	}
	if len(n.Template.To) == 0 {
		return mail.Failed(fmt.Sprintf("no recipients for %s notification %q", n.Lane, n.Subject))
	}
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return mail.Failed(err.Error())
		}
	}

	sctx := ctx
	cancel := func() {}
	if d.timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, d.timeout)
	}
	defer cancel()

	// The sender may ignore the context, so the deadline is enforced here
	// and a late result is dropped.
	done := make(chan mail.Result, 1)
	go func() { done <- d.sender.Send(sctx, n.Template) }()

	select {
	case r := <-done:
		if !r.Delivered() && r.Err == "" {
			log.Warn().Str("lane", n.Lane.String()).Str("subject", n.Subject).
				Interface("success", r.Success).Msg("notification not acknowledged by provider")
			return mail.Result{Success: r.Success, Err: failureMessage(n, r)}
		}
		return r
	case <-sctx.Done():
		if errors.Is(sctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return mail.Failed(fmt.Sprintf("send to %s timed out after %s", n.Subject, d.timeout))
		}
		return mail.Failed(sctx.Err().Error())
	}
}

// Report is the aggregate result of a reminder run.
type Report struct {
	Errors            []string `json:"errors"`
	NotificationsSent int      `json:"notificationsSent"`
}

func newReport() *Report {
	return &Report{Errors: []string{}}
}

// Add folds outcomes into the report: accepted sends are counted, failures
// contribute their message.
func (r *Report) Add(outcomes []Outcome) {
	for _, o := range outcomes {
		if o.Sent() {
			r.NotificationsSent++
			continue
		}
		r.Errors = append(r.Errors, o.Message())
	}
}
