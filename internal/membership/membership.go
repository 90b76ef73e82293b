// Package membership implements the organization and activity creators and
// the member role management functions.
package membership

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpoutwithus/functions/internal/backend"
	"github.com/helpoutwithus/functions/internal/domain"
	"github.com/helpoutwithus/functions/internal/function"
	"github.com/helpoutwithus/functions/internal/mail"
)

const notifyTimeout = 10 * time.Second

type Service struct {
	exec      backend.Executor
	sender    mail.Sender
	templates mail.Templates
	log       zerolog.Logger
}

func New(exec backend.Executor, sender mail.Sender, templates mail.Templates, log zerolog.Logger) *Service {
	return &Service{exec: exec, sender: sender, templates: templates, log: log}
}

// roleLink is an organization or activity role of one user.
type roleLink struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// member is a user together with their role links filtered to one
// organization and, for activities, one activity.
type member struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Organizations []roleLink `json:"organizations"`
	Activities    []roleLink `json:"activities"`
}

// notify sends a role change email. Failures are logged and never fail the
// function.
func (s *Service) notify(ctx context.Context, t mail.Template) {
	if t.TemplateID == 0 {
		s.log.Warn().Msg("role notification template not configured")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if res := s.sender.Send(ctx, t); res.Err != "" {
		s.log.Error().Str("error", res.Err).Int("template_id", t.TemplateID).Msg("role notification failed")
	}
}

// fail logs err and returns msg alone. Backend errors never reach the caller.
func (s *Service) fail(msg string, err error) function.Response {
	s.log.Error().Err(err).Msg(msg)
	return function.Fail(msg)
}
