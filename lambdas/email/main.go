package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/helpoutwithus/functions/internal/app"
	"github.com/helpoutwithus/functions/internal/auth"
	"github.com/helpoutwithus/functions/internal/function"
	"github.com/helpoutwithus/functions/internal/logging"
	"github.com/helpoutwithus/functions/internal/mail"
)

const (
	errVariables = "variables must be a valid JSON object"
	errDisabled  = "mutation currently disabled"
)

// SendTemplateRequest carries the template variables as a JSON encoded
// object.
type SendTemplateRequest struct {
	To         []mail.Address `json:"to"`
	Cc         []mail.Address `json:"cc"`
	TemplateID int            `json:"templateId"`
	Variables  string         `json:"variables"`
}

type emailer struct {
	sender  mail.Sender
	enabled bool
	log     zerolog.Logger
}

func (e *emailer) sendTemplate(ctx context.Context, ev function.Event[SendTemplateRequest]) function.Response {
	var vars map[string]any
	if err := json.Unmarshal([]byte(ev.Data.Variables), &vars); err != nil || vars == nil {
		return function.Fail(errVariables)
	}
	if !e.enabled {
		return function.Fail(errDisabled)
	}
	if err := auth.RequireRoot(ev.Context.Auth); err != nil {
		return function.Fail(err.Error())
	}

	res := e.sender.Send(ctx, mail.Template{
		To:         ev.Data.To,
		Cc:         ev.Data.Cc,
		TemplateID: ev.Data.TemplateID,
		Variables:  vars,
	})
	if res.Err != "" {
		logging.From(ctx).Error().Str("error", res.Err).Int("template_id", ev.Data.TemplateID).Msg("send failed")
		return function.Fail(res.Err)
	}
	return function.OK(struct {
		Success []bool `json:"success"`
	}{res.Success})
}

func (e *emailer) handler(ctx context.Context, ev function.Event[SendTemplateRequest]) (function.Response, error) {
	ctx, _ = logging.WithInvocation(ctx, e.log)
	return e.sendTemplate(ctx, ev), nil
}

func main() {
	a := app.MustLoad("email")
	e := &emailer{sender: a.Mailer(), enabled: a.Env.MailFunctionEnabled, log: a.Log}
	lambda.Start(e.handler)
}
