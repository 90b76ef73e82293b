package mail

import (
	"context"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/rs/zerolog"
)

const (
	fromEmail = "mailjet@noreply.helpoutwith.us"
	fromName  = "Help Out With Us"

	errNotConfigured = "Module not configured correctly."
)

type sendFunc func(*mailjet.MessagesV31) (*mailjet.ResultsV31, error)

// Mailjet sends templates through the Mailjet v3.1 send API.
type Mailjet struct {
	send sendFunc
	log  zerolog.Logger
}

// NewMailjet builds a sender from API credentials. Missing credentials yield
// a sender whose every send fails with a configuration error.
func NewMailjet(publicKey, privateKey string, log zerolog.Logger) *Mailjet {
	m := &Mailjet{log: log.With().Str("component", "mailjet").Logger()}
	switch {
	case publicKey == "":
		m.log.Error().Msg("Please provide a valid MJ_APIKEY_PUBLIC!")
	case privateKey == "":
		m.log.Error().Msg("Please provide a valid MJ_APIKEY_PRIVATE!")
	default:
		client := mailjet.NewMailjetClient(publicKey, privateKey)
		m.send = func(msgs *mailjet.MessagesV31) (*mailjet.ResultsV31, error) {
			return client.SendMailV31(msgs)
		}
	}
	return m
}

// Send implements Sender. The Mailjet client has no context support, so a
// caller enforcing a deadline must not rely on it returning early.
func (m *Mailjet) Send(ctx context.Context, t Template) Result {
	if m.send == nil {
		return Failed(errNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return Failed(err.Error())
	}

	to := toRecipients(t.To)
	cc := toRecipients(t.Cc)
	msgs := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{{
		From:             &mailjet.RecipientV31{Email: fromEmail, Name: fromName},
		To:               &to,
		Cc:               &cc,
		TemplateID:       t.TemplateID,
		TemplateLanguage: true,
		Variables:        t.Variables,
	}}}

	res, err := m.send(msgs)
	if err != nil {
		m.log.Debug().Err(err).Int("template_id", t.TemplateID).Msg("mailjet send failed")
		return Failed(err.Error())
	}

	out := Result{Success: make([]bool, 0, len(res.ResultsV31))}
	for _, r := range res.ResultsV31 {
		out.Success = append(out.Success, r.Status == "success")
	}
	return out
}

func toRecipients(addrs []Address) mailjet.RecipientsV31 {
	out := make(mailjet.RecipientsV31, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, mailjet.RecipientV31{Email: a.Email, Name: a.Name})
	}
	return out
}
