package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/helpoutwithus/functions/internal/app"
	"github.com/helpoutwithus/functions/internal/deliverylog"
	appevents "github.com/helpoutwithus/functions/internal/events"
	"github.com/helpoutwithus/functions/internal/logging"
)

type auditor struct {
	log zerolog.Logger
}

// handler writes one structured line per delivery event. Malformed details
// are logged and dropped so the rule does not redeliver them.
func (a *auditor) handler(ctx context.Context, event events.CloudWatchEvent) error {
	_, log := logging.WithInvocation(ctx, a.log)

	if event.DetailType != appevents.DetailDeliveryFailed {
		log.Debug().Str("detail_type", event.DetailType).Msg("ignoring event")
		return nil
	}

	var entry deliverylog.Entry
	if err := json.Unmarshal(event.Detail, &entry); err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("malformed delivery event")
		return nil
	}

	log.Warn().
		Str("event_id", event.ID).
		Str("delivery_id", entry.DeliveryID).
		Str("run_id", entry.RunID).
		Str("lane", entry.Lane).
		Str("subject", entry.Subject).
		Int("template_id", entry.TemplateID).
		Strs("recipients", entry.Recipients).
		Str("error", entry.Error).
		Time("sent_at", entry.SentAt).
		Msg("reminder delivery failed")
	return nil
}

func main() {
	a := app.MustLoad("logging")
	lambda.Start((&auditor{log: a.Log}).handler)
}
