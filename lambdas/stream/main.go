package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/eventbridge"
	"github.com/rs/zerolog"

	"github.com/helpoutwithus/functions/internal/app"
	"github.com/helpoutwithus/functions/internal/deliverylog"
	appevents "github.com/helpoutwithus/functions/internal/events"
	"github.com/helpoutwithus/functions/internal/logging"
)

type publisher interface {
	DeliveryFailed(e deliverylog.Entry) error
}

type forwarder struct {
	events publisher
	log    zerolog.Logger
}

// handler forwards newly recorded failed deliveries. Returning an error makes
// Lambda retry the whole batch.
func (f *forwarder) handler(ctx context.Context, dynamodbEvent events.DynamoDBEvent) error {
	_, log := logging.WithInvocation(ctx, f.log)
	log.Debug().Int("records", len(dynamodbEvent.Records)).Msg("stream batch received")

	forwarded := 0
	for _, record := range dynamodbEvent.Records {
		if events.DynamoDBOperationType(record.EventName) != events.DynamoDBOperationTypeInsert {
			continue
		}
		entry := deliverylog.FromStreamImage(record.Change.NewImage)
		if entry.Status != deliverylog.StatusFailed {
			continue
		}
		if err := f.events.DeliveryFailed(entry); err != nil {
			log.Error().Err(err).Str("event_id", record.EventID).Str("delivery_id", entry.DeliveryID).
				Msg("failed to put event")
			return err
		}
		forwarded++
	}

	log.Info().Int("records", len(dynamodbEvent.Records)).Int("forwarded", forwarded).Msg("stream batch processed")
	return nil
}

func main() {
	a := app.MustLoad("stream")
	sess := session.Must(session.NewSession())
	f := &forwarder{
		events: appevents.NewPublisher(eventbridge.New(sess), a.Env.EventBusName),
		log:    a.Log,
	}
	lambda.Start(f.handler)
}
