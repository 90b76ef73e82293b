// Package events publishes delivery events to EventBridge.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/eventbridge"
	"github.com/aws/aws-sdk-go/service/eventbridge/eventbridgeiface"

	"github.com/helpoutwithus/functions/internal/deliverylog"
)

const (
	Source               = "helpoutwithus.reminders"
	DetailDeliveryFailed = "DeliveryFailed"
)

type Publisher struct {
	client eventbridgeiface.EventBridgeAPI
	bus    string
}

func NewPublisher(client eventbridgeiface.EventBridgeAPI, bus string) *Publisher {
	return &Publisher{client: client, bus: bus}
}

// DeliveryFailed publishes one failed delivery log entry.
func (p *Publisher) DeliveryFailed(e deliverylog.Entry) error {
	detail, err := json.Marshal(e)
	if err != nil {
		return err
	}

	out, err := p.client.PutEvents(&eventbridge.PutEventsInput{
		Entries: []*eventbridge.PutEventsRequestEntry{{
			Source:       aws.String(Source),
			DetailType:   aws.String(DetailDeliveryFailed),
			Detail:       aws.String(string(detail)),
			EventBusName: aws.String(p.bus),
		}},
	})
	if err != nil {
		return err
	}
	if n := aws.Int64Value(out.FailedEntryCount); n > 0 {
		msg := "no error message"
		if len(out.Entries) > 0 && out.Entries[0].ErrorMessage != nil {
			msg = aws.StringValue(out.Entries[0].ErrorMessage)
		}
		return fmt.Errorf("put event rejected (%d failed): %s", n, msg)
	}
	return nil
}
