package events

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/eventbridge"
	"github.com/aws/aws-sdk-go/service/eventbridge/eventbridgeiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpoutwithus/functions/internal/deliverylog"
)

type fakeEventBridge struct {
	eventbridgeiface.EventBridgeAPI
	inputs []*eventbridge.PutEventsInput
	out    *eventbridge.PutEventsOutput
}

func (f *fakeEventBridge) PutEvents(in *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.out != nil {
		return f.out, nil
	}
	return &eventbridge.PutEventsOutput{FailedEntryCount: aws.Int64(0)}, nil
}

func TestDeliveryFailed(t *testing.T) {
	fake := &fakeEventBridge{}
	p := NewPublisher(fake, "DeliveryEventBus")

	err := p.DeliveryFailed(deliverylog.Entry{DeliveryID: "d1", RunID: "r1", Status: deliverylog.StatusFailed, Error: "boom"})
	require.NoError(t, err)

	require.Len(t, fake.inputs, 1)
	entry := fake.inputs[0].Entries[0]
	assert.Equal(t, Source, aws.StringValue(entry.Source))
	assert.Equal(t, DetailDeliveryFailed, aws.StringValue(entry.DetailType))
	assert.Equal(t, "DeliveryEventBus", aws.StringValue(entry.EventBusName))

	var detail deliverylog.Entry
	require.NoError(t, json.Unmarshal([]byte(aws.StringValue(entry.Detail)), &detail))
	assert.Equal(t, "boom", detail.Error)
}

func TestDeliveryFailedRejected(t *testing.T) {
	fake := &fakeEventBridge{out: &eventbridge.PutEventsOutput{
		FailedEntryCount: aws.Int64(1),
		Entries:          []*eventbridge.PutEventsResultEntry{{ErrorMessage: aws.String("throttled")}},
	}}
	err := NewPublisher(fake, "bus").DeliveryFailed(deliverylog.Entry{})
	assert.ErrorContains(t, err, "throttled")
}

func TestDeliveryFailedRejectedWithoutEntries(t *testing.T) {
	fake := &fakeEventBridge{out: &eventbridge.PutEventsOutput{FailedEntryCount: aws.Int64(1)}}
	err := NewPublisher(fake, "bus").DeliveryFailed(deliverylog.Entry{})
	assert.EqualError(t, err, "put event rejected (1 failed): no error message")
}
