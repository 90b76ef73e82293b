package deliverylog

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable keeps items keyed by deliveryId and pages scans one item at a time.
type fakeTable struct {
	items map[string]map[string]types.AttributeValue
	order []string
	scans int
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]types.AttributeValue{}}
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	id := in.Item["deliveryId"].(*types.AttributeValueMemberS).Value
	if _, ok := f.items[id]; !ok {
		f.order = append(f.order, id)
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["deliveryId"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeTable) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans++
	runID := in.ExpressionAttributeValues[":runId"].(*types.AttributeValueMemberS).Value
	startIdx := 0
	if in.ExclusiveStartKey != nil {
		last := in.ExclusiveStartKey["deliveryId"].(*types.AttributeValueMemberS).Value
		for i, id := range f.order {
			if id == last {
				startIdx = i + 1
			}
		}
	}
	out := &dynamodb.ScanOutput{}
	if startIdx >= len(f.order) {
		return out, nil
	}
	id := f.order[startIdx]
	item := f.items[id]
	if item["runId"].(*types.AttributeValueMemberS).Value == runID {
		out.Items = append(out.Items, item)
	}
	if startIdx+1 < len(f.order) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"deliveryId": &types.AttributeValueMemberS{Value: id}}
	}
	return out, nil
}

func TestPutGetRoundTrip(t *testing.T) {
	table := newFakeTable()
	s := New(table, "deliveries")
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	id, err := s.Put(context.Background(), Entry{
		RunID:      "run-1",
		Lane:       "personal",
		Subject:    "ann@example.com",
		TemplateID: 349788,
		Recipients: []string{"ann@example.com"},
		Status:     StatusFailed,
		Error:      "rate limited",
		SentAt:     at,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.DeliveryID)
	assert.Equal(t, 349788, got.TemplateID)
	assert.Equal(t, []string{"ann@example.com"}, got.Recipients)
	assert.Equal(t, "rate limited", got.Error)
	assert.True(t, at.Equal(got.SentAt))
}

func TestGetMissing(t *testing.T) {
	s := New(newFakeTable(), "deliveries")
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByRunFollowsPages(t *testing.T) {
	table := newFakeTable()
	s := New(table, "deliveries")
	ctx := context.Background()
	for _, run := range []string{"a", "b", "a", "a"} {
		_, err := s.Put(ctx, Entry{RunID: run, Status: StatusSent})
		require.NoError(t, err)
	}

	got, err := s.ListByRun(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 4, table.scans)
}

func TestFromStreamImage(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"deliveryId": events.NewStringAttribute("d1"),
		"runId":      events.NewStringAttribute("r1"),
		"lane":       events.NewStringAttribute("unfilled"),
		"status":     events.NewStringAttribute(StatusFailed),
		"error":      events.NewStringAttribute("boom"),
		"templateId": events.NewNumberAttribute("477313"),
		"recipients": events.NewListAttribute([]events.DynamoDBAttributeValue{events.NewStringAttribute("x@example.com")}),
		"sentAt":     events.NewStringAttribute("2024-03-01T09:00:00Z"),
	}

	e := FromStreamImage(image)
	assert.Equal(t, "d1", e.DeliveryID)
	assert.Equal(t, 477313, e.TemplateID)
	assert.Equal(t, []string{"x@example.com"}, e.Recipients)
	assert.Equal(t, StatusFailed, e.Status)
	assert.Equal(t, 2024, e.SentAt.Year())
}
