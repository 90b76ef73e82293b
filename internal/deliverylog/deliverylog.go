// Package deliverylog records every reminder email send attempt in DynamoDB
// for operational visibility. The reminder run never reads it back.
package deliverylog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// Delivery outcomes.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

var ErrNotFound = errors.New("delivery not found")

// API is the subset of the DynamoDB client the store uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Entry is one send attempt.
type Entry struct {
	DeliveryID string    `json:"deliveryId"`
	RunID      string    `json:"runId"`
	Lane       string    `json:"lane"`
	Subject    string    `json:"subject"`
	TemplateID int       `json:"templateId"`
	Recipients []string  `json:"recipients"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	SentAt     time.Time `json:"sentAt"`
}

type Store struct {
	api   API
	table string
}

func New(api API, table string) *Store {
	return &Store{api: api, table: table}
}

// Put writes e, assigning a delivery id when e has none.
func (s *Store) Put(ctx context.Context, e Entry) (string, error) {
	if e.DeliveryID == "" {
		e.DeliveryID = uuid.New().String()
	}
	if e.SentAt.IsZero() {
		e.SentAt = time.Now().UTC()
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      toItem(e),
	})
	if err != nil {
		return "", err
	}
	return e.DeliveryID, nil
}

func (s *Store) Get(ctx context.Context, deliveryID string) (Entry, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"deliveryId": &types.AttributeValueMemberS{Value: deliveryID},
		},
	})
	if err != nil {
		return Entry{}, err
	}
	if out.Item == nil {
		return Entry{}, ErrNotFound
	}
	return fromItem(out.Item), nil
}

// ListByRun scans for every entry of one reminder run, following pagination.
func (s *Store) ListByRun(ctx context.Context, runID string) ([]Entry, error) {
	var (
		entries []Entry
		start   map[string]types.AttributeValue
	)
	for {
		out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.table),
			FilterExpression: aws.String("runId = :runId"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":runId": &types.AttributeValueMemberS{Value: runID},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			entries = append(entries, fromItem(item))
		}
		if len(out.LastEvaluatedKey) == 0 {
			return entries, nil
		}
		start = out.LastEvaluatedKey
	}
}

func toItem(e Entry) map[string]types.AttributeValue {
	recipients := make([]types.AttributeValue, 0, len(e.Recipients))
	for _, r := range e.Recipients {
		recipients = append(recipients, &types.AttributeValueMemberS{Value: r})
	}
	item := map[string]types.AttributeValue{
		"deliveryId": &types.AttributeValueMemberS{Value: e.DeliveryID}, // Partition Key
		"runId":      &types.AttributeValueMemberS{Value: e.RunID},
		"lane":       &types.AttributeValueMemberS{Value: e.Lane},
		"subject":    &types.AttributeValueMemberS{Value: e.Subject},
		"templateId": &types.AttributeValueMemberN{Value: strconv.Itoa(e.TemplateID)},
		"recipients": &types.AttributeValueMemberL{Value: recipients},
		"status":     &types.AttributeValueMemberS{Value: e.Status},
		"sentAt":     &types.AttributeValueMemberS{Value: e.SentAt.UTC().Format(time.RFC3339Nano)},
	}
	if e.Error != "" {
		item["error"] = &types.AttributeValueMemberS{Value: e.Error}
	}
	return item
}

func fromItem(item map[string]types.AttributeValue) Entry {
	str := func(k string) string {
		if v, ok := item[k].(*types.AttributeValueMemberS); ok {
			return v.Value
		}
		return ""
	}
	e := Entry{
		DeliveryID: str("deliveryId"),
		RunID:      str("runId"),
		Lane:       str("lane"),
		Subject:    str("subject"),
		Status:     str("status"),
		Error:      str("error"),
	}
	if v, ok := item["templateId"].(*types.AttributeValueMemberN); ok {
		e.TemplateID, _ = strconv.Atoi(v.Value)
	}
	if v, ok := item["recipients"].(*types.AttributeValueMemberL); ok {
		for _, r := range v.Value {
			if s, ok := r.(*types.AttributeValueMemberS); ok {
				e.Recipients = append(e.Recipients, s.Value)
			}
		}
	}
	e.SentAt, _ = time.Parse(time.RFC3339Nano, str("sentAt"))
	return e
}

// FromStreamImage decodes a DynamoDB stream image of the delivery table.
func FromStreamImage(image map[string]events.DynamoDBAttributeValue) Entry {
	str := func(k string) string {
		if v, ok := image[k]; ok && v.DataType() == events.DataTypeString {
			return v.String()
		}
		return ""
	}
	e := Entry{
		DeliveryID: str("deliveryId"),
		RunID:      str("runId"),
		Lane:       str("lane"),
		Subject:    str("subject"),
		Status:     str("status"),
		Error:      str("error"),
	}
	if v, ok := image["templateId"]; ok && v.DataType() == events.DataTypeNumber {
		e.TemplateID, _ = strconv.Atoi(v.Number())
	}
	if v, ok := image["recipients"]; ok && v.DataType() == events.DataTypeList {
		for _, r := range v.List() {
			if r.DataType() == events.DataTypeString {
				e.Recipients = append(e.Recipients, r.String())
			}
		}
	}
	e.SentAt, _ = time.Parse(time.RFC3339Nano, str("sentAt"))
	return e
}
