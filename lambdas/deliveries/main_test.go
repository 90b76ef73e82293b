package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpoutwithus/functions/internal/deliverylog"
)

type memStore struct {
	entries map[string]deliverylog.Entry
	err     error
}

func (m *memStore) Get(_ context.Context, id string) (deliverylog.Entry, error) {
	if m.err != nil {
		return deliverylog.Entry{}, m.err
	}
	e, ok := m.entries[id]
	if !ok {
		return deliverylog.Entry{}, deliverylog.ErrNotFound
	}
	return e, nil
}

func (m *memStore) ListByRun(_ context.Context, runID string) ([]deliverylog.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []deliverylog.Entry
	for _, e := range m.entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newAPI(s store) *api {
	return &api{deliveries: s, log: zerolog.Nop()}
}

func TestHandler(t *testing.T) {
	s := &memStore{entries: map[string]deliverylog.Entry{
		"d1": {DeliveryID: "d1", RunID: "r1", Lane: "personal", Status: deliverylog.StatusSent},
		"d2": {DeliveryID: "d2", RunID: "r1", Lane: "unfilled", Status: deliverylog.StatusFailed},
	}}
	a := newAPI(s)

	t.Run("get by id", func(t *testing.T) {
		resp, err := a.handler(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod:     http.MethodGet,
			PathParameters: map[string]string{"deliveryId": "d1"},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var e deliverylog.Entry
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &e))
		assert.Equal(t, "personal", e.Lane)
	})

	t.Run("unknown id", func(t *testing.T) {
		resp, err := a.handler(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod:     http.MethodGet,
			PathParameters: map[string]string{"deliveryId": "nope"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("list by run", func(t *testing.T) {
		resp, err := a.handler(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod:            http.MethodGet,
			QueryStringParameters: map[string]string{"runId": "r1"},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list []deliverylog.Entry
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &list))
		assert.Len(t, list, 2)
	})

	t.Run("empty run lists as array", func(t *testing.T) {
		resp, err := a.handler(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod:            http.MethodGet,
			QueryStringParameters: map[string]string{"runId": "r9"},
		})
		require.NoError(t, err)
		assert.Equal(t, "[]", resp.Body)
	})

	t.Run("missing selector", func(t *testing.T) {
		resp, err := a.handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := a.handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost})
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHandlerStoreError(t *testing.T) {
	a := newAPI(&memStore{err: errors.New("throttled")})
	resp, err := a.handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodGet,
		PathParameters: map[string]string{"deliveryId": "d1"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, resp.Body, "throttled")
}
