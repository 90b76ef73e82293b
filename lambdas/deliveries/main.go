package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/helpoutwithus/functions/internal/app"
	"github.com/helpoutwithus/functions/internal/deliverylog"
	"github.com/helpoutwithus/functions/internal/logging"
)

type store interface {
	Get(ctx context.Context, deliveryID string) (deliverylog.Entry, error)
	ListByRun(ctx context.Context, runID string) ([]deliverylog.Entry, error)
}

type api struct {
	deliveries store
	log        zerolog.Logger
}

func respond(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func respondJSON(v any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return respond(http.StatusInternalServerError, `{"error":"Error generating response"}`)
	}
	return respond(http.StatusOK, string(b))
}

func (a *api) handleGet(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	log := logging.From(ctx)

	if id := request.PathParameters["deliveryId"]; id != "" {
		entry, err := a.deliveries.Get(ctx, id)
		if errors.Is(err, deliverylog.ErrNotFound) {
			return respond(http.StatusNotFound, `{"error":"Item not found"}`)
		}
		if err != nil {
			log.Error().Err(err).Str("delivery_id", id).Msg("delivery lookup failed")
			return respond(http.StatusInternalServerError, `{"error":"Failed to read delivery"}`)
		}
		return respondJSON(entry)
	}

	runID := request.QueryStringParameters["runId"]
	if runID == "" {
		return respond(http.StatusBadRequest, `{"error":"Missing deliveryId or runId"}`)
	}
	entries, err := a.deliveries.ListByRun(ctx, runID)
	if err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("delivery listing failed")
		return respond(http.StatusInternalServerError, `{"error":"Failed to list deliveries"}`)
	}
	if entries == nil {
		entries = []deliverylog.Entry{}
	}
	return respondJSON(entries)
}

func (a *api) handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, _ = logging.WithInvocation(ctx, a.log)
	switch request.HTTPMethod {
	case http.MethodGet:
		return a.handleGet(ctx, request), nil
	default:
		return respond(http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`), nil
	}
}

func main() {
	a := app.MustLoad("deliveries")
	deliveries := a.Deliveries(context.Background())
	if deliveries == nil {
		a.Log.Fatal().Msg("DELIVERY_TABLE is required")
	}
	lambda.Start((&api{deliveries: deliveries, log: a.Log}).handler)
}
