// Package app wires the clients every function main needs from the
// environment.
package app

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"

	"github.com/helpoutwithus/functions/internal/backend"
	appconfig "github.com/helpoutwithus/functions/internal/config"
	"github.com/helpoutwithus/functions/internal/deliverylog"
	"github.com/helpoutwithus/functions/internal/logging"
	"github.com/helpoutwithus/functions/internal/mail"
	"github.com/helpoutwithus/functions/internal/reminders"
)

// App holds the environment and the logger of one function.
type App struct {
	Env *appconfig.Env
	Log zerolog.Logger
}

// MustLoad reads the environment or exits; a function cannot start without
// it.
func MustLoad(function string) *App {
	env, err := appconfig.Load()
	if err != nil {
		log.Fatalf("unable to load configuration, %v", err)
	}
	return &App{Env: env, Log: logging.New(env.LogLevel, function)}
}

func (a *App) Backend() *backend.Client {
	if a.Env.GraphQLEndpoint == "" {
		a.Log.Fatal().Msg("GRAPHQL_ENDPOINT is required")
	}
	return backend.NewClient(a.Env.GraphQLEndpoint, a.Env.GraphQLToken, a.Env.GraphQLTimeout, a.Log)
}

func (a *App) Mailer() *mail.Mailjet {
	return mail.NewMailjet(a.Env.MailjetPublicKey, a.Env.MailjetPrivateKey, a.Log)
}

// Deliveries returns the delivery log store, or nil when DELIVERY_TABLE is
// not set.
func (a *App) Deliveries(ctx context.Context) *deliverylog.Store {
	if a.Env.DeliveryTable == "" {
		return nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		a.Log.Fatal().Err(err).Msg("unable to load SDK config")
	}
	return deliverylog.New(dynamodb.NewFromConfig(cfg), a.Env.DeliveryTable)
}

// Reminders builds the reminder service with every configured collaborator.
func (a *App) Reminders(ctx context.Context, opts ...reminders.Option) *reminders.Service {
	dispatcher := reminders.NewDispatcher(a.Mailer(), a.Env.MailSendTimeout, a.Env.MailRatePerSec)
	opts = append([]reminders.Option{reminders.WithLogger(a.Log)}, opts...)
	if store := a.Deliveries(ctx); store != nil {
		opts = append(opts, reminders.WithDeliveryLog(store))
	}
	return reminders.New(a.Backend(), dispatcher, a.Env.Templates(), opts...)
}
