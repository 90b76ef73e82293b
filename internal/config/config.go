// Package config loads function configuration from the environment and the
// reminder daemon's schedule from YAML.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/helpoutwithus/functions/internal/mail"
)

// Env is the environment of a function. Lambda sets these through the
// function configuration; local runs may put them in a .env file.
type Env struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	GraphQLEndpoint string        `envconfig:"GRAPHQL_ENDPOINT"`
	GraphQLToken    string        `envconfig:"GRAPHQL_TOKEN"`
	GraphQLTimeout  time.Duration `envconfig:"GRAPHQL_TIMEOUT" default:"15s"`

	MailjetPublicKey    string        `envconfig:"MJ_APIKEY_PUBLIC"`
	MailjetPrivateKey   string        `envconfig:"MJ_APIKEY_PRIVATE"`
	MailSendTimeout     time.Duration `envconfig:"MAIL_SEND_TIMEOUT" default:"20s"`
	MailRatePerSec      float64       `envconfig:"MAIL_RATE_PER_SEC" default:"0"`
	MailFunctionEnabled bool          `envconfig:"MAIL_FUNCTION_ENABLED" default:"false"`

	TemplatePersonal     int `envconfig:"TEMPLATE_PERSONAL" default:"349788"`
	TemplateUnfilled     int `envconfig:"TEMPLATE_UNFILLED" default:"477313"`
	TemplateAdminSummary int `envconfig:"TEMPLATE_ADMIN_SUMMARY" default:"0"`
	TemplateOrgRole      int `envconfig:"TEMPLATE_ORG_ROLE" default:"299339"`
	TemplateActivityRole int `envconfig:"TEMPLATE_ACTIVITY_ROLE" default:"302192"`

	DeliveryTable string `envconfig:"DELIVERY_TABLE"`
	EventBusName  string `envconfig:"EVENT_BUS_NAME" default:"DeliveryEventBus"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Env, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Templates returns the mail template ids.
func (e *Env) Templates() mail.Templates {
	return mail.Templates{
		Personal:     e.TemplatePersonal,
		Unfilled:     e.TemplateUnfilled,
		AdminSummary: e.TemplateAdminSummary,
		OrgRole:      e.TemplateOrgRole,
		ActivityRole: e.TemplateActivityRole,
	}
}
