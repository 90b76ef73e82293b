// Package backend talks to the hosted GraphQL API that owns organizations,
// activities, spots and users.
package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/machinebox/graphql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Executor runs a GraphQL document and decodes its data into out.
type Executor interface {
	Run(ctx context.Context, query string, vars map[string]any, out any) error
}

// Client is an Executor over HTTP. It authenticates every request with the
// configured token, normally a permanent access token.
type Client struct {
	gql   *graphql.Client
	token string
}

// NewClient builds a client for the project endpoint. A zero timeout leaves
// request deadlines to the caller's context.
func NewClient(endpoint, token string, timeout time.Duration, log zerolog.Logger) *Client {
	hc := &http.Client{Timeout: timeout}
	gql := graphql.NewClient(endpoint, graphql.WithHTTPClient(hc))
	l := log.With().Str("component", "graphql").Logger()
	gql.Log = func(s string) { l.Trace().Msg(s) }
	return &Client{gql: gql, token: token}
}

func (c *Client) Run(ctx context.Context, query string, vars map[string]any, out any) error {
	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if err := c.gql.Run(ctx, req, out); err != nil {
		return errors.Wrap(err, "graphql")
	}
	return nil
}
