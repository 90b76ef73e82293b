// Package users resolves the calling user.
package users

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/helpoutwithus/functions/internal/backend"
	"github.com/helpoutwithus/functions/internal/function"
)

const errAuthentication = "An unexpected error occured during authentication."

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	PhotoLink string `json:"photoLink"`
}

const getUserQuery = `
query getUser($id: ID!) {
  User(id: $id) {
    id
    name
    email
    photoLink
  }
}`

// Lookup returns the user with the given id, or nil when there is none.
func Lookup(ctx context.Context, exec backend.Executor, id string) (*User, error) {
	var resp struct {
		User *User `json:"User"`
	}
	if err := exec.Run(ctx, getUserQuery, map[string]any{"id": id}, &resp); err != nil {
		return nil, errors.Wrap(err, "getUser")
	}
	return resp.User, nil
}

type Service struct {
	exec backend.Executor
	log  zerolog.Logger
}

func New(exec backend.Executor, log zerolog.Logger) *Service {
	return &Service{exec: exec, log: log}
}

// LoggedInUser returns the caller, or null data for an anonymous caller.
func (s *Service) LoggedInUser(ctx context.Context, ev function.Event[struct{}]) function.Response {
	if !ev.Context.Auth.Authenticated() {
		return function.OK(nil)
	}

	u, err := Lookup(ctx, s.exec, ev.Context.Auth.NodeID)
	if err != nil {
		s.log.Error().Err(err).Str("node_id", ev.Context.Auth.NodeID).Msg("user lookup failed")
		return function.Fail(errAuthentication)
	}
	if u == nil || u.ID == "" {
		return function.OK(nil)
	}
	return function.OK(u)
}
