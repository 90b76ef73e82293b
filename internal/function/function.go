// Package function defines the event and response envelopes shared by every
// function handler.
package function

import (
	"encoding/json"

	"github.com/helpoutwithus/functions/internal/auth"
)

type EventContext struct {
	Auth *auth.Context `json:"auth,omitempty"`
}

// Event is the payload a function receives: caller supplied data plus the
// caller's identity.
type Event[T any] struct {
	Data    T            `json:"data"`
	Context EventContext `json:"context"`
}

// Response is the result/error envelope returned by a function. Exactly one of
// Data or Error is meaningful.
type Response struct {
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// MarshalJSON writes either {"data":...} or {"error":...,"details":...}.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error   string `json:"error"`
			Details string `json:"details,omitempty"`
		}{r.Error, r.Details})
	}
	return json.Marshal(struct {
		Data any `json:"data"`
	}{r.Data})
}

func OK(data any) Response {
	return Response{Data: data}
}

func Fail(msg string) Response {
	return Response{Error: msg}
}

func FailWith(msg string, err error) Response {
	r := Response{Error: msg}
	if err != nil {
		r.Details = err.Error()
	}
	return r
}
