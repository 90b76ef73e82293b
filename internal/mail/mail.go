// Package mail sends templated email through the mail provider.
package mail

import "context"

// Address is an email recipient.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Template is one templated message addressed to one or more recipients.
type Template struct {
	To         []Address      `json:"to"`
	Cc         []Address      `json:"cc,omitempty"`
	TemplateID int            `json:"templateId"`
	Variables  map[string]any `json:"variables"`
}

// Result mirrors the provider acknowledgement: one flag per message attempt,
// or an error message. Err is empty on acceptance.
type Result struct {
	Success []bool `json:"success,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Delivered reports whether the provider accepted every message.
func (r Result) Delivered() bool {
	if r.Err != "" || len(r.Success) == 0 {
		return false
	}
	for _, ok := range r.Success {
		if !ok {
			return false
		}
	}
	return true
}

// Sender sends a template. Implementations never return a Go error: every
// failure is reported through Result.Err.
type Sender interface {
	Send(ctx context.Context, t Template) Result
}

// Templates holds the provider template ids used by the functions. A zero id
// means the template is not configured.
type Templates struct {
	Personal     int
	Unfilled     int
	AdminSummary int
	OrgRole      int
	ActivityRole int
}

// Failed builds an error result.
func Failed(msg string) Result {
	return Result{Err: msg}
}
