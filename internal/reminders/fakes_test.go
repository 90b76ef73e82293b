package reminders

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/helpoutwithus/functions/internal/deliverylog"
	"github.com/helpoutwithus/functions/internal/mail"
)

// fakeBackend answers queries by operation name with canned JSON data.
type fakeBackend struct {
	mu      sync.Mutex
	data    map[string]string
	errs    map[string]error
	queries []string
}

func (f *fakeBackend) Run(_ context.Context, query string, _ map[string]any, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for op, err := range f.errs {
		if strings.Contains(query, op) {
			f.queries = append(f.queries, op)
			return err
		}
	}
	for op, body := range f.data {
		if strings.Contains(query, op) {
			f.queries = append(f.queries, op)
			return json.Unmarshal([]byte(body), out)
		}
	}
	f.queries = append(f.queries, "unknown")
	return json.Unmarshal([]byte(`{}`), out)
}

func (f *fakeBackend) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fakeSender records templates and answers with respond.
type fakeSender struct {
	mu      sync.Mutex
	sent    []mail.Template
	respond func(mail.Template) mail.Result
}

func (f *fakeSender) Send(_ context.Context, t mail.Template) mail.Result {
	f.mu.Lock()
	f.sent = append(f.sent, t)
	f.mu.Unlock()
	if f.respond == nil {
		return mail.Result{Success: []bool{true}}
	}
	return f.respond(t)
}

func (f *fakeSender) templates() []mail.Template {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Template(nil), f.sent...)
}

type fakeDeliveries struct {
	mu      sync.Mutex
	entries []deliverylog.Entry
	err     error
}

func (f *fakeDeliveries) Put(_ context.Context, e deliverylog.Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return "id", f.err
}
