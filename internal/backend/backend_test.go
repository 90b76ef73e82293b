package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRun(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"User":{"id":"u1","name":"Ann"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second, zerolog.Nop())

	var out struct {
		User struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"User"`
	}
	err := c.Run(context.Background(), "query getUser($id: ID!) { User(id: $id) { id name } }", map[string]any{"id": "u1"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Contains(t, gotBody.Query, "getUser")
	assert.Equal(t, "u1", gotBody.Variables["id"])
	assert.Equal(t, "Ann", out.User.Name)
}

func TestClientRunGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[{"message":"Insufficient Permissions"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, zerolog.Nop())
	err := c.Run(context.Background(), "{ allUsers { id } }", nil, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient Permissions")
}
