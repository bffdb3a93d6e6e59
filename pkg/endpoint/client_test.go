package endpoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb-query/kb-query-go/pkg/models"
)

const selectJSON = `{
  "head": {"vars": ["meeting", "person_name"]},
  "results": {"bindings": [
    {
      "meeting": {"type": "uri", "value": "http://example.org/kb#m1"},
      "person_name": {"type": "literal", "value": "John Smith"}
    },
    {
      "meeting": {"type": "uri", "value": "http://example.org/kb#m2"},
      "person_name": {"type": "literal", "value": "Sarah Chen", "xml:lang": "en"}
    }
  ]}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, ep models.Endpoint) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	ep.URL = server.URL
	client, err := NewClient(ep, nil)
	require.NoError(t, err)
	return client
}

func TestExecuteSelect(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/sparql-results+json", r.Header.Get("Accept"))
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.Form.Get("query"), "SELECT")
		w.Write([]byte(selectJSON))
	}, models.Endpoint{Name: "test"})

	result, err := client.Execute(context.Background(), "SELECT ?meeting ?person_name WHERE { ?meeting ?p ?person_name }")
	require.NoError(t, err)

	assert.Equal(t, []string{"meeting", "person_name"}, result.Variables)
	require.Len(t, result.Bindings, 2)
	assert.Equal(t, "John Smith", result.Bindings[0]["person_name"].Value)
	assert.Equal(t, "uri", result.Bindings[0]["meeting"].Type)
	assert.Equal(t, "en", result.Bindings[1]["person_name"].Lang)
	assert.Nil(t, result.Boolean)
}

func TestExecuteAsk(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"head": {}, "boolean": true}`))
	}, models.Endpoint{Name: "test"})

	result, err := client.Execute(context.Background(), "ASK { ?s ?p ?o }")
	require.NoError(t, err)
	require.NotNil(t, result.Boolean)
	assert.True(t, *result.Boolean)
	assert.Empty(t, result.Bindings)
}

func TestExecuteServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "parse error", http.StatusBadRequest)
	}, models.Endpoint{Name: "test"})

	_, err := client.Execute(context.Background(), "SELECT ?x WHERE { ?x ?p ?o }")
	require.Error(t, err)

	var endpointErr *EndpointError
	require.ErrorAs(t, err, &endpointErr)
	assert.Equal(t, http.StatusBadRequest, endpointErr.StatusCode)
	assert.Contains(t, err.Error(), "status 400")
}

func TestAuthHeaders(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "alice", user)
			assert.Equal(t, "secret", pass)
			w.Write([]byte(`{"head": {}, "boolean": true}`))
		}, models.Endpoint{Name: "test", AuthType: models.AuthBasic, Username: "alice", Password: "secret"})

		_, err := client.Execute(context.Background(), "ASK { ?s ?p ?o }")
		require.NoError(t, err)
	})

	t.Run("bearer with custom headers", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
			assert.Equal(t, "yes", r.Header.Get("X-Custom"))
			w.Write([]byte(`{"head": {}, "boolean": true}`))
		}, models.Endpoint{
			Name:     "test",
			AuthType: models.AuthBearer,
			Token:    "tok123",
			Headers:  map[string]string{"X-Custom": "yes"},
		})

		_, err := client.Execute(context.Background(), "ASK { ?s ?p ?o }")
		require.NoError(t, err)
	})
}

func TestTestConnection(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"head": {}, "boolean": true}`))
		}, models.Endpoint{Name: "test"})
		assert.True(t, client.TestConnection(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		client, err := NewClient(models.Endpoint{Name: "down", URL: "http://127.0.0.1:1", TimeoutSeconds: 1}, nil)
		require.NoError(t, err)
		assert.False(t, client.TestConnection(context.Background()))
	})
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(models.Endpoint{}, nil)
	require.Error(t, err)

	_, err = NewClient(models.Endpoint{URL: "http://localhost:3030", AuthType: models.AuthBasic}, nil)
	require.Error(t, err)
}
