package fivetran

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAgentSuccess(t *testing.T) {
	var gotBody registrationRequest
	var gotAuthOK bool
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, pass, ok := r.BasicAuth()
		gotAuthOK = ok && user == "key123" && pass == "secret456"
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"token":"abc123"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key123", "secret456")
	token, err := client.RegisterAgent(context.Background(), "test-agent", "group_abc")

	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	assert.Equal(t, "/v1/hybrid-deployment-agents", gotPath)
	assert.True(t, gotAuthOK, "expected basic auth with configured key/secret")
	assert.True(t, gotBody.AcceptTerms)
	assert.Equal(t, "test-agent", gotBody.DisplayName)
	assert.Equal(t, "AWS", gotBody.EnvType)
	assert.Equal(t, "AUTO", gotBody.AuthType)
	assert.Equal(t, "group_abc", gotBody.GroupID)
}

func TestRegisterAgentAcceptsStatus200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"token":"tok200"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s")
	token, err := client.RegisterAgent(context.Background(), "a", "g")
	require.NoError(t, err)
	assert.Equal(t, "tok200", token)
}

func TestRegisterAgentHTTPErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"code":"error"}`))
		}))

		client := NewClient(server.URL, "k", "s")
		token, err := client.RegisterAgent(context.Background(), "a", "g")

		assert.Empty(t, token)
		var regErr *RegistrationError
		require.ErrorAs(t, err, &regErr)
		assert.Equal(t, status, regErr.StatusCode)
		assert.Contains(t, regErr.Body, "error")

		server.Close()
	}
}

func TestRegisterAgentMissingToken(t *testing.T) {
	cases := map[string]string{
		"empty data":    `{"data":{}}`,
		"null token":    `{"data":{"token":null}}`,
		"no data field": `{"code":"Success"}`,
		"not json":      `token granted`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "k", "s")
			token, err := client.RegisterAgent(context.Background(), "a", "g")

			assert.Empty(t, token)
			var tokenErr *TokenExtractionError
			require.ErrorAs(t, err, &tokenErr)
			assert.Equal(t, body, tokenErr.Body)
		})
	}
}

func TestRegisterAgentConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "k", "s")
	_, err := client.RegisterAgent(context.Background(), "a", "g")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fivetran API")
}
