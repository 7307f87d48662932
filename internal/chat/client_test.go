package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(site string) *Client {
	return &Client{
		Site:   site,
		Email:  "bot@example.com",
		APIKey: "secret",
		Stream: "mail",
	}
}

func TestPostSuccess(t *testing.T) {
	var gotForm map[string]string
	var gotUser, gotPass string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/messages", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"type":    r.PostFormValue("type"),
			"to":      r.PostFormValue("to"),
			"topic":   r.PostFormValue("topic"),
			"content": r.PostFormValue("content"),
		}
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","msg":"","id":42}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Post(context.Background(), "Budget 2024", "**Alice** wrote:\n> hi")
	require.NoError(t, err)

	assert.Equal(t, "stream", gotForm["type"])
	assert.Equal(t, "mail", gotForm["to"])
	assert.Equal(t, "Budget 2024", gotForm["topic"])
	assert.Equal(t, "**Alice** wrote:\n> hi", gotForm["content"])
	assert.Equal(t, "bot@example.com", gotUser)
	assert.Equal(t, "secret", gotPass)
}

func TestPostAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"result":"error","msg":"Invalid stream","code":"STREAM_DOES_NOT_EXIST"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Post(context.Background(), "topic", "content")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STREAM_DOES_NOT_EXIST")
	assert.Contains(t, err.Error(), "Invalid stream")
}

func TestPostNonJSONErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Post(context.Background(), "topic", "content")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestPostTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)
	err := client.Post(context.Background(), "topic", "content")
	assert.Error(t, err)
}

func TestVerifySuccess(t *testing.T) {
	var gotUser, gotPass string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users/me", r.URL.Path)
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","email":"bot@example.com"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	require.NoError(t, client.Verify(context.Background()))
	assert.Equal(t, "bot@example.com", gotUser)
	assert.Equal(t, "secret", gotPass)
}

func TestVerifyAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"result":"error","msg":"Invalid API key"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Verify(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestPostMissingCredentials(t *testing.T) {
	client := &Client{Site: "https://chat.example.com"}
	err := client.Post(context.Background(), "topic", "content")
	assert.Error(t, err)
}
