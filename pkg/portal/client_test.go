package portal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetchMemberships(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/learn/api/v1/users/_42_1/memberships", r.URL.Path)
		assert.Equal(t, "course", r.URL.Query().Get("expand"))
		assert.Equal(t, "JSESSIONID=abc", r.Header.Get("Cookie"))
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	body, err := c.FetchMemberships(context.Background(), "JSESSIONID=abc", "_42_1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[]}`, string(body))
}

func TestClientFetchActivityStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, StreamPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "JSESSIONID=abc", r.Header.Get("Cookie"))

		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		providers, ok := payload["providers"].(map[string]any)
		require.True(t, ok, "request must carry the provider signature")
		assert.Contains(t, providers, StreamProviderID)

		w.Write([]byte(`{"streamEntries":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	body, err := c.FetchActivityStream(context.Background(), "JSESSIONID=abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"streamEntries":[]}`, string(body))
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchMemberships(context.Background(), "stale", "_1_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClientContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchMemberships(ctx, "c", "_1_1")
	assert.Error(t, err)
}
