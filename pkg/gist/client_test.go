package gist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(context.Background(), "ghp_token", WithBaseURL(srv.URL), WithUserAgent("stayahead-test"))
}

func TestFetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/gists/abc", r.URL.Path)
		assert.Equal(t, "Bearer ghp_token", r.Header.Get("Authorization"))
		assert.Equal(t, "stayahead-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		_, _ = io.WriteString(w, `{"id":"abc","files":{"state.json":{"filename":"state.json","content":"{\"tasks\":null}"}}}`)
	})

	content, err := c.Fetch(context.Background(), "abc", "state.json")
	require.NoError(t, err)
	assert.Equal(t, `{"tasks":null}`, content)
}

func TestFetchMissingFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"files":{"other.json":{"content":"{}"}}}`)
	})

	_, err := c.Fetch(context.Background(), "abc", "state.json")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestFetchTruncatedFollowsRawURL(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gists/abc":
			_, _ = io.WriteString(w, `{"files":{"state.json":{"content":"{\"ta","truncated":true,"raw_url":"`+srvURL+`/raw/state.json"}}}`)
		case "/raw/state.json":
			assert.Equal(t, "Bearer ghp_token", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `{"tasks":[]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := NewClient(context.Background(), "ghp_token", WithBaseURL(srv.URL))
	content, err := c.Fetch(context.Background(), "abc", "state.json")
	require.NoError(t, err)
	assert.Equal(t, `{"tasks":[]}`, content)
}

func TestUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/gists/abc", r.URL.Path)
		assert.Equal(t, "Bearer ghp_token", r.Header.Get("Authorization"))

		var body struct {
			Files map[string]struct {
				Content string `json:"content"`
			} `json:"files"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, `{"tasks":[]}`, body.Files["state.json"].Content)
		_, _ = io.WriteString(w, `{}`)
	})

	require.NoError(t, c.Update(context.Background(), "abc", "state.json", `{"tasks":[]}`))
}

func TestRemoteErrorCarriesRateLimitReset(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"API rate limit exceeded"}`)
	})

	err := c.Update(context.Background(), "abc", "state.json", "{}")
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusForbidden, remote.Status)
	assert.Contains(t, remote.Body, "API rate limit exceeded")
	assert.Equal(t, "1700000000", remote.RateLimitReset)
	assert.Contains(t, err.Error(), "1700000000")
	assert.Contains(t, err.Error(), "2023-11-14T22:13:20Z")
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(context.Background(), "t", WithBaseURL(srv.URL))
	_, err := c.Fetch(context.Background(), "abc", "state.json")
	var transport *TransportError
	assert.True(t, errors.As(err, &transport))
}

func TestIncompleteConfig(t *testing.T) {
	c := NewClient(context.Background(), "t")
	_, err := c.Fetch(context.Background(), "", "state.json")
	assert.ErrorIs(t, err, ErrIncompleteConfig)
	assert.ErrorIs(t, c.Update(context.Background(), "abc", "", "{}"), ErrIncompleteConfig)
}
