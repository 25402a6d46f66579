// Package gist reads and writes one file of a GitHub gist.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "stayahead"
	apiVersion       = "2022-11-28"
)

// Client talks to the gist REST API with a bearer token.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient returns a client that authenticates every request with token.
// An *http.Client stored in ctx under oauth2.HTTPClient is used as the base
// transport.
func NewClient(ctx context.Context, token string, opts ...Option) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: oauth2.NewClient(ctx, src),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistDoc struct {
	Files map[string]*gistFile `json:"files"`
}

// Fetch returns the content of fileName in the gist.
func (c *Client) Fetch(ctx context.Context, gistID, fileName string) (string, error) {
	if gistID == "" || fileName == "" {
		return "", ErrIncompleteConfig
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.gistURL(gistID), nil)
	if err != nil {
		return "", err
	}

	var doc gistDoc
	if err := c.do(req, "fetch gist", &doc); err != nil {
		return "", err
	}

	file, ok := doc.Files[fileName]
	if !ok || file == nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, fileName)
	}
	if file.Truncated && file.RawURL != "" {
		return c.fetchRaw(ctx, file.RawURL)
	}
	return file.Content, nil
}

// fetchRaw follows raw_url for files too large to inline.
func (c *Client) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "fetch raw file", Err: err}
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return "", err
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "read raw file", Err: err}
	}
	return string(b), nil
}

// Update replaces the content of fileName in the gist.
func (c *Client) Update(ctx context.Context, gistID, fileName, content string) error {
	if gistID == "" || fileName == "" {
		return ErrIncompleteConfig
	}

	body, err := json.Marshal(gistDoc{Files: map[string]*gistFile{fileName: {Content: content}}})
	if err != nil {
		return fmt.Errorf("encode gist update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, c.gistURL(gistID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "update gist", nil)
}

func (c *Client) gistURL(gistID string) string {
	return c.baseURL + "/gists/" + url.PathEscape(gistID)
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	return req, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// checkResponse converts a non-2xx response into a *RemoteError.
func checkResponse(resp *http.Response) error {
	err := googleapi.CheckResponse(resp)
	if err == nil {
		return nil
	}

	remote := &RemoteError{
		Status:         resp.StatusCode,
		RateLimitReset: resp.Header.Get("X-RateLimit-Reset"),
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		remote.Body = gerr.Body
	}
	return remote
}
