package gist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrIncompleteConfig is returned before any request when the token, gist
// id or file name is missing.
var ErrIncompleteConfig = errors.New("sync settings incomplete: token, gist id and file name are required")

// ErrFileNotFound means the gist exists but holds no file with the name.
var ErrFileNotFound = errors.New("file not found in gist")

// TransportError wraps a failure to reach the API at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError is a non-2xx response. Body is the raw response body and
// RateLimitReset the X-RateLimit-Reset header, when present.
type RemoteError struct {
	Status         int
	Body           string
	RateLimitReset string
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "remote returned %d", e.Status)
	if body := strings.TrimSpace(e.Body); body != "" {
		fmt.Fprintf(&b, ": %s", body)
	}
	if e.RateLimitReset != "" {
		fmt.Fprintf(&b, " (rate limit resets at %s", e.RateLimitReset)
		if secs, err := strconv.ParseInt(e.RateLimitReset, 10, 64); err == nil {
			fmt.Fprintf(&b, ", %s", time.Unix(secs, 0).UTC().Format(time.RFC3339))
		}
		b.WriteString(")")
	}
	return b.String()
}
