// Package storage persists the state document as raw bytes.
package storage

import (
	"context"
	"errors"
)

// StorageKey names the saved document in every backend.
const StorageKey = "PaleggWorks_StayAhead_AppState"

// ErrNotFound is returned by Read when nothing has been saved yet.
var ErrNotFound = errors.New("storage: document not found")

// Backend reads and writes the whole state document.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}
