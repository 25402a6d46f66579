// Package state holds the live application state: the ordered task list,
// sync credentials and the transient sync status.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paleggworks/stayahead/pkg/model"
	"github.com/paleggworks/stayahead/pkg/storage"
)

// Store is safe for concurrent use. Mutations persist through the backend
// after the in-memory change; a failed write is logged and dropped.
type Store struct {
	mu      sync.Mutex
	backend storage.Backend
	logger  *slog.Logger
	now     func() time.Time

	// tasks stays nil until the first task exists, mirroring "tasks": null.
	tasks  []model.Task
	creds  Credentials
	mode   SyncMode
	msg    string
	lastID int64

	listeners    map[int]Listener
	nextListener int
}

type Option func(*Store)

// WithClock replaces time.Now, used for ids and progress.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns an empty store writing to backend. A nil backend keeps
// everything in memory.
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		logger:    slog.Default(),
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load builds a store from whatever the backend holds. A missing or
// unreadable document yields an empty store; it never fails.
func Load(ctx context.Context, backend storage.Backend, opts ...Option) *Store {
	s := New(backend, opts...)
	if backend == nil {
		return s
	}

	data, err := backend.Read(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("could not read saved state, starting empty", "error", err)
		}
		return s
	}

	doc, err := model.DecodeState(data)
	if err != nil {
		s.logger.Warn("saved state is not valid JSON, starting empty", "error", err)
		return s
	}

	revealed, err := doc.WithRevealedToken()
	if err != nil {
		s.logger.Warn("saved token could not be decoded, dropping it", "error", err)
		doc.GithubPat = nil
		revealed = doc
	}

	if err := s.apply(revealed); err != nil {
		s.logger.Warn("saved tasks could not be parsed, starting empty", "error", err)
		return s
	}

	s.logger.Debug("state loaded", "tasks", len(s.tasks))
	return s
}

// apply swaps in doc. Nothing changes when a task fails to convert.
func (s *Store) apply(doc model.SerializableState) error {
	var tasks []model.Task
	if doc.Tasks != nil {
		converted, err := model.FromSerializableList(doc.Tasks)
		if err != nil {
			return err
		}
		tasks = converted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = tasks
	for _, t := range tasks {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	s.creds = Credentials{
		Token:    model.StringValue(doc.GithubPat),
		GistID:   model.StringValue(doc.GistID),
		FileName: model.StringValue(doc.GistFileName),
	}
	s.enforceCredentialsLocked()
	return nil
}

// Snapshot returns the serializable document with the token in plain text.
func (s *Store) Snapshot() model.SerializableState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() model.SerializableState {
	doc := model.SerializableState{
		GithubPat:    model.StringPtr(s.creds.Token),
		GistID:       model.StringPtr(s.creds.GistID),
		GistFileName: model.StringPtr(s.creds.FileName),
	}
	if s.tasks != nil {
		doc.Tasks = make([]model.SerializableTask, 0, len(s.tasks))
		for _, t := range s.tasks {
			doc.Tasks = append(doc.Tasks, model.ToSerializable(t))
		}
	}
	return doc
}

// Save writes the current state with the token obfuscated.
func (s *Store) Save(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	data, err := model.EncodeState(s.Snapshot().WithObfuscatedToken())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return s.backend.Write(ctx, data)
}

// persist is the trailing save after a mutation.
func (s *Store) persist(ctx context.Context) {
	if err := s.Save(ctx); err != nil {
		s.logger.Warn("failed to save state", "error", err)
	}
}

// Replace overwrites tasks and credentials with doc, as pull and import do.
// The token in doc must already be revealed.
func (s *Store) Replace(ctx context.Context, doc model.SerializableState) error {
	if err := s.apply(doc); err != nil {
		return err
	}
	s.persist(ctx)
	s.notify(Event{Kind: StateReplaced})
	return nil
}

func (s *Store) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// SetCredentials stores new sync settings. Incomplete settings force the
// sync status back to NotSynced.
func (s *Store) SetCredentials(ctx context.Context, c Credentials) {
	s.mu.Lock()
	s.creds = c
	s.enforceCredentialsLocked()
	s.mu.Unlock()

	s.persist(ctx)
	s.notify(Event{Kind: CredentialsChanged})
}

func (s *Store) enforceCredentialsLocked() {
	if !s.creds.Complete() {
		s.mode = NotSynced
	}
}

// SyncStatus returns the current sync mode and its message.
func (s *Store) SyncStatus() (SyncMode, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.msg
}

// SetSyncStatus records a sync transition. Without complete credentials
// the mode stays NotSynced whatever is requested.
func (s *Store) SetSyncStatus(mode SyncMode, msg string) {
	s.mu.Lock()
	s.mode = mode
	s.msg = msg
	s.enforceCredentialsLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: SyncModeChanged})
}

// BeginSync moves to mode only when nothing else is in flight and reports
// whether it did.
func (s *Store) BeginSync(mode SyncMode, msg string) bool {
	s.mu.Lock()
	if s.mode.Busy() {
		s.mu.Unlock()
		return false
	}
	s.mode = mode
	s.msg = msg
	s.mu.Unlock()

	s.notify(Event{Kind: SyncModeChanged})
	return true
}
