// Package syncer drives the sync state machine: it pushes the local state
// to the remote document and pulls it back, recording every transition in
// the store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paleggworks/stayahead/pkg/gist"
	"github.com/paleggworks/stayahead/pkg/model"
	"github.com/paleggworks/stayahead/pkg/state"
)

// ErrBusy is returned when a push or pull is already in flight.
var ErrBusy = errors.New("a sync operation is already in progress")

// Remote is the document store a Coordinator syncs against.
type Remote interface {
	Fetch(ctx context.Context, gistID, fileName string) (string, error)
	Update(ctx context.Context, gistID, fileName, content string) error
}

// RemoteFactory builds a Remote for the current token.
type RemoteFactory func(ctx context.Context, token string) Remote

// GistRemote returns a factory for the gist API with the given client options.
func GistRemote(opts ...gist.Option) RemoteFactory {
	return func(ctx context.Context, token string) Remote {
		return gist.NewClient(ctx, token, opts...)
	}
}

// Trigger names the mutation that caused an automatic push.
type Trigger string

const (
	AfterCreate  Trigger = "creating a task"
	AfterLog     Trigger = "logging progress"
	AfterDelete  Trigger = "deleting a task"
	AfterArchive Trigger = "changing the visibility of a task"
)

// Coordinator pushes and pulls the store's state.
type Coordinator struct {
	store     *state.Store
	newRemote RemoteFactory
	logger    *slog.Logger
	timeout   time.Duration

	wg sync.WaitGroup
}

type Option func(*Coordinator)

// WithTimeout bounds each background push.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func New(store *state.Store, newRemote RemoteFactory, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		newRemote: newRemote,
		logger:    slog.Default(),
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Mode() state.SyncMode {
	mode, _ := c.store.SyncStatus()
	return mode
}

func (c *Coordinator) Message() string {
	_, msg := c.store.SyncStatus()
	return msg
}

// begin checks credentials and claims the in-flight slot.
func (c *Coordinator) begin(mode state.SyncMode, msg string) (state.Credentials, error) {
	creds := c.store.Credentials()
	if !creds.Complete() {
		c.store.SetSyncStatus(state.NotSynced, fmt.Sprintf("Sync settings incomplete: %v", gist.ErrIncompleteConfig))
		return creds, gist.ErrIncompleteConfig
	}
	if !c.store.BeginSync(mode, msg) {
		return creds, ErrBusy
	}
	return creds, nil
}

// Push uploads the current state. A failure leaves local data alone and
// sets the mode to NotSynced.
func (c *Coordinator) Push(ctx context.Context) error {
	err := c.push(ctx)
	if err != nil {
		if !errors.Is(err, ErrBusy) && !errors.Is(err, gist.ErrIncompleteConfig) {
			c.store.SetSyncStatus(state.NotSynced, fmt.Sprintf("Manual push failed: %v", err))
		}
		return err
	}
	c.store.SetSyncStatus(state.InSync, "Manual push was successful!")
	return nil
}

func (c *Coordinator) push(ctx context.Context) error {
	creds, err := c.begin(state.Pushing, "Pushing...")
	if err != nil {
		return err
	}

	data, err := model.EncodeState(c.store.Snapshot().WithObfuscatedToken())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	remote := c.newRemote(ctx, creds.Token)
	if err := remote.Update(ctx, creds.GistID, creds.FileName, string(data)); err != nil {
		return err
	}
	c.logger.Debug("state pushed", "gist_id", creds.GistID, "file", creds.FileName, "bytes", len(data))
	return nil
}

// Pull replaces the whole local state with the remote document. Any local
// change not yet pushed is lost. On failure the local state is unchanged
// and the mode becomes Failed.
func (c *Coordinator) Pull(ctx context.Context) error {
	creds, err := c.begin(state.Pulling, "Pulling...")
	if err != nil {
		return err
	}

	if err := c.pull(ctx, creds); err != nil {
		c.store.SetSyncStatus(state.Failed, fmt.Sprintf("Manual pull failed: %v", err))
		return err
	}
	c.store.SetSyncStatus(state.InSync, "Manual pull was successful!")
	return nil
}

func (c *Coordinator) pull(ctx context.Context, creds state.Credentials) error {
	remote := c.newRemote(ctx, creds.Token)
	content, err := remote.Fetch(ctx, creds.GistID, creds.FileName)
	if err != nil {
		return err
	}

	doc, err := model.DecodeState([]byte(content))
	if err != nil {
		return err
	}
	doc, err = doc.WithRevealedToken()
	if err != nil {
		return err
	}
	if err := c.store.Replace(ctx, doc); err != nil {
		return err
	}

	c.logger.Debug("state pulled", "gist_id", creds.GistID, "tasks", len(doc.Tasks))
	return nil
}

// PullOnStart pulls once when credentials are complete and does nothing
// otherwise.
func (c *Coordinator) PullOnStart(ctx context.Context) error {
	if !c.store.Credentials().Complete() {
		return nil
	}
	return c.Pull(ctx)
}

// AutoPush pushes in the background after a local mutation. The returned
// channel is closed when the attempt has finished. Failures are recorded
// as Failed and never undo the mutation.
func (c *Coordinator) AutoPush(trigger Trigger) <-chan struct{} {
	done := make(chan struct{})
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		defer close(done)

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		err := c.push(ctx)
		switch {
		case err == nil:
			c.store.SetSyncStatus(state.InSync, fmt.Sprintf("Automatic push was successful after %s!", trigger))
		case errors.Is(err, ErrBusy), errors.Is(err, gist.ErrIncompleteConfig):
			c.logger.Debug("automatic push skipped", "trigger", string(trigger), "error", err)
		default:
			c.logger.Warn("automatic push failed", "trigger", string(trigger), "error", err)
			c.store.SetSyncStatus(state.Failed, fmt.Sprintf("Automatic push failed after %s: %v", trigger, err))
		}
	}()

	return done
}

// Watch starts an automatic push after every mutation that warrants one.
// Renames and sync bookkeeping do not push.
func (c *Coordinator) Watch() (unsubscribe func()) {
	return c.store.Subscribe(func(ev state.Event) {
		var trigger Trigger
		switch ev.Kind {
		case state.TaskCreated:
			trigger = AfterCreate
		case state.ProgressLogged:
			trigger = AfterLog
		case state.TaskDeleted:
			trigger = AfterDelete
		case state.ArchiveToggled:
			trigger = AfterArchive
		default:
			return
		}
		if !c.store.Credentials().Complete() {
			return
		}
		c.AutoPush(trigger)
	})
}

// Wait blocks until every background push has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
