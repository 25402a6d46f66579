package syncer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/paleggworks/stayahead/pkg/dates"
	"github.com/paleggworks/stayahead/pkg/gist"
	"github.com/paleggworks/stayahead/pkg/model"
	"github.com/paleggworks/stayahead/pkg/obfuscate"
	"github.com/paleggworks/stayahead/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu        sync.Mutex
	content   string
	fetchErr  error
	updateErr error
	updates   int
	block     chan struct{}
	token     string
}

func (f *fakeRemote) factory(ctx context.Context, token string) Remote {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
	return f
}

func (f *fakeRemote) Fetch(ctx context.Context, gistID, fileName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content, f.fetchErr
}

func (f *fakeRemote) Update(ctx context.Context, gistID, fileName, content string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	f.content = content
	return nil
}

var fullCreds = state.Credentials{Token: "ghp_secret", GistID: "abc", FileName: "state.json"}

func newStore(t *testing.T, creds state.Credentials) *state.Store {
	t.Helper()
	s := state.New(nil)
	s.SetCredentials(context.Background(), creds)
	return s
}

func newTask() state.NewTask {
	return state.NewTask{
		Action:       "walk",
		CountPerDay:  2,
		Unit:         "km",
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		EffectiveDow: dates.AllWeekdays,
	}
}

func TestPushThenPullRestoresState(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}

	source := newStore(t, fullCreds)
	_, err := source.CreateTask(ctx, newTask())
	require.NoError(t, err)

	require.NoError(t, New(source, remote.factory).Push(ctx))
	assert.Equal(t, state.InSync, New(source, remote.factory).Mode())
	assert.Equal(t, "Manual push was successful!", New(source, remote.factory).Message())
	assert.Equal(t, "ghp_secret", remote.token)
	assert.NotContains(t, remote.content, "ghp_secret")
	assert.Contains(t, remote.content, obfuscate.Encode("ghp_secret"))

	target := newStore(t, fullCreds)
	c := New(target, remote.factory)
	require.NoError(t, c.Pull(ctx))
	assert.Equal(t, state.InSync, c.Mode())
	assert.Equal(t, source.Tasks(), target.Tasks())
	assert.Equal(t, fullCreds, target.Credentials())
}

func TestPullReplacesLocalChanges(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{content: `{"tasks":[],"githubPat":"` + obfuscate.Encode("remote_token") + `","gistId":"abc","gistFileName":"state.json"}`}

	s := newStore(t, fullCreds)
	_, err := s.CreateTask(ctx, newTask())
	require.NoError(t, err)

	require.NoError(t, New(s, remote.factory).Pull(ctx))
	assert.Empty(t, s.Tasks())
	assert.Equal(t, "remote_token", s.Credentials().Token)
}

func TestPullWithIncompleteConfig(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{content: `{"tasks":[]}`}
	s := newStore(t, state.Credentials{GistID: "abc", FileName: "state.json"})
	_, err := s.CreateTask(ctx, newTask())
	require.NoError(t, err)

	c := New(s, remote.factory)
	err = c.Pull(ctx)
	assert.ErrorIs(t, err, gist.ErrIncompleteConfig)
	assert.Equal(t, state.NotSynced, c.Mode())
	assert.Len(t, s.Tasks(), 1)
}

func TestPullMalformedLeavesStateAndFails(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, fullCreds)
	_, err := s.CreateTask(ctx, newTask())
	require.NoError(t, err)

	for _, content := range []string{
		"{not json",
		`{"tasks":[{"id":1,"action":"a","countPerDay":1,"unit":"u","countAccum":0,"start":"2024-13-40","end":"2024-01-01"}]}`,
	} {
		c := New(s, (&fakeRemote{content: content}).factory)
		err := c.Pull(ctx)
		assert.True(t, model.IsParseError(err), "content %q", content)
		assert.Equal(t, state.Failed, c.Mode())
		assert.Len(t, s.Tasks(), 1)
	}
}

func TestManualPushFailureIsNotSynced(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{updateErr: errors.New("boom")}
	s := newStore(t, fullCreds)

	c := New(s, remote.factory)
	assert.Error(t, c.Push(ctx))
	assert.Equal(t, state.NotSynced, c.Mode())
	assert.Contains(t, c.Message(), "Manual push failed: boom")
}

func TestPushForbiddenSurfacesRateLimitReset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Reset", "1712345678")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"rate limited"}`)
	}))
	defer srv.Close()

	s := newStore(t, fullCreds)
	c := New(s, GistRemote(gist.WithBaseURL(srv.URL)))

	err := c.Push(context.Background())
	var remote *gist.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusForbidden, remote.Status)
	assert.Equal(t, state.NotSynced, c.Mode())
	assert.Contains(t, c.Message(), "1712345678")
}

func TestAutoPushFailureKeepsLocalChange(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{updateErr: errors.New("offline")}
	s := newStore(t, fullCreds)
	c := New(s, remote.factory)

	task, err := s.CreateTask(ctx, newTask())
	require.NoError(t, err)
	<-c.AutoPush(AfterCreate)

	assert.Equal(t, state.Failed, c.Mode())
	assert.Equal(t, "Automatic push failed after creating a task: offline", c.Message())
	got, err := s.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, got)
}

func TestWatchPushesAfterMutations(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	s := newStore(t, fullCreds)
	c := New(s, remote.factory)
	unsubscribe := c.Watch()
	defer unsubscribe()

	task, err := s.CreateTask(ctx, newTask())
	require.NoError(t, err)
	c.Wait()
	_, err = s.LogProgress(ctx, task.ID, 1)
	require.NoError(t, err)
	c.Wait()
	require.NoError(t, s.Rename(ctx, task.ID, "Evening walk"))
	c.Wait()

	assert.Equal(t, 2, remote.updates)
	assert.Equal(t, state.InSync, c.Mode())
	assert.Equal(t, "Automatic push was successful after logging progress!", c.Message())
}

func TestWatchSkipsWithoutCredentials(t *testing.T) {
	remote := &fakeRemote{}
	s := newStore(t, state.Credentials{})
	c := New(s, remote.factory)
	defer c.Watch()()

	_, err := s.CreateTask(context.Background(), newTask())
	require.NoError(t, err)
	c.Wait()
	assert.Zero(t, remote.updates)
	assert.Equal(t, state.NotSynced, c.Mode())
}

func TestInFlightGuard(t *testing.T) {
	remote := &fakeRemote{block: make(chan struct{})}
	s := newStore(t, fullCreds)
	c := New(s, remote.factory)

	done := c.AutoPush(AfterLog)
	require.Eventually(t, func() bool { return c.Mode() == state.Pushing }, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.Push(context.Background()), ErrBusy)
	assert.ErrorIs(t, c.Pull(context.Background()), ErrBusy)
	assert.Equal(t, state.Pushing, c.Mode())

	close(remote.block)
	<-done
	assert.Equal(t, state.InSync, c.Mode())
}

func TestPullOnStart(t *testing.T) {
	remote := &fakeRemote{content: `{"tasks":null,"githubPat":"` + obfuscate.Encode("ghp_secret") + `","gistId":"abc","gistFileName":"state.json"}`}

	idle := New(newStore(t, state.Credentials{}), remote.factory)
	require.NoError(t, idle.PullOnStart(context.Background()))
	assert.Equal(t, state.NotSynced, idle.Mode())

	ready := New(newStore(t, fullCreds), remote.factory)
	require.NoError(t, ready.PullOnStart(context.Background()))
	assert.Equal(t, state.InSync, ready.Mode())
}
