package state

// EventKind identifies what changed in the store.
type EventKind int

const (
	TaskCreated EventKind = iota
	ProgressLogged
	ArchiveToggled
	TaskRenamed
	TaskDeleted
	StateReplaced
	CredentialsChanged
	SyncModeChanged
)

func (k EventKind) String() string {
	switch k {
	case TaskCreated:
		return "created"
	case ProgressLogged:
		return "logged"
	case ArchiveToggled:
		return "archived"
	case TaskRenamed:
		return "renamed"
	case TaskDeleted:
		return "deleted"
	case StateReplaced:
		return "replaced"
	case CredentialsChanged:
		return "credentials"
	case SyncModeChanged:
		return "sync"
	}
	return "unknown"
}

// Event is delivered to listeners after a change has been applied.
type Event struct {
	Kind   EventKind
	TaskID int64
}

// Listener receives store events. It runs on the goroutine that made the
// change, after the store lock has been released.
type Listener func(Event)

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextListener; i++ {
		if l, ok := s.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}
