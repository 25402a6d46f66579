package state

// SyncMode is the transient sync status. It is never persisted.
type SyncMode int

const (
	NotSynced SyncMode = iota
	Pushing
	Pulling
	InSync
	Failed
)

func (m SyncMode) String() string {
	switch m {
	case NotSynced:
		return "NotSynced"
	case Pushing:
		return "Pushing"
	case Pulling:
		return "Pulling"
	case InSync:
		return "InSync"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// Busy reports whether a sync operation is in flight.
func (m SyncMode) Busy() bool {
	return m == Pushing || m == Pulling
}

// Credentials locate the remote sync document.
type Credentials struct {
	Token    string
	GistID   string
	FileName string
}

// Complete reports whether every field is set.
func (c Credentials) Complete() bool {
	return c.Token != "" && c.GistID != "" && c.FileName != ""
}
