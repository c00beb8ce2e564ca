// ABOUTME: Session Directory owning the session list and the active-session pointer
// ABOUTME: Every logical operation ends with an explicit commit of the list

package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fablesmith/fable-client/internal/agents"
	"github.com/fablesmith/fable-client/internal/persist"
)

// titleMax is the character budget for auto-derived session titles.
const titleMax = 15

// Patch holds the mutable session fields for Update. Nil fields are left
// unchanged.
type Patch struct {
	Title *string
	Agent *string
}

// Directory owns the set of sessions and the active-session pointer. All
// methods are safe for concurrent use; persistence failures are logged and
// absorbed, never returned.
type Directory struct {
	mu       sync.Mutex
	sessions []persist.Session
	activeID string
	adapter  *persist.Adapter
	logger   *slog.Logger
}

// NewDirectory creates a Directory over the given adapter. Call Init before
// anything else.
func NewDirectory(adapter *persist.Adapter, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		adapter: adapter,
		logger:  logger.With("component", "session"),
	}
}

// Init loads the persisted session list. An empty store gets exactly one
// default session; a non-empty one activates the most recently modified
// session.
func (d *Directory) Init(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sessions, err := d.adapter.LoadSessionList(ctx)
	if err != nil {
		d.logger.Error("failed to load session list", "error", err)
	}
	d.sessions = sessions

	if len(d.sessions) == 0 {
		d.createLocked(ctx, agents.Default())
		return
	}

	d.activeID = d.sortedLocked()[0].ID
	d.logger.Debug("directory initialized",
		"sessions", len(d.sessions),
		"active_id", d.activeID)
}

// Create allocates a new session bound to the given agent (or the default),
// inserts it at the front, makes it active, and commits. Returns the new id.
func (d *Directory) Create(ctx context.Context, agent string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createLocked(ctx, agent)
}

func (d *Directory) createLocked(ctx context.Context, agent string) string {
	if agent == "" {
		agent = agents.Default()
	}
	s := persist.Session{
		ID:        persist.NewID(),
		Title:     persist.DefaultTitle,
		Agent:     agent,
		UpdatedAt: time.Now().UnixMilli(),
	}
	d.sessions = append([]persist.Session{s}, d.sessions...)
	d.activeID = s.ID
	d.commitLocked(ctx)

	d.logger.Debug("session created", "session_id", s.ID, "agent", agent)
	return s.ID
}

// Switch sets the active session. Unknown ids are a no-op, not an error.
func (d *Directory) Switch(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.indexLocked(id) < 0 {
		return
	}
	d.activeID = id
}

// Update merges the patch into the matching session and bumps its
// last-modified time, then commits. Unknown ids are a no-op.
func (d *Directory) Update(ctx context.Context, id string, patch Patch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return
	}
	if patch.Title != nil {
		d.sessions[i].Title = *patch.Title
	}
	if patch.Agent != nil {
		d.sessions[i].Agent = *patch.Agent
	}
	d.sessions[i].UpdatedAt = time.Now().UnixMilli()
	d.commitLocked(ctx)
}

// Delete removes the session and its persisted message log. Deleting the
// active session activates the next most-recently-modified one, or creates a
// fresh default session when none remain.
func (d *Directory) Delete(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return
	}
	d.sessions = append(d.sessions[:i], d.sessions[i+1:]...)

	if err := d.adapter.RemoveMessages(ctx, id); err != nil {
		d.logger.Error("failed to remove message log", "session_id", id, "error", err)
	}

	if d.activeID == id {
		if len(d.sessions) > 0 {
			d.activeID = d.sortedLocked()[0].ID
		} else {
			// createLocked commits, so we're done.
			d.createLocked(ctx, agents.Default())
			return
		}
	}
	d.commitLocked(ctx)
}

// Active returns a copy of the active session. The boolean is false only in
// the transient window where the directory is empty.
func (d *Directory) Active() (persist.Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(d.activeID)
	if i < 0 {
		return persist.Session{}, false
	}
	return d.sessions[i], true
}

// ActiveID returns the active session id, or "" when the directory is empty.
func (d *Directory) ActiveID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeID
}

// Sorted returns all sessions ordered by last-modified descending. The view
// is recomputed on every call, never stored.
func (d *Directory) Sorted() []persist.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sortedLocked()
}

func (d *Directory) sortedLocked() []persist.Session {
	out := make([]persist.Session, len(d.sessions))
	copy(out, d.sessions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}

func (d *Directory) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// commitLocked persists the session list. Failures are logged, not
// propagated; in-memory state stays authoritative for the running process.
func (d *Directory) commitLocked(ctx context.Context) {
	if err := d.adapter.SaveSessionList(ctx, d.sessions); err != nil {
		d.logger.Error("failed to persist session list", "error", err)
	}
}

// DeriveTitle builds a session title from the first user message: the first
// titleMax characters, with an ellipsis marker when truncated.
func DeriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMax {
		return text
	}
	return string(runes[:titleMax]) + "..."
}
