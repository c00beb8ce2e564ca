// ABOUTME: Bounded side-channel store for non-text payloads extracted from the stream
// ABOUTME: Keeps the 10 most recent artifacts plus a single overwrite-only panel projection

package artifact

import (
	"strings"
	"sync"
)

// maxRecent caps the artifact history; the oldest entry is evicted first.
const maxRecent = 10

// DefaultType is used when an artifact_update payload omits its type.
const DefaultType = "note"

// Artifact is one structured payload emitted mid-stream.
type Artifact struct {
	ID      string
	Type    string
	Content string
}

// Panel is the single current projection a presentation layer renders
// alongside the conversation. It is overwritten, never accumulated.
type Panel struct {
	Title     string
	Content   string
	WordCount int
}

// panelLabels maps presentation-relevant artifact types to panel titles.
// Types outside this map never touch the panel.
var panelLabels = map[string]string{
	"draft":   "Draft",
	"outline": "Outline",
}

// Project derives the panel projection for an artifact. The boolean is false
// for types that are not presentation-relevant. Word count is the number of
// whitespace-delimited tokens of the trimmed content.
func Project(a Artifact) (Panel, bool) {
	label, ok := panelLabels[a.Type]
	if !ok {
		return Panel{}, false
	}
	return Panel{
		Title:     label,
		Content:   a.Content,
		WordCount: len(strings.Fields(strings.TrimSpace(a.Content))),
	}, true
}

// Store holds the bounded recent-artifact log and the panel projection.
type Store struct {
	mu       sync.RWMutex
	recent   []Artifact
	panel    Panel
	hasPanel bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Add inserts an artifact at the front of the log, evicting from the back
// past the cap.
func (s *Store) Add(a Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append([]Artifact{a}, s.recent...)
	if len(s.recent) > maxRecent {
		s.recent = s.recent[:maxRecent]
	}
}

// Recent returns the artifact log, newest first.
func (s *Store) Recent() []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Artifact, len(s.recent))
	copy(out, s.recent)
	return out
}

// SetPanel overwrites the panel projection.
func (s *Store) SetPanel(p Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.panel = p
	s.hasPanel = true
}

// Panel returns the current projection; the boolean is false when no
// presentation-relevant artifact has arrived since the last Clear.
func (s *Store) Panel() (Panel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panel, s.hasPanel
}

// Clear empties the log and the panel. Called when a session is abandoned so
// stale context does not leak into a fresh conversation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = nil
	s.panel = Panel{}
	s.hasPanel = false
}
