// ABOUTME: Core data types for sessions and messages plus id generation
// ABOUTME: Session metadata and message logs are what the adapter persists

package persist

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the placeholder title a session carries until its first
// user message fills it in.
const DefaultTitle = "New Conversation"

// Message role constants
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one conversation's identity and metadata. The message log is
// stored separately, keyed by the session id.
type Session struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Agent     string `json:"agent"`
	UpdatedAt int64  `json:"updated_at"` // epoch millis
}

// Message is a single turn within a session's timeline. Content is mutable
// only for the trailing assistant message while a response streams in.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Agent     string `json:"agent,omitempty"` // assistant messages only
	CreatedAt int64  `json:"created_at"`      // epoch millis
}

// NewID returns a time-prefixed random identifier. The millisecond prefix
// keeps ids roughly sortable; the uuid fragment makes collisions within the
// same millisecond a non-issue.
func NewID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
