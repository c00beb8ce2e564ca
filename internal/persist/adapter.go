// ABOUTME: Persistence Adapter mapping sessions and message logs onto the kvstore
// ABOUTME: JSON codec, fail-soft reads: malformed stored data is logged and treated as empty

package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fablesmith/fable-client/internal/kvstore"
)

// Storage namespaces. The session list and the per-session message logs are
// independently keyed; there is no transaction across them. An orphaned
// message log is harmless and a session without a log reads as an empty
// conversation.
const (
	nsSessions = "sessions"
	nsMessages = "messages"

	sessionListKey = "list"
)

// Adapter reads and writes session metadata and message logs.
type Adapter struct {
	kv     kvstore.Store
	logger *slog.Logger
}

// NewAdapter creates an Adapter over the given store.
func NewAdapter(kv kvstore.Store, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		kv:     kv,
		logger: logger.With("component", "persist"),
	}
}

// LoadMessages returns the message log for a session, oldest first. Missing
// or malformed data reads as empty; decode failures are logged, never
// propagated.
func (a *Adapter) LoadMessages(ctx context.Context, sessionID string) ([]Message, error) {
	raw, ok, err := a.kv.Get(ctx, nsMessages, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading messages for %s: %w", sessionID, err)
	}
	if !ok {
		return nil, nil
	}

	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		a.logger.Warn("discarding malformed message log",
			"session_id", sessionID,
			"error", err)
		return nil, nil
	}
	return messages, nil
}

// SaveMessages writes the full message log for a session.
func (a *Adapter) SaveMessages(ctx context.Context, sessionID string, messages []Message) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encoding messages for %s: %w", sessionID, err)
	}
	if err := a.kv.Set(ctx, nsMessages, sessionID, raw); err != nil {
		return fmt.Errorf("saving messages for %s: %w", sessionID, err)
	}
	return nil
}

// RemoveMessages deletes a session's message log.
func (a *Adapter) RemoveMessages(ctx context.Context, sessionID string) error {
	if err := a.kv.Delete(ctx, nsMessages, sessionID); err != nil {
		return fmt.Errorf("removing messages for %s: %w", sessionID, err)
	}
	return nil
}

// LoadSessionList returns the persisted session metadata list. Missing or
// malformed data reads as empty.
func (a *Adapter) LoadSessionList(ctx context.Context) ([]Session, error) {
	raw, ok, err := a.kv.Get(ctx, nsSessions, sessionListKey)
	if err != nil {
		return nil, fmt.Errorf("loading session list: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var sessions []Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		a.logger.Warn("discarding malformed session list", "error", err)
		return nil, nil
	}
	return sessions, nil
}

// SaveSessionList writes the full session metadata list.
func (a *Adapter) SaveSessionList(ctx context.Context, sessions []Session) error {
	raw, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encoding session list: %w", err)
	}
	if err := a.kv.Set(ctx, nsSessions, sessionListKey, raw); err != nil {
		return fmt.Errorf("saving session list: %w", err)
	}
	return nil
}
