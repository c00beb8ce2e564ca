// ABOUTME: Command facade the presentation boundary calls for session lifecycle
// ABOUTME: Session-changing commands are rejected while a turn is streaming

package controller

import (
	"context"

	"github.com/fablesmith/fable-client/internal/session"
)

func patchOf(title, agent *string) session.Patch {
	return session.Patch{Title: title, Agent: agent}
}

// ClearMessages wipes the active session's timeline in memory and in
// persistence. Other sessions' logs are untouched. Rejected mid-turn.
func (c *Controller) ClearMessages(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateIdle {
		return ErrStreaming
	}
	active, ok := c.dir.Active()
	if !ok {
		return ErrNoSession
	}

	c.messages = nil
	if err := c.adapter.RemoveMessages(ctx, active.ID); err != nil {
		c.logger.Error("failed to clear message log", "session_id", active.ID, "error", err)
	}
	return nil
}

// CreateSession creates and activates a new session bound to the given agent
// (or the default) with a fresh, empty timeline. The artifact side-channel
// is cleared so stale context does not leak into the new conversation.
func (c *Controller) CreateSession(ctx context.Context, agent string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateIdle {
		return "", ErrStreaming
	}

	id := c.dir.Create(ctx, agent)
	c.messages = nil
	c.artifacts.Clear()
	return id, nil
}

// SwitchSession activates the given session and loads its timeline. Unknown
// ids are a no-op. Rejected mid-turn: the live channel belongs to the
// current timeline.
func (c *Controller) SwitchSession(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateIdle {
		return ErrStreaming
	}

	prev := c.dir.ActiveID()
	c.dir.Switch(id)
	if c.dir.ActiveID() == prev {
		return nil
	}

	c.loadActiveLocked(ctx)
	c.artifacts.Clear()
	return nil
}

// UpdateSession renames or re-binds a session. Allowed mid-turn; it touches
// metadata only, never the timeline.
func (c *Controller) UpdateSession(ctx context.Context, id string, title, agent *string) {
	c.dir.Update(ctx, id, patchOf(title, agent))
}

// DeleteSession removes a session and its persisted log. Deleting the active
// session switches to the next most recent one (or a fresh default) and
// loads its timeline. Rejected mid-turn.
func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateIdle {
		return ErrStreaming
	}

	prev := c.dir.ActiveID()
	c.dir.Delete(ctx, id)
	if c.dir.ActiveID() != prev {
		c.loadActiveLocked(ctx)
		c.artifacts.Clear()
	}
	return nil
}
