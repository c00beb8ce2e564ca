// ABOUTME: Read-only views the presentation boundary consumes
// ABOUTME: All views return copies; the engine assumes nothing about rendering

package controller

import (
	"github.com/fablesmith/fable-client/internal/artifact"
	"github.com/fablesmith/fable-client/internal/persist"
)

// Messages returns a copy of the active session's timeline, oldest first.
func (c *Controller) Messages() []persist.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]persist.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// IsStreaming reports whether a turn is currently in flight.
func (c *Controller) IsStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != stateIdle
}

// ActiveSession returns the active session's metadata.
func (c *Controller) ActiveSession() (persist.Session, bool) {
	return c.dir.Active()
}

// Sessions returns all sessions, most recently modified first.
func (c *Controller) Sessions() []persist.Session {
	return c.dir.Sorted()
}

// Artifacts returns the recent artifact log, newest first.
func (c *Controller) Artifacts() []artifact.Artifact {
	return c.artifacts.Recent()
}

// Panel returns the current panel projection, if any artifact has set one.
func (c *Controller) Panel() (artifact.Panel, bool) {
	return c.artifacts.Panel()
}
