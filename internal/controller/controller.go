// ABOUTME: Streaming Conversation Controller - the per-turn state machine
// ABOUTME: Owns the active timeline, drives one channel per outgoing turn, absorbs all I/O failures

package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fablesmith/fable-client/internal/agents"
	"github.com/fablesmith/fable-client/internal/artifact"
	"github.com/fablesmith/fable-client/internal/persist"
	"github.com/fablesmith/fable-client/internal/session"
	"github.com/fablesmith/fable-client/internal/stream"
)

// ErrStreaming is returned when an operation is rejected because a turn is
// already in flight. The caller treats it as a no-op, not a failure.
var ErrStreaming = errors.New("a turn is already streaming")

// ErrNoSession is returned when no session is active.
var ErrNoSession = errors.New("no active session")

// DefaultTurnTimeout is the hard wall-clock deadline for one turn's channel.
const DefaultTurnTimeout = 120 * time.Second

// fallbackContent is placed on the assistant placeholder when a turn fails
// before any text arrived.
const fallbackContent = "The connection was interrupted. Please try again."

// persistTimeout bounds fire-and-forget persistence writes. Writes use a
// background context so they complete even when the turn is cancelled.
const persistTimeout = 5 * time.Second

// turnState tracks the per-turn state machine. Only one turn may be in
// sending/streaming at a time, system-wide.
type turnState int

const (
	stateIdle turnState = iota
	stateSending
	stateStreaming
)

// StreamOpener is what the controller needs from the transport layer.
type StreamOpener interface {
	Open(ctx context.Context, sessionID, message, role string) (<-chan stream.Event, error)
}

// Hooks are optional presentation callbacks. They are invoked outside the
// controller's lock and must not call back into the controller from within.
type Hooks struct {
	// OnText receives each assistant text fragment as it arrives.
	OnText func(chunk string)
	// OnToolStart announces a tool invocation; display is optional.
	OnToolStart func(tool string)
	// OnTurnDone fires when a turn reaches idle again, however it ended.
	OnTurnDone func()
}

// Controller drives the active session's conversation: it appends turns to
// the timeline, opens one server-push channel per outgoing message, folds
// decoded events into the timeline and artifact store, and persists after
// each mutation batch. It is also the command facade the presentation layer
// talks to.
type Controller struct {
	mu        sync.Mutex
	state     turnState
	messages  []persist.Message
	dir       *session.Directory
	adapter   *persist.Adapter
	artifacts *artifact.Store
	opener    StreamOpener

	turnTimeout time.Duration
	hooks       Hooks
	logger      *slog.Logger
}

// New creates a Controller. Call Init before use.
func New(dir *session.Directory, adapter *persist.Adapter, artifacts *artifact.Store, opener StreamOpener, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		dir:         dir,
		adapter:     adapter,
		artifacts:   artifacts,
		opener:      opener,
		turnTimeout: DefaultTurnTimeout,
		logger:      logger.With("component", "controller"),
	}
}

// SetHooks installs presentation callbacks. Not safe to call mid-turn.
func (c *Controller) SetHooks(h Hooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = h
}

// SetTurnTimeout overrides the per-turn deadline.
func (c *Controller) SetTurnTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turnTimeout = d
}

// Init initializes the session directory and loads the active session's
// timeline from persistence.
func (c *Controller) Init(ctx context.Context) {
	c.dir.Init(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadActiveLocked(ctx)
}

// Send runs one outgoing turn: append the user message, fill in session
// metadata on the first send, append the assistant placeholder, and open the
// channel. A send while a turn is live is rejected with ErrStreaming and
// changes nothing. Transport failures are absorbed: they surface as an inline
// fallback message, never as a returned error.
//
// ctx bounds the whole turn, not just this call; the 120 second turn
// deadline is derived from it.
func (c *Controller) Send(ctx context.Context, text, agentOverride string) error {
	c.mu.Lock()

	if c.state != stateIdle {
		c.mu.Unlock()
		return ErrStreaming
	}
	active, ok := c.dir.Active()
	if !ok {
		c.mu.Unlock()
		return ErrNoSession
	}

	agent := agentOverride
	if agent == "" {
		agent = active.Agent
	}
	if agent == "" {
		agent = agents.Default()
	}

	c.state = stateSending
	now := time.Now().UnixMilli()
	firstMessage := len(c.messages) == 0

	c.messages = append(c.messages, persist.Message{
		ID:        persist.NewID(),
		Role:      persist.RoleUser,
		Content:   text,
		CreatedAt: now,
	})

	// First send fills the placeholder title; every send bumps
	// last-modified and records an agent change.
	patch := session.Patch{}
	if firstMessage && active.Title == persist.DefaultTitle {
		title := session.DeriveTitle(text)
		patch.Title = &title
	}
	if agent != active.Agent {
		patch.Agent = &agent
	}
	c.dir.Update(ctx, active.ID, patch)

	c.messages = append(c.messages, persist.Message{
		ID:        persist.NewID(),
		Role:      persist.RoleAssistant,
		Agent:     agent,
		CreatedAt: now,
	})
	c.persistLocked(active.ID)

	turnCtx, cancel := context.WithTimeout(ctx, c.turnTimeout)
	events, err := c.opener.Open(turnCtx, active.ID, text, agent)
	if err != nil {
		cancel()
		c.logger.Warn("failed to open channel",
			"session_id", active.ID,
			"agent", agent,
			"error", err)
		c.setFallbackLocked()
		c.state = stateIdle
		c.persistLocked(active.ID)
		onDone := c.hooks.OnTurnDone
		c.mu.Unlock()
		if onDone != nil {
			onDone()
		}
		return nil
	}

	c.state = stateStreaming
	c.logger.Debug("turn streaming",
		"session_id", active.ID,
		"agent", agent)
	c.mu.Unlock()
	go c.consume(turnCtx, cancel, active.ID, events)
	return nil
}

// consume folds channel events into state until a terminal event, channel
// close, or the turn deadline, whichever comes first.
func (c *Controller) consume(ctx context.Context, cancel context.CancelFunc, sessionID string, events <-chan stream.Event) {
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			// Deadline elapsed (or the app is shutting down): force-close
			// the channel and keep whatever partial content accumulated.
			c.logger.Warn("turn deadline elapsed, closing channel",
				"session_id", sessionID)
			c.finishTurn(sessionID, "timed-out", true)
			return

		case ev, ok := <-events:
			if !ok {
				// Reader ended without a terminal event; treat as a close.
				c.finishTurn(sessionID, "completed", false)
				return
			}
			switch ev.Kind {
			case stream.KindTextChunk:
				c.appendChunk(ev.Text)

			case stream.KindArtifactUpdate:
				c.recordArtifact(ev)

			case stream.KindToolStart:
				// Observability only; no state mutation at this layer.
				c.logger.Debug("tool started", "tool", ev.Tool, "session_id", sessionID)
				c.mu.Lock()
				onTool := c.hooks.OnToolStart
				c.mu.Unlock()
				if onTool != nil {
					onTool(ev.Tool)
				}

			case stream.KindErrorSignal:
				c.finishTurn(sessionID, "errored", true)
				return

			case stream.KindStreamClosed:
				c.finishTurn(sessionID, "completed", false)
				return
			}
		}
	}
}

// appendChunk appends a text fragment to the trailing assistant message.
// The role check guards against out-of-order state; text never lands on a
// user message.
func (c *Controller) appendChunk(chunk string) {
	c.mu.Lock()
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == persist.RoleAssistant {
		c.messages[n-1].Content += chunk
	}
	onText := c.hooks.OnText
	c.mu.Unlock()

	if onText != nil {
		onText(chunk)
	}
}

// recordArtifact logs the artifact and, for presentation-relevant types,
// overwrites the panel projection.
func (c *Controller) recordArtifact(ev stream.Event) {
	typ := ev.ArtifactType
	if typ == "" {
		typ = artifact.DefaultType
	}
	a := artifact.Artifact{
		ID:      persist.NewID(),
		Type:    typ,
		Content: ev.ArtifactContent,
	}
	c.artifacts.Add(a)
	if panel, ok := artifact.Project(a); ok {
		c.artifacts.SetPanel(panel)
	}
}

// finishTurn transitions back to idle, optionally placing the fallback
// message when the assistant placeholder is still empty, and persists the
// timeline.
func (c *Controller) finishTurn(sessionID, outcome string, fallbackIfEmpty bool) {
	c.mu.Lock()
	if fallbackIfEmpty {
		c.setFallbackLocked()
	}
	c.state = stateIdle
	c.persistLocked(sessionID)
	onDone := c.hooks.OnTurnDone
	c.mu.Unlock()

	c.logger.Debug("turn finished", "session_id", sessionID, "outcome", outcome)
	if onDone != nil {
		onDone()
	}
}

// setFallbackLocked fills the trailing assistant message with the fallback
// text, only when it is still empty. Partial streamed content is kept as-is.
func (c *Controller) setFallbackLocked() {
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == persist.RoleAssistant && c.messages[n-1].Content == "" {
		c.messages[n-1].Content = fallbackContent
	}
}

// persistLocked writes the timeline with a background-scoped deadline so the
// write completes even when the turn context is already cancelled.
func (c *Controller) persistLocked(sessionID string) {
	saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := c.adapter.SaveMessages(saveCtx, sessionID, c.messages); err != nil {
		c.logger.Error("failed to persist messages",
			"session_id", sessionID,
			"error", err)
	}
}

// loadActiveLocked replaces the in-memory timeline with the active session's
// persisted log.
func (c *Controller) loadActiveLocked(ctx context.Context) {
	active, ok := c.dir.Active()
	if !ok {
		c.messages = nil
		return
	}
	messages, err := c.adapter.LoadMessages(ctx, active.ID)
	if err != nil {
		c.logger.Error("failed to load messages", "session_id", active.ID, "error", err)
		messages = nil
	}
	c.messages = messages
}
