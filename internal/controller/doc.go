// Package controller is the conversation engine's core: a per-turn state
// machine (idle → sending → streaming → idle) over the active session's
// message timeline.
//
// One Send opens exactly one server-push channel; a second send while a turn
// is live is rejected, never queued. Decoded events mutate either the
// timeline (text fragments, appended to the trailing assistant message only)
// or the artifact side-channel. A 120 second wall-clock deadline races the
// channel; whichever resolves first drives the transition back to idle.
//
// Every I/O failure — open failure, mid-stream error event, deadline — is
// absorbed here and converted into either a quiet transition or a short
// inline fallback message on the still-empty assistant placeholder. Nothing
// escapes to the presentation layer, and there is no automatic retry: a
// failed turn ends at idle, ready for a user-initiated re-send.
//
// The Controller doubles as the command facade for the presentation
// boundary (send, clear, create/switch/update/delete session) and exposes
// read-only copies of its state. It reads the Session Directory's active
// session by query; the two share no mutable state.
package controller
