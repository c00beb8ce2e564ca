// Package stream speaks the backend's server-push protocol.
//
// A channel is one GET /stream/{session_id} request with the outgoing user
// text, effective agent role, and caller identity in the query string,
// answered as text/event-stream. The client never writes on the channel
// after opening it.
//
// Inbound named events are decoded into a closed tagged union (Event with a
// Kind discriminator) rather than dispatched to per-name callbacks; the
// controller matches exhaustively on Kind, which keeps the state machine's
// transition table explicit. Unknown event names are ignored without failing
// the stream, and a transport close is surfaced as a synthetic
// KindStreamClosed terminal event — the protocol itself defines no explicit
// end-of-stream signal.
package stream
