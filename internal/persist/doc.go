// Package persist defines the client's persisted data model and the
// Persistence Adapter that maps it onto a kvstore.Store.
//
// # Data Models
//
//   - Session: conversation metadata (title, bound agent, last-modified)
//   - Message: one timeline turn (role, content, optional agent label)
//
// # Storage Layout
//
// Two independent namespaces:
//
//   - "sessions": a single "list" key holding the JSON session array
//   - "messages": one key per session id holding the JSON message array
//
// There is deliberately no transaction across the two namespaces. A crash
// between writes can leave them inconsistent; that is tolerated everywhere
// (orphaned logs are unreachable, a session without a log is an empty
// conversation).
//
// # Error Handling
//
// Reads fail soft: missing keys and malformed stored JSON both come back as
// empty results, with decode failures logged at Warn. Write failures are
// returned to the caller, which logs and continues (the in-memory state is
// authoritative for the running process).
package persist
