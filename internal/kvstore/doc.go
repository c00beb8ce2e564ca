// ABOUTME: Namespaced key-value storage abstraction for client-local state
// ABOUTME: Backends: in-memory map for tests, SQLite for durable storage

// Package kvstore provides a small namespaced key-value store so the
// persistence layer never depends on a concrete backend. Keys live inside a
// namespace string; values are opaque byte slices. The two namespaces used by
// the client (session list, per-session message logs) are deliberately
// independent: there is no transaction spanning them.
package kvstore
