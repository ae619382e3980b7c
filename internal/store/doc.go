// Package store provides persistent storage for control cards and accounts
// using a single embedded SQLite database file.
//
// # Lifecycle
//
// A Store starts disconnected. Connect opens (or creates) the database file,
// bounds lock waits with a busy timeout, and initializes the schema before
// returning; Disconnect tears everything down. Connect on a connected store
// first closes the existing connection, so one process never holds two.
// Every query fails fast with ErrNotConnected while disconnected.
//
// # Schema evolution
//
// Migration is additive and idempotent: tables are created with CREATE TABLE
// IF NOT EXISTS, and newer control_cards columns are added one at a time by
// inspecting pragma_table_info, only when the table pre-existed the call, so
// repeated startups against an older database file converge without data
// loss.
//
// The store performs no locking of its own; the operation layer serializes
// all access.
package store
