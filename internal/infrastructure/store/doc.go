// Package store provides the durable key-value slots behind session persistence.
//
// Every backend implements the same three operations (Get, Set, Remove) over
// opaque bytes. Set is an atomic replace of the whole slot; readers never
// observe a partially written value.
//
// Drivers:
//   - memory: process-local map, used by tests and --ephemeral runs
//   - bolt:   single-file bbolt database (default)
//   - sqlite: single-table SQLite database via modernc.org/sqlite
//
// Compressed wraps any driver with zstd framing.
//
// Example Usage:
//
//	st, err := store.Open(store.Config{Driver: "bolt", Path: "~/.gadgeto/state.db"})
//	defer st.Close()
//	err = st.Set(ctx, "gogogadgeto_session", data)
package store
