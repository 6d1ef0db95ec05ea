// Package cli provides the interactive synqlikk command-line client.
//
// It wires configuration, the local SQLite store, the authority client and
// the sync coordinator behind a line-oriented REPL. Every edit lands in the
// local store first; a background watcher tracks connectivity and runs
// scheduled syncs while the user keeps working offline.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// the process receives SIGINT/SIGTERM, then runs a best-effort shutdown sync.
package cli
