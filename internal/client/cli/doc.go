// Package cli provides the interactive notex command-line client.
//
// It wires configuration, the local cache, the remote client, the
// connectivity watcher, the gateway and the reconciliation engine, and runs a
// REPL on top of them. Notes can be listed, created, edited and deleted while
// offline; such changes are queued and replayed when the server is reachable
// again.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
