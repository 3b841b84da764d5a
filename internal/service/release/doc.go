// Package release runs the CLI entry points: listing versions, synchronising
// a version onto disk and launching it. It wires configuration, metadata,
// the compiler, the syncer, the launcher and the status endpoint together.
package release
