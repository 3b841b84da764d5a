// Package version exposes build metadata for mcsync.
//
// Version, Commit and BuildTime are injected via ldflags. Name and Short are
// also passed to the game as launcher_name and launcher_version.
package version
