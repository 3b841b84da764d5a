// Package document caches remote release documents on disk.
//
// The manifest, version descriptors and asset indexes are downloaded once and
// stored in the game directory. Writes go through go-update so a document is
// replaced atomically and only after its SHA-1 matches. In offline mode the
// Store serves cached copies only.
package document
