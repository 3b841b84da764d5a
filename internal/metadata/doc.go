// Package metadata models the remote release documents: the version manifest,
// the per-version descriptor and the asset index. It also provides a small
// HTTP client that fetches them.
//
// Documents are decoded through tidwall/jsonc so hand-edited cached copies
// with comments or trailing commas still load.
package metadata
