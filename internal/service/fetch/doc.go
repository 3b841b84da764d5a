// Package fetch downloads descriptor content to its local path.
//
// The body is streamed in fixed-size chunks into a buffered writer while the
// SHA-1 is computed on the fly. Each chunk is added to a shared byte counter
// and, when a bandwidth cap is configured, waits on a rate limiter shared by
// all transfers of the Fetcher.
package fetch
