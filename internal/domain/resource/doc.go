// Package resource defines the descriptor of one file to synchronise, the
// on-disk layout descriptors are placed in, and the error taxonomy shared by
// the sync pipeline.
package resource
