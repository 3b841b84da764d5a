// Package compiler flattens a version descriptor and its asset index into the
// list of resource descriptors a sync works on.
//
// Libraries are filtered through their rule sets for the given platform
// context. The result is deterministic: assets are ordered by virtual path,
// libraries keep declaration order, and a file listed twice is emitted once.
package compiler
