// Package syncer drives validate, fetch and extract over a compiled list of
// descriptors.
//
// Every descriptor moves through Unchecked, then Valid or Invalid. Invalid
// ones are fetched, and native archives are extracted right after their
// fetch. Validation runs under an errgroup limited to the CPU count. Fetching
// uses two scheduling loops, one for assets and one for everything else,
// each bounded by its own semaphore.
//
// The first failure cancels scheduling: nothing new is started, transfers
// already running finish on the caller's context, and Sync returns that
// failure as a *resource.EntryError together with a Report of what every
// entry ended up as.
package syncer
