// Package integrity decides whether a local file already satisfies a
// descriptor: same size, same SHA-1.
//
// Hashing streams the file through the digest and runs under a semaphore
// sized to the CPU count, so validating thousands of files at once never
// hashes more than a handful concurrently.
package integrity
