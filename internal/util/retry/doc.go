// Package retry provides exponential backoff retry logic for transient failures.
//
// The [Do] function retries an operation with configurable max retries,
// initial delay, and maximum delay. It is used when dialing SSH on freshly
// booted virtual machines, where the daemon may not be listening yet.
package retry
