// Package rumor implements the in-memory registry at the heart of Rumour
// Mill: a curated list of short rumors guarded by a single exclusive lock
// and mirrored to durable storage on every mutation.
//
// All reads and writes go through Registry, which serializes access with a
// bounded wait. A saturated lock surfaces as ErrBusy so callers can report
// contention instead of stalling the trigger path. Mutations persist through
// the configured Store before the lock is released; persistence failures are
// logged and reported to the registry's failure hook but never roll back
// accepted changes.
package rumor
