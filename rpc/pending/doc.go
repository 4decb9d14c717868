// Package pending implements the id-to-completion correlation table that
// makes multiplexing work: many requests may be outstanding on a connection
// at once, and their responses arrive in completion order, not issue order.
//
// The table is used symmetrically. The client reserves an entry per sent
// request and resolves it when the matching Response frame arrives; the
// server-side driver uses the same structure to correlate asynchronous
// handler completions with the request id that produced them.
//
// Key Components:
//
//   - Table: concurrent map from request id to completion slot, backed by
//     xsync.MapOf. Register allocates ids with wraparound that skips ids
//     still in flight; Reserve takes a caller-chosen id and rejects
//     duplicates.
//
//   - Call: single-assignment completion cell with a Done channel. Resolve,
//     Fail and Remove race through LoadAndDelete, so exactly one of them
//     completes the cell and a late Resolve on a removed id is a no-op.
//
// Thread Safety:
//
//	All operations are safe for concurrent use by the connection's reader
//	goroutine, its worker goroutines and any number of callers.
package pending
