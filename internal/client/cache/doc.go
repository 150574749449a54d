// Package cache is the durable local state of the client: the signed-in
// user, the last remote note snapshot, notes written locally, tombstones of
// notes deleted locally and the queue of mutations waiting for the remote
// service.
//
// Everything lives in one SQLite file whose schema is applied from embedded
// goose migrations. Cache methods are safe for concurrent use; they are
// serialized by a single mutex.
//
// Reads never fail. When the store cannot be read they log a warning and
// return the empty value. Writes return an error wrapping ErrPersistence.
package cache
