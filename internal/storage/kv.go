package storage

import "context"

// KV is a durable ordered key-value store. It is the host substrate the
// entity tables are built on; any backend that can upsert and iterate a
// byte-keyed keyspace in ascending order can serve.
type KV interface {
	// Get returns the value for key, reporting whether it exists.
	Get(ctx context.Context, key []byte) ([]byte, bool, error)
	// Put inserts or overwrites the value for key.
	Put(ctx context.Context, key, value []byte) error
	// Scan calls fn for every key with the given prefix, in ascending
	// key order. Iteration stops on the first error fn returns.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error
	// Close flushes and releases the store.
	Close() error
}
