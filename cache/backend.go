package cache

import (
	"context"
	"time"
)

// Backend is the minimal key/value contract the post cache needs from its
// storage. Values are raw bytes, marshaled/unmarshaled by the caller.
//
// Production uses Redis; tests use an in-memory map. A nil Backend is a
// valid configuration meaning "no cache reachable".
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
