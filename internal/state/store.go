package state

import "context"

// Store is a small keyed string store used for durable client state
// such as the signing-nonce high-water mark.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
