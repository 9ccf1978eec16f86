package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCorruptPayload is returned by codecs when cached bytes cannot be decoded.
var ErrCorruptPayload = errors.New("cache: corrupt payload")

// Outcome describes how a cache read was resolved.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeMiss    Outcome = "miss"
	OutcomeCorrupt Outcome = "corrupt"
)

// KeyDeriver builds a cache key from a collection name and the ordered fields
// that select a result set. It is responsible for producing stable keys across
// calls and across processes.
type KeyDeriver interface {
	DeriveKey(collection string, fields ...any) string
}

// Store is the key/value contract the lookup services need from a cache backend.
// Get reports found=false for absent or expired keys; only transport failures
// are returned as errors.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// FetchFn is the function signature GetOrFetch expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Read reads key from store and decodes it. Undecodable bytes are reported as
// OutcomeCorrupt with a nil error so callers can treat them as a miss.
func Read[T any](ctx context.Context, store Store, codec Codec[T], key string) (T, Outcome, error) {
	var zero T

	data, found, err := store.Get(ctx, key)
	if err != nil {
		return zero, OutcomeMiss, fmt.Errorf("cache get %q: %w", key, err)
	}
	if !found {
		return zero, OutcomeMiss, nil
	}

	value, err := codec.Decode(data)
	if err != nil {
		return zero, OutcomeCorrupt, nil
	}
	return value, OutcomeHit, nil
}

// Put encodes value and writes it under key with the given ttl.
func Put[T any](ctx context.Context, store Store, codec Codec[T], key string, value T, ttl time.Duration) error {
	data, err := codec.Encode(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	if err := store.Set(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// GetOrFetch is the cache-aside read used for single records: read, and on a
// miss (or a corrupt entry) call fetchFn and write the fresh value back.
func GetOrFetch[T any](ctx context.Context, store Store, codec Codec[T], key string, ttl time.Duration, fetchFn FetchFn[T]) (T, Outcome, error) {
	value, outcome, err := Read(ctx, store, codec, key)
	if err != nil || outcome == OutcomeHit {
		return value, outcome, err
	}

	fresh, err := fetchFn(ctx)
	if err != nil {
		var zero T
		return zero, outcome, err
	}

	if err := Put(ctx, store, codec, key, fresh, ttl); err != nil {
		var zero T
		return zero, outcome, err
	}
	return fresh, outcome, nil
}
