// Package cache provides the cache-side building blocks of the lookup services:
// the Store contract, cache key derivation and payload codecs.
//
// # Overview
//
// This package exports three main interfaces and their default implementations:
//
//   - Store: a byte key/value store with per-write TTL (in-process sturdyc or redis)
//   - KeyDeriver: builds stable cache keys from a collection name and query fields
//   - Codec: converts cached values to and from bytes (msgpack by default, JSON optional)
//
// On top of them, Read, Put and GetOrFetch implement the cache-aside steps in a
// type-safe way through generics.
//
// # Basic Usage
//
//	deriver := cache.NewDefaultKeyDeriver()
//	key := deriver.DeriveKey("movies", total, page, pageSize, query, genre, sort)
//
//	store, _ := cache.NewMemoryStore(cache.DefaultConfig())
//	film, outcome, err := cache.GetOrFetch(ctx, store, cache.NewMsgpackCodec[Film](), id, cache.DefaultTTL,
//		func(ctx context.Context) (Film, error) {
//			return index.Get(ctx, "movies", id)
//		})
//
// # Key Derivation Strategy
//
// Keys have the form "<collection>::<hash>". The hash is xxhash64 over the
// canonical form of the fields, where each field is:
//
//   - Absent (nil, nil pointer, empty string, empty slice): the placeholder "-"
//   - Basic types and strings: "<len>:<text>", so 10 and "10" render the same
//   - Slices/arrays: "list[n]:{...}" with each element rendered recursively
//   - fmt.Stringer values: their String() output
//   - Anything else: JSON
//
// Field order matters and is part of the contract: callers must always pass
// fields in the same order. The readable collection prefix lets a Store drop
// all keys of one collection with DeleteByPrefix.
//
// # Corrupt Entries
//
// Read never fails on undecodable bytes. It returns OutcomeCorrupt and lets the
// caller fall through to the source of truth, which then overwrites the entry.
package cache
