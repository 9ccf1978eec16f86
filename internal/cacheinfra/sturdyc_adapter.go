package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// Config sizes the in-process store.
type Config struct {
	// Capacity is the entry limit across all shards.
	Capacity int
	// NumShards splits the keyspace to reduce lock contention.
	NumShards int
	// TTL applies to every entry. sturdyc keeps one TTL per client, so it
	// has to match the TTL the lookup services write with.
	TTL time.Duration
	// EvictionPercentage is the share of entries dropped when Capacity is
	// reached, 1 to 100.
	EvictionPercentage int
	// EvictionInterval overrides the expiry sweep period when positive.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with the five minute TTL the services use.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions returns the options not covered by sturdyc.New arguments.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	if c.EvictionInterval <= 0 {
		return nil
	}
	return []sturdyc.Option{sturdyc.WithEvictionInterval(c.EvictionInterval)}
}

// Validate reports the first field that sturdyc would reject.
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	case c.NumShards <= 0:
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	case c.TTL <= 0:
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	case c.EvictionInterval < 0:
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// SturdycStore is an in-process byte store backed by a sharded sturdyc client.
type SturdycStore struct {
	client *sturdyc.Client[[]byte]
	ttl    time.Duration
}

// NewSturdycStore validates cfg and initializes a sturdyc client with it.
func NewSturdycStore(cfg Config) (*SturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycStore{client: client, ttl: cfg.TTL}, nil
}

// Get returns the bytes stored under key, if any.
func (s *SturdycStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key. The per-call ttl is accepted for interface
// compatibility; entries always expire after the client TTL.
func (s *SturdycStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl > 0 && ttl != s.ttl {
		return &ConfigError{Field: "TTL", Message: "per-entry ttl " + ttl.String() + " differs from store ttl " + s.ttl.String()}
	}
	s.client.Set(key, value)
	return nil
}

// Delete removes a single entry from the cache.
func (s *SturdycStore) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes all entries whose key starts with prefix.
func (s *SturdycStore) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// Size returns the number of entries currently held.
func (s *SturdycStore) Size() int {
	return s.client.Size()
}
