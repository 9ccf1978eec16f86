package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}

	if cfg.TTL != 5*time.Minute {
		t.Errorf("expected TTL to be 5 minutes, got %v", cfg.TTL)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		errorMsg string
	}{
		{
			name: "valid default config",
			cfg:  DefaultConfig(),
		},
		{
			name: "invalid capacity - zero",
			cfg: Config{
				Capacity:           0,
				NumShards:          256,
				TTL:                5 * time.Minute,
				EvictionPercentage: 10,
			},
			errorMsg: "config error in field Capacity: must be greater than 0",
		},
		{
			name: "invalid num shards - zero",
			cfg: Config{
				Capacity:           1000,
				NumShards:          0,
				TTL:                5 * time.Minute,
				EvictionPercentage: 10,
			},
			errorMsg: "config error in field NumShards: must be greater than 0",
		},
		{
			name: "invalid TTL - zero",
			cfg: Config{
				Capacity:           1000,
				NumShards:          256,
				TTL:                0,
				EvictionPercentage: 10,
			},
			errorMsg: "config error in field TTL: must be greater than 0",
		},
		{
			name: "invalid eviction percentage - too high",
			cfg: Config{
				Capacity:           1000,
				NumShards:          256,
				TTL:                5 * time.Minute,
				EvictionPercentage: 101,
			},
			errorMsg: "config error in field EvictionPercentage: must be between 1 and 100",
		},
		{
			name: "invalid eviction interval - negative",
			cfg: Config{
				Capacity:           1000,
				NumShards:          256,
				TTL:                5 * time.Minute,
				EvictionPercentage: 10,
				EvictionInterval:   -time.Second,
			},
			errorMsg: "config error in field EvictionInterval: must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("expected no validation error but got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error but got none")
			}
			if err.Error() != tt.errorMsg {
				t.Errorf("expected error message %q, got %q", tt.errorMsg, err.Error())
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected *ConfigError, got %T", err)
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	if n := len(DefaultConfig().ToSturdycOptions()); n != 0 {
		t.Errorf("expected no sturdyc options for default config, got %d", n)
	}

	cfg := DefaultConfig()
	cfg.EvictionInterval = time.Second
	if n := len(cfg.ToSturdycOptions()); n != 1 {
		t.Errorf("expected 1 sturdyc option with an eviction interval, got %d", n)
	}
}

func TestNewSturdycStore(t *testing.T) {
	store, err := NewSturdycStore(Config{Capacity: 0, NumShards: 1, TTL: time.Minute, EvictionPercentage: 10})
	if err == nil {
		t.Fatal("expected error for zero capacity")
	}
	if store != nil {
		t.Error("expected store to be nil when error occurs")
	}

	store, err = NewSturdycStore(DefaultConfig())
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if store.Size() != 0 {
		t.Errorf("new store should be empty, got %d entries", store.Size())
	}
}

func TestSturdycStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewSturdycStore(Config{
		Capacity:           100,
		NumShards:          2,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if _, found, err := store.Get(ctx, "movies::a"); found || err != nil {
		t.Errorf("absent key: found = %v, err = %v", found, err)
	}

	if err := store.Set(ctx, "movies::a", []byte("page"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "movies::b", []byte("page"), 0); err != nil {
		t.Fatalf("Set() with zero ttl error = %v", err)
	}

	value, found, err := store.Get(ctx, "movies::a")
	if err != nil || !found || string(value) != "page" {
		t.Errorf("Get() = %q, %v, %v", value, found, err)
	}

	if err := store.Delete(ctx, "movies::a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := store.Get(ctx, "movies::a"); found {
		t.Error("deleted key should be absent")
	}
}

func TestSturdycStore_TTLMismatch(t *testing.T) {
	store, err := NewSturdycStore(DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	err = store.Set(context.Background(), "k", []byte("v"), time.Hour)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "TTL" {
		t.Fatalf("expected TTL ConfigError, got %v", err)
	}
	if !strings.Contains(cfgErr.Message, "1h0m0s") {
		t.Errorf("message should name the rejected ttl: %q", cfgErr.Message)
	}
}

func TestSturdycStore_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	store, err := NewSturdycStore(DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	for _, key := range []string{"movies::1", "movies::2", "genres::1", "moviesx::1"} {
		if err := store.Set(ctx, key, []byte(key), 0); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := store.DeleteByPrefix(ctx, "movies::"); err != nil {
		t.Fatalf("DeleteByPrefix() error = %v", err)
	}

	if store.Size() != 2 {
		t.Errorf("expected 2 remaining entries, got %d", store.Size())
	}
	for _, key := range []string{"genres::1", "moviesx::1"} {
		if _, found, _ := store.Get(ctx, key); !found {
			t.Errorf("%q should survive the prefix delete", key)
		}
	}
}
