package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeLockStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeLockStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeLockStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeLockStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "ecom:cron:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	ctx := context.Background()
	claimed, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !claimed {
		t.Fatal("expected first acquire to claim the lock")
	}
	if store.ttls["ecom:cron:lock:test"] != time.Minute {
		t.Fatalf("unexpected ttl %s", store.ttls["ecom:cron:lock:test"])
	}

	claimed, err = lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if !claimed {
		t.Fatal("re-acquire by the holder should succeed")
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, exists := store.values["ecom:cron:lock:test"]; exists {
		t.Fatal("release should delete the key")
	}
}

func TestRedisLockContention(t *testing.T) {
	store := newFakeLockStore()
	first, _ := NewRedisLock(store, "shared", 0)
	second, _ := NewRedisLock(store, "shared", 0)

	ctx := context.Background()
	if claimed, _ := first.Acquire(ctx); !claimed {
		t.Fatal("first replica should claim the lock")
	}
	if claimed, _ := second.Acquire(ctx); claimed {
		t.Fatal("second replica must not claim a held lock")
	}

	// A loser releasing is a no-op; the holder keeps the lock.
	if err := second.Release(ctx); err != nil {
		t.Fatalf("loser release: %v", err)
	}
	if _, exists := store.values["shared"]; !exists {
		t.Fatal("holder's lock should survive a loser's release")
	}
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := newFakeLockStore()
	lock, _ := NewRedisLock(store, "expires", 0)

	ctx := context.Background()
	if claimed, _ := lock.Acquire(ctx); !claimed {
		t.Fatal("expected to claim the lock")
	}

	// Simulate TTL expiry followed by another replica taking over.
	delete(store.values, "expires")
	store.values["expires"] = "someone-else"

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release after handover: %v", err)
	}
	if store.values["expires"] != "someone-else" {
		t.Fatal("release must not delete another replica's lock")
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", 0); err == nil {
		t.Fatal("expected an error without a store")
	}
	if _, err := NewRedisLock(newFakeLockStore(), "", 0); err == nil {
		t.Fatal("expected an error without a key")
	}
	lock, err := NewRedisLock(newFakeLockStore(), "key", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lock.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", lock.ttl)
	}
}
