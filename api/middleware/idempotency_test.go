package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type fakeIdempotencyStore struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{
		values: map[string]string{},
		ttls:   map[string]time.Duration{},
	}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeIdempotencyStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func newIdempotencyRouter(store *fakeIdempotencyStore, hits *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order":"created"}}`))
	})
	r.Get("/api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestIdempotencyIgnoresUnlistedRoutes(t *testing.T) {
	hits := 0
	router := newIdempotencyRouter(newFakeIdempotencyStore(), &hits)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if hits != 1 {
		t.Fatalf("expected handler hit, got %d", hits)
	}
}

func TestIdempotencyRequiresKeyOnGuardedRoutes(t *testing.T) {
	hits := 0
	router := newIdempotencyRouter(newFakeIdempotencyStore(), &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d", w.Code)
	}
	if hits != 0 {
		t.Fatalf("handler must not run, got %d hits", hits)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	hits := 0
	store := newFakeIdempotencyStore()
	router := newIdempotencyRouter(store, &hits)

	body := `{"items":[{"product_id":"p1","quantity":1}]}`
	first := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "abc-123")
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, first)

	if w1.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w1.Code)
	}
	if hits != 1 {
		t.Fatalf("expected one handler hit, got %d", hits)
	}

	replay := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	replay.Header.Set("Idempotency-Key", "abc-123")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, replay)

	if hits != 1 {
		t.Fatalf("replay must not reach the handler, got %d hits", hits)
	}
	if w2.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", w2.Code)
	}
	if w2.Body.String() != w1.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", w2.Body.String(), w1.Body.String())
	}
	if ct := w2.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected replayed content type, got %q", ct)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	hits := 0
	store := newFakeIdempotencyStore()
	router := newIdempotencyRouter(store, &hits)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"quantity":1}`))
	first.Header.Set("Idempotency-Key", "abc-123")
	router.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"quantity":9}`))
	second.Header.Set("Idempotency-Key", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, second)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key, got %d", w.Code)
	}
	if hits != 1 {
		t.Fatalf("second request must not reach the handler, got %d hits", hits)
	}
}

func TestIdempotencyDoesNotPinServerErrors(t *testing.T) {
	hits := 0
	store := newFakeIdempotencyStore()
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/v1/orders", func(w http.ResponseWriter, _ *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR"}}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order":"created"}}`))
	})

	body := `{"items":[{"product_id":"p1","quantity":1}]}`
	first := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "retry-me")
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, first)
	if w1.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from first attempt, got %d", w1.Code)
	}

	store.mu.Lock()
	stored := len(store.values)
	store.mu.Unlock()
	if stored != 0 {
		t.Fatalf("a 500 must not be persisted, found %d records", stored)
	}

	retry := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	retry.Header.Set("Idempotency-Key", "retry-me")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, retry)
	if hits != 2 {
		t.Fatalf("retry after a server error must reach the handler, got %d hits", hits)
	}
	if w2.Code != http.StatusCreated {
		t.Fatalf("expected 201 on retry, got %d", w2.Code)
	}
}

func TestIdempotencyAppliesCriticalTTLToOrders(t *testing.T) {
	hits := 0
	store := newFakeIdempotencyStore()
	router := newIdempotencyRouter(store, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "ttl-check")
	router.ServeHTTP(httptest.NewRecorder(), req)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.ttls) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.ttls))
	}
	for _, ttl := range store.ttls {
		if ttl != 7*24*time.Hour {
			t.Fatalf("expected 7d TTL for order creation, got %s", ttl)
		}
	}
}
