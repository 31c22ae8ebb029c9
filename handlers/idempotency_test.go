package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/flow-hydraulics/flow-settings-api/internal/redistest"
	"github.com/gorilla/mux"
)

func testStores() map[string]IdempotencyStore {
	return map[string]IdempotencyStore{
		"local": NewIdempotencyStoreLocal(),
		"redis": NewIdempotencyStoreRedis(redistest.NewConn().Pool()),
	}
}

func Test_IdempotencyMiddleware(t *testing.T) {
	for name, is := range testStores() {
		t.Run(name, func(t *testing.T) {
			// Dummy endpoint for testing
			testHandler := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				rw.WriteHeader(http.StatusOK)
			})

			router := mux.NewRouter()
			router.Handle("/test", UseIdempotency(testHandler, IdempotencyHandlerOptions{
				Expiry:      5000 * time.Millisecond,
				IgnorePaths: []string{"/ignored"},
			}, is)).Methods(http.MethodPost, http.MethodGet)

			ik := "idempotency-key-test"
			body := bytes.NewBufferString("")

			t.Run("returns 200 with a fresh key", func(t *testing.T) {
				res := sendWithHeaders(router, http.MethodPost, "/test", body, map[string]string{IdempotencyKeyHeader: ik})
				assertStatusCode(t, res, http.StatusOK)
			})

			t.Run("returns 409 with a used key", func(t *testing.T) {
				res := sendWithHeaders(router, http.MethodPost, "/test", body, map[string]string{IdempotencyKeyHeader: ik})
				assertStatusCode(t, res, http.StatusConflict)
			})

			t.Run("passes through with missing header", func(t *testing.T) {
				res := send(router, http.MethodPost, "/test", body)
				assertStatusCode(t, res, http.StatusOK)
				res = send(router, http.MethodPost, "/test", body)
				assertStatusCode(t, res, http.StatusOK)
			})

			t.Run("ignores GET", func(t *testing.T) {
				res := sendWithHeaders(router, http.MethodGet, "/test", nil, map[string]string{IdempotencyKeyHeader: ik})
				assertStatusCode(t, res, http.StatusOK)
			})
		})
	}
}

func TestIdempotencyConcurrentSameKey(t *testing.T) {
	for name, is := range testStores() {
		t.Run(name, func(t *testing.T) {
			var (
				mu     sync.Mutex
				served int
			)

			h := UseIdempotency(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				mu.Lock()
				served++
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				rw.WriteHeader(http.StatusOK)
			}), IdempotencyHandlerOptions{Expiry: time.Minute}, is)

			var (
				wg        sync.WaitGroup
				conflicts int
			)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res := sendWithHeaders(h, http.MethodPost, "/settings", bytes.NewBufferString(`{}`), map[string]string{IdempotencyKeyHeader: "same"})
					if res.StatusCode == http.StatusConflict {
						mu.Lock()
						conflicts++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			if served != 1 {
				t.Errorf("expected exactly 1 request served with the same key, got %d", served)
			}
			if conflicts != 9 {
				t.Errorf("expected 9 conflicts, got %d", conflicts)
			}
		})
	}
}

func TestIdempotencyKeyReleasedOnFailure(t *testing.T) {
	for name, is := range testStores() {
		t.Run(name, func(t *testing.T) {
			status := http.StatusBadRequest
			h := UseIdempotency(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				rw.WriteHeader(status)
			}), IdempotencyHandlerOptions{Expiry: time.Minute}, is)

			headers := map[string]string{IdempotencyKeyHeader: "retry"}

			res := sendWithHeaders(h, http.MethodPost, "/settings", bytes.NewBufferString(`{"theme":1}`), headers)
			assertStatusCode(t, res, http.StatusBadRequest)

			status = http.StatusOK

			res = sendWithHeaders(h, http.MethodPost, "/settings", bytes.NewBufferString(`{"theme":"dark"}`), headers)
			assertStatusCode(t, res, http.StatusOK)

			res = sendWithHeaders(h, http.MethodPost, "/settings", bytes.NewBufferString(`{"theme":"dark"}`), headers)
			assertStatusCode(t, res, http.StatusConflict)
		})
	}
}

func TestIdempotencyStoreLocalExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	is := NewIdempotencyStoreLocal()
	is.now = func() time.Time { return now }

	for _, k := range []string{"a", "b"} {
		expiry := time.Minute
		if k == "b" {
			expiry = time.Hour
		}
		if stored, err := is.SetIfAbsent(k, expiry); err != nil || !stored {
			t.Fatalf("expected key %s to be stored, got %v, %v", k, stored, err)
		}
	}

	if stored, _ := is.SetIfAbsent("a", time.Minute); stored {
		t.Fatal("expected key a to still be in use")
	}

	now = now.Add(2 * time.Minute)

	is.Prune()
	if len(is.keys) != 1 {
		t.Errorf("expected 1 key after prune, got %d", len(is.keys))
	}
	if stored, _ := is.SetIfAbsent("b", time.Minute); stored {
		t.Error("expected key b to survive prune")
	}
	if stored, _ := is.SetIfAbsent("a", time.Minute); !stored {
		t.Error("expected expired key a to be usable again")
	}
}

type failingStore struct{}

func (failingStore) SetIfAbsent(string, time.Duration) (bool, error) {
	return false, errors.New("down")
}
func (failingStore) Delete(string) error { return errors.New("down") }

func TestIdempotencyStoreError(t *testing.T) {
	h := UseIdempotency(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}), IdempotencyHandlerOptions{Expiry: time.Minute}, failingStore{})

	res := sendWithHeaders(h, http.MethodPost, "/settings", bytes.NewBufferString(`{}`), map[string]string{IdempotencyKeyHeader: "k"})
	assertStatusCode(t, res, http.StatusInternalServerError)
}
