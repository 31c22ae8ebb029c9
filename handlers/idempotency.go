package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gomodule/redigo/redis"
	log "github.com/sirupsen/logrus"
)

// Idempotency Handler middleware
// ===========================================================================

const IdempotencyKeyHeader = "Idempotency-Key"

type IdempotencyHandlerOptions struct {
	IgnorePaths []string
	Expiry      time.Duration
}

type IdempotencyStore interface {
	// SetIfAbsent stores key with expiry unless it is already stored and
	// still valid. It reports whether the key was stored.
	SetIfAbsent(key string, expiry time.Duration) (bool, error)
	// Delete releases key so it can be used again.
	Delete(key string) error
}

// Redis store for idempotency keys
type IdempotencyStoreRedis struct {
	pool   *redis.Pool
	prefix string
}

func NewIdempotencyStoreRedis(pool *redis.Pool) *IdempotencyStoreRedis {
	return &IdempotencyStoreRedis{pool: pool, prefix: "idempotencykey"}
}

func (r *IdempotencyStoreRedis) prefixedKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *IdempotencyStoreRedis) SetIfAbsent(key string, expiry time.Duration) (bool, error) {
	conn := r.pool.Get()
	defer conn.Close()

	res, err := redis.String(conn.Do("SET", r.prefixedKey(key), 1, "PX", expiry.Milliseconds(), "NX"))
	if err == redis.ErrNil {
		// NX not met, key exists
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if res != "OK" {
		return false, fmt.Errorf("failed to set key: %v", res)
	}

	return true, nil
}

func (r *IdempotencyStoreRedis) Delete(key string) error {
	conn := r.pool.Get()
	defer conn.Close()

	_, err := conn.Do("DEL", r.prefixedKey(key))
	return err
}

// Local / in-memory store for idempotency keys
type IdempotencyStoreLocal struct {
	mu   sync.Mutex
	keys map[string]time.Time // key: expiry
	now  func() time.Time
}

func NewIdempotencyStoreLocal() *IdempotencyStoreLocal {
	return &IdempotencyStoreLocal{keys: make(map[string]time.Time), now: time.Now}
}

func (m *IdempotencyStoreLocal) SetIfAbsent(key string, expiry time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	// Still valid
	if v, ok := m.keys[key]; ok && v.After(now) {
		return false, nil
	}

	m.keys[key] = now.Add(expiry)

	return true, nil
}

func (m *IdempotencyStoreLocal) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.keys, key)

	return nil
}

// Prune deletes all expired keys.
func (m *IdempotencyStoreLocal) Prune() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, v := range m.keys {
		if !v.After(now) {
			delete(m.keys, k)
		}
	}
}

// UseIdempotency returns a http.Handler that rejects a POST whose
// Idempotency-Key was already used within the expiry. POSTs without the
// header pass through. A key is released again when the wrapped handler
// does not answer with a 2xx, so a corrected request can reuse it.
func UseIdempotency(h http.Handler, opts IdempotencyHandlerOptions, store IdempotencyStore) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		// Only POST requests are checked
		if r.Method != http.MethodPost {
			h.ServeHTTP(rw, r)
			return
		}

		// Check for ignored paths
		for _, path := range opts.IgnorePaths {
			if strings.HasPrefix(r.URL.Path, path) {
				h.ServeHTTP(rw, r)
				return
			}
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if len(key) == 0 {
			h.ServeHTTP(rw, r)
			return
		}

		// Check and store in one step so concurrent requests can not both pass
		stored, err := store.SetIfAbsent(key, opts.Expiry)
		if err != nil {
			log.
				WithFields(log.Fields{"error": err, "key": key}).
				Warn("Error while saving used idempotency key")
			http.Error(rw, "Error while saving used idempotency key", http.StatusInternalServerError)
			return
		}

		// XXX: same key w/ different payload should return 422,
		// but isn't necessarily required functionality => only the key is stored
		if !stored {
			http.Error(rw, fmt.Sprintf("Idempotency-Key conflict, key: %s", key), http.StatusConflict)
			return
		}

		m := httpsnoop.CaptureMetrics(h, rw, r)

		if m.Code < 200 || m.Code > 299 {
			if err := store.Delete(key); err != nil {
				log.
					WithFields(log.Fields{"error": err, "key": key}).
					Warn("Error while releasing idempotency key")
			}
		}
	})
}
