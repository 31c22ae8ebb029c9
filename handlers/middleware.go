package handlers

import (
	"net/http"

	gorilla "github.com/gorilla/handlers"
	"go.uber.org/ratelimit"
)

func UseCors(h http.Handler, origins []string) http.Handler {
	return gorilla.CORS(
		gorilla.AllowedOrigins(origins),
		gorilla.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorilla.AllowedHeaders([]string{"Content-Type", "Idempotency-Key", "X-Request-Id"}),
	)(h)
}

func UseCompress(h http.Handler) http.Handler {
	return gorilla.CompressHandler(h)
}

// UseRateLimit throttles POST requests to the limiter's rate. Requests wait
// for their slot instead of being rejected.
func UseRateLimit(h http.Handler, limiter ratelimit.Limiter) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limiter.Take()
		}
		h.ServeHTTP(rw, r)
	})
}
