package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flow-hydraulics/flow-settings-api/configs"
	"github.com/flow-hydraulics/flow-settings-api/graph"
	"github.com/flow-hydraulics/flow-settings-api/handlers"
	"github.com/flow-hydraulics/flow-settings-api/handlers/middleware"
	"github.com/flow-hydraulics/flow-settings-api/metrics"
	"github.com/flow-hydraulics/flow-settings-api/notifications"
	"github.com/flow-hydraulics/flow-settings-api/settings"
	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

const (
	version = "0.1.0"
	repoURL = "https://github.com/flow-hydraulics/flow-settings-api"
)

var (
	sha1ver   string // sha1 revision used to build the program
	buildTime string // when the executable was built
)

func main() {
	var printVersion bool

	// If we should just print the version number and exit
	flag.BoolVar(&printVersion, "version", false, "if true, print version and exit")
	flag.Parse()

	if printVersion {
		fmt.Printf("v%s build on %s from sha1 %s\n", version, buildTime, sha1ver)
		os.Exit(0)
	}

	cfg, err := configs.Parse()
	if err != nil {
		log.Fatal(err)
	}

	runServer(cfg)

	os.Exit(0)
}

// app is everything the HTTP handler needs. It lives as long as the server.
type app struct {
	cfg              *configs.Config
	service          *settings.Service
	metrics          *metrics.Metrics
	idempotencyStore handlers.IdempotencyStore
	started          time.Time
}

type liveness struct {
	Uptime      string     `json:"uptime"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

func runServer(cfg *configs.Config) {
	configs.ConfigureLogger(cfg.LogLevel)

	log.Info("Starting server")

	var updatedHandlers []settings.UpdatedHandler

	// Redis, for idempotency keys and/or update publishing
	var pool *redis.Pool
	if cfg.RedisURL != "" {
		pool = newRedisPool(cfg.RedisURL)
		defer func() {
			if err := pool.Close(); err != nil {
				log.Warn(err)
			}
			log.Info("Closed Redis pool")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := waitForRedis(ctx, pool)
		cancel()
		if err != nil {
			log.Fatal(err)
		}
	}

	if cfg.SettingsUpdatedRedisChannel != "" {
		updatedHandlers = append(updatedHandlers, notifications.NewRedisPublisher(pool, cfg.SettingsUpdatedRedisChannel))
		log.WithFields(log.Fields{"channel": cfg.SettingsUpdatedRedisChannel}).Info("Publishing settings updates to Redis")
	}

	if cfg.SettingsUpdatedWebhookURL != "" {
		wh, err := notifications.NewWebhook(
			cfg.SettingsUpdatedWebhookURL,
			cfg.SettingsUpdatedWebhookTimeout,
			cfg.SettingsUpdatedWebhookMaxAttempts,
		)
		if err != nil {
			log.Fatal(err)
		}
		updatedHandlers = append(updatedHandlers, wh)
		log.Info("Sending settings updates to webhook")
	}

	var m *metrics.Metrics
	if !cfg.DisableMetrics {
		m = metrics.New()
		updatedHandlers = append(updatedHandlers, m)
	}

	// The one settings record of this process
	svc := settings.NewService(
		settings.NewMemoryStore(),
		settings.WithUpdatedHandlers(updatedHandlers...),
	)

	var is handlers.IdempotencyStore
	if !cfg.DisableIdempotencyMiddleware {
		switch cfg.IdempotencyMiddlewareDatabaseType {
		case configs.IdempotencyStoreRedis:
			is = handlers.NewIdempotencyStoreRedis(pool)
		case configs.IdempotencyStoreLocal:
			local := handlers.NewIdempotencyStoreLocal()
			stop := pruneEvery(local, cfg.IdempotencyKeyExpiry)
			defer stop()
			is = local
		}
	}

	a := &app{
		cfg:              cfg,
		service:          svc,
		metrics:          m,
		idempotencyStore: is,
		started:          time.Now(),
	}

	h, err := a.handler()
	if err != nil {
		log.Fatal(err)
	}

	// Server boilerplate
	srv := &http.Server{
		Handler:      h,
		Addr:         cfg.Addr(),
		WriteTimeout: 0, // Disabled, set cfg.ServerRequestTimeout instead
		ReadTimeout:  0, // Disabled, set cfg.ServerRequestTimeout instead
	}

	// Run our server in a goroutine so that it doesn't block.
	go func() {
		log.
			WithFields(log.Fields{
				"host": cfg.Host,
				"port": cfg.Port,
			}).
			Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(err)
		}
	}()

	// Trap interupt or sigterm and gracefully shutdown the server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block until we receive our signal.
	sig := <-c

	log.Infof("Got signal: %s. Shutting down..", sig)

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("Error in server shutdown: %s", err)
	}

	// Let queued update notifications go out before Redis is closed
	if err := svc.Close(ctx); err != nil {
		log.Warnf("Error while draining settings update handlers: %s", err)
	}
	log.Info("Settings update handlers drained")
}

// handler builds the router and wraps it in the middleware chain.
func (a *app) handler() (http.Handler, error) {
	cfg := a.cfg

	settingsHandler := handlers.NewSettings(a.service)

	r := mux.NewRouter()

	if a.metrics != nil {
		r.Use(a.metrics.Middleware)
		r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)
	}

	// Debug
	r.Handle("/debug", handlers.Debug(repoURL, version, sha1ver, buildTime)).Methods(http.MethodGet)

	// Health
	r.HandleFunc("/health/ready", handlers.HandleHealthReady).Methods(http.MethodGet)
	r.Handle("/health/liveness", handlers.Liveness(func() (interface{}, error) {
		return liveness{
			Uptime:      time.Since(a.started).Round(time.Second).String(),
			LastUpdated: a.service.Get().LastUpdated,
		}, nil
	})).Methods(http.MethodGet)

	// Settings
	r.Handle("/settings", settingsHandler.Get()).Methods(http.MethodGet)
	r.Handle("/settings", settingsHandler.Update()).Methods(http.MethodPost)

	// GraphQL, read only
	if !cfg.DisableGraphQL {
		schema, err := graph.NewSchema(a.service)
		if err != nil {
			return nil, fmt.Errorf("error while building graphql schema: %w", err)
		}
		r.Handle("/graphql", handlers.GraphQL(&schema, cfg.GraphiQL)).Methods(http.MethodGet, http.MethodPost)
	} else {
		log.Info("graphql disabled")
	}

	h := http.Handler(r)

	if cfg.SettingsMaxWriteRate > 0 {
		h = handlers.UseRateLimit(h, ratelimit.New(cfg.SettingsMaxWriteRate))
	}

	// Setup idempotency key middleware if it's enabled
	if a.idempotencyStore != nil {
		h = handlers.UseIdempotency(h, handlers.IdempotencyHandlerOptions{
			Expiry:      cfg.IdempotencyKeyExpiry,
			IgnorePaths: []string{"/graphql"}, // Queries are read-only
		}, a.idempotencyStore)
	}

	h = http.TimeoutHandler(h, cfg.ServerRequestTimeout, "request timed out")
	h = handlers.UseCors(h, cfg.CorsAllowedOrigins)
	h = middleware.LoggingHandler(h)
	h = handlers.UseCompress(h)

	return h, nil
}

func newRedisPool(url string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     80,
		MaxActive:   12000,
		IdleTimeout: 5 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(url)
		},
	}
}

// waitForRedis pings until Redis answers or ctx is done.
func waitForRedis(ctx context.Context, pool *redis.Pool) error {
	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	for {
		conn, err := pool.GetContext(ctx)
		if err == nil {
			_, err = conn.Do("PING")
			conn.Close()
			if err == nil {
				return nil
			}
		}

		wait := b.Duration()
		log.WithFields(log.Fields{"error": err, "wait": wait}).Warn("Waiting for Redis")

		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not reachable: %w", err)
		case <-time.After(wait):
		}
	}
}

// pruneEvery drops expired idempotency keys periodically until stop is called.
func pruneEvery(store *handlers.IdempotencyStoreLocal, interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				store.Prune()
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}
