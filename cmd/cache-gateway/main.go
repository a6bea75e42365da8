// Command cache-gateway runs the offline-first caching gateway: the
// version gate stamps the release into durable storage on startup, and the
// interception worker answers site traffic from the two cache partitions
// with background revalidation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/elrayan/sitecache/pkg/gate"
	"github.com/elrayan/sitecache/pkg/logging"
	"github.com/elrayan/sitecache/pkg/store"
	"github.com/elrayan/sitecache/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type config struct {
	RedisURL string `env:"REDIS_URL" envDefault:"localhost:6379"`
	Port     string `env:"PORT" envDefault:"8080"`

	// Origin is the upstream static site the gateway fronts.
	Origin  string `env:"SITE_ORIGIN" envDefault:"http://localhost:9090"`
	Version string `env:"SITE_VERSION" envDefault:"2.1.0"`
	Prefix  string `env:"SITE_PREFIX" envDefault:"elrayan_"`

	StaticAssets   []string `env:"STATIC_ASSETS" envSeparator:"," envDefault:"/,/styles.css,/app.js,/logo.png"`
	ExternalAssets []string `env:"EXTERNAL_ASSETS" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "parse env: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	}).With().Str("component", "gateway").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Gateway failed")
	}
}

func run(ctx context.Context, cfg config, logger zerolog.Logger) error {
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", cfg.RedisURL, err)
	}
	logger.Info().Str("redis", cfg.RedisURL).Msg("Connected to Redis")

	// The gateway serves through whichever worker instance has activated
	// and claimed traffic.
	var active atomic.Pointer[worker.Worker]

	workerCfg := worker.DefaultConfig(redisClient, cfg.Origin)
	workerCfg.StaticAssets = cfg.StaticAssets
	workerCfg.ExternalAssets = cfg.ExternalAssets
	workerCfg.OnActivate = func(w *worker.Worker) { active.Store(w) }

	w, err := worker.New(workerCfg)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}

	g, err := gate.New(gate.Config{
		Store:          store.NewRedisStore(redisClient),
		Version:        cfg.Version,
		Prefix:         cfg.Prefix,
		Meta:           gate.DefaultSiteMeta(),
		CriticalAssets: cfg.StaticAssets,
		Registrar: gate.RegistrarFunc(func(ctx context.Context) error {
			err := w.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}),
	})
	if err != nil {
		return fmt.Errorf("create gate: %w", err)
	}

	snap, err := g.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("initialize gate: %w", err)
	}
	logger.Info().
		Str("version", snap.Version).
		Str("site", snap.Branding.Name).
		Msg("Gate initialized")

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stats", statsHandler(g))
	mux.HandleFunc("/control", controlHandler(&active))
	mux.HandleFunc("/", proxyHandler(&active, g, cfg.Origin))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("origin", cfg.Origin).Msg("Gateway listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// statsHandler reports the gate's read-only state summary.
func statsHandler(g *gate.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := g.Stats(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("stats: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}

// controlHandler posts out-of-band control messages to the active worker.
func controlHandler(active *atomic.Pointer[worker.Worker]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var msg worker.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, fmt.Sprintf("decode message: %v", err), http.StatusBadRequest)
			return
		}

		instance := active.Load()
		if instance == nil {
			http.Error(w, "no active worker", http.StatusServiceUnavailable)
			return
		}

		// Fire-and-forget: no response payload.
		instance.Post(msg)
		w.WriteHeader(http.StatusAccepted)
	}
}

// proxyHandler routes inbound requests to the upstream origin through the
// active worker's interception path. Until a worker has activated, traffic
// passes straight through.
func proxyHandler(active *atomic.Pointer[worker.Worker], g *gate.Gate, origin string) http.HandlerFunc {
	passthrough := &http.Client{Timeout: 30 * time.Second}

	return func(w http.ResponseWriter, r *http.Request) {
		target := strings.TrimSuffix(origin, "/") + r.URL.RequestURI()

		req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("build upstream request: %v", err), http.StatusInternalServerError)
			return
		}
		req.Header = r.Header.Clone()

		var resp *http.Response
		if instance := active.Load(); instance != nil {
			resp, err = instance.Fetch(r.Context(), req)
		} else {
			resp, err = passthrough.Do(req)
		}
		if err != nil {
			http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		// Pre-warm hints ride on HTML responses.
		if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
			for _, hint := range g.Hints() {
				w.Header().Add("Link", hint)
			}
		}

		w.WriteHeader(resp.StatusCode)
		io.Copy(w, resp.Body)
	}
}
