package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/elrayan/sitecache/pkg/partition"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Default partition naming. Names are versioned: bumping PartitionVersion
// makes every previously existing partition stale, and activation drops it.
const (
	DefaultPartitionPrefix  = "elrayan"
	DefaultPartitionVersion = "v1"
)

// Config holds the worker configuration.
type Config struct {
	// Redis client backing the cache partitions (required).
	Redis *redis.Client

	// Origin is the site's own origin, e.g. "https://elrayan.example"
	// (required). Requests to this host go to the static partition;
	// everything else goes to the dynamic partition.
	Origin string

	// StaticAssets are same-origin paths seeded during install. A single
	// failure here fails the whole install: a missing local asset is a
	// build error.
	StaticAssets []string

	// ExternalAssets are absolute cross-origin URLs seeded during install.
	// Each fetch is isolated; failures are logged as warnings only.
	ExternalAssets []string

	// PartitionPrefix and PartitionVersion form the two partition names:
	// <prefix>-static-<version> and <prefix>-dynamic-<version>.
	PartitionPrefix  string
	PartitionVersion string

	// Client is the upstream HTTP client. Defaults to a plain client with
	// no timeout: a hung revalidation simply never resolves and the stale
	// entry stays authoritative.
	Client *http.Client

	// SkipWaitingOnInstall releases the waiting gate as soon as install
	// completes, so activation follows immediately. Default true.
	SkipWaitingOnInstall bool

	// Concurrency bounds parallel seeding during install.
	Concurrency int

	// Retry configures install retries in Run. Zero value uses
	// DefaultRetryConfig.
	Retry RetryConfig

	// OnActivate is invoked once the worker reaches the activated state;
	// the gateway uses it to claim in-flight traffic for this instance.
	OnActivate func(*Worker)
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redisClient *redis.Client, origin string) Config {
	return Config{
		Redis:                redisClient,
		Origin:               origin,
		PartitionPrefix:      DefaultPartitionPrefix,
		PartitionVersion:     DefaultPartitionVersion,
		SkipWaitingOnInstall: true,
		Concurrency:          5,
	}
}

// Worker is the interception worker instance.
type Worker struct {
	redis      *redis.Client
	origin     *url.URL
	static     *partition.Partition
	dynamic    *partition.Partition
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger

	state   atomic.Int32
	waiting chan struct{}
	release sync.Once
	msgs    chan Message

	revalidations sync.WaitGroup
}

// New creates a worker. The worker does nothing until Run (or Install and
// Activate) is called.
func New(cfg Config) (*Worker, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.Origin == "" {
		return nil, fmt.Errorf("origin is required")
	}

	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("origin must be an absolute URL: %q", cfg.Origin)
	}

	if cfg.PartitionPrefix == "" {
		cfg.PartitionPrefix = DefaultPartitionPrefix
	}
	if cfg.PartitionVersion == "" {
		cfg.PartitionVersion = DefaultPartitionVersion
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	staticName := fmt.Sprintf("%s-static-%s", cfg.PartitionPrefix, cfg.PartitionVersion)
	dynamicName := fmt.Sprintf("%s-dynamic-%s", cfg.PartitionPrefix, cfg.PartitionVersion)

	return &Worker{
		redis:      cfg.Redis,
		origin:     origin,
		static:     partition.Open(cfg.Redis, staticName),
		dynamic:    partition.Open(cfg.Redis, dynamicName),
		httpClient: cfg.Client,
		config:     cfg,
		logger:     log.With().Str("component", "worker").Logger(),
		waiting:    make(chan struct{}),
		msgs:       make(chan Message, 16),
	}, nil
}

// State returns the current lifecycle phase.
func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
	w.logger.Debug().Str("state", s.String()).Msg("Lifecycle transition")
}

// WaitRevalidations blocks until all in-flight background revalidations
// have finished. Intended for tests and graceful shutdown.
func (w *Worker) WaitRevalidations() {
	w.revalidations.Wait()
}

// StaticPartition returns the static partition handle.
func (w *Worker) StaticPartition() *partition.Partition { return w.static }

// DynamicPartition returns the dynamic partition handle.
func (w *Worker) DynamicPartition() *partition.Partition { return w.dynamic }

// Install seeds both partitions concurrently: the static partition with
// all-or-nothing semantics, the dynamic partition best-effort. On success
// the worker is installed; with SkipWaitingOnInstall (the default) the
// waiting gate is released immediately.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)

	var wg sync.WaitGroup
	var staticErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		staticErr = w.seedStatic(ctx)
	}()
	go func() {
		defer wg.Done()
		w.seedDynamic(ctx)
	}()
	wg.Wait()

	if staticErr != nil {
		installsTotal.WithLabelValues("failure").Inc()
		w.setState(StateNew)
		return fmt.Errorf("%w: %w", ErrInstallFailed, staticErr)
	}

	installsTotal.WithLabelValues("success").Inc()
	w.setState(StateInstalled)
	w.logger.Info().
		Int("static_assets", len(w.config.StaticAssets)).
		Int("external_assets", len(w.config.ExternalAssets)).
		Msg("Install complete")

	if w.config.SkipWaitingOnInstall {
		w.SkipWaiting()
	}
	return nil
}

// Activate evicts every partition whose name is neither the current static
// nor the current dynamic name, then claims traffic for this instance.
func (w *Worker) Activate(ctx context.Context) error {
	w.setState(StateActivating)

	names, err := partition.Names(ctx, w.redis)
	if err != nil {
		return fmt.Errorf("enumerate partitions: %w", err)
	}

	for _, name := range names {
		if name == w.static.Name() || name == w.dynamic.Name() {
			continue
		}
		w.logger.Info().Str("partition", name).Msg("Dropping stale partition")
		if err := partition.Drop(ctx, w.redis, name); err != nil {
			return fmt.Errorf("drop stale partition %s: %w", name, err)
		}
	}

	w.setState(StateActivated)
	w.logger.Info().Msg("Worker activated")

	if w.config.OnActivate != nil {
		w.config.OnActivate(w)
	}
	return nil
}

// SkipWaiting releases the waiting gate so a pending install proceeds to
// activation immediately. Safe to call more than once.
func (w *Worker) SkipWaiting() {
	w.release.Do(func() { close(w.waiting) })
}

// Run drives the full lifecycle: install (with backoff retries, like a
// repeated registration attempt), wait for the gate, activate, then handle
// control messages until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	defer w.setState(StateStopped)

	if err := w.installWithRetry(ctx); err != nil {
		return err
	}

	// Control messages must work while waiting: SKIP_WAITING is the whole
	// point of the phase.
wait:
	for {
		select {
		case <-w.waiting:
			break wait
		case msg := <-w.msgs:
			w.handle(ctx, msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := w.Activate(ctx); err != nil {
		return err
	}

	return w.controlLoop(ctx)
}
