package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elrayan/sitecache/pkg/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Durable key suffixes. Full key names carry the configured site prefix.
const (
	keyVersion   = "version"
	keyData      = "data"
	keyLastVisit = "last_visit"
)

// DefaultPrefix is the site-specific key prefix used when none is configured.
const DefaultPrefix = "elrayan_"

// Registrar starts or re-registers the interception worker. Registration is
// fire-and-forget from the gate's perspective: failures are logged, never
// propagated.
type Registrar interface {
	Register(ctx context.Context) error
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(ctx context.Context) error

// Register calls f.
func (f RegistrarFunc) Register(ctx context.Context) error { return f(ctx) }

// Config holds the gate configuration.
type Config struct {
	// Store is the durable key-value store (required).
	Store store.Store

	// Version is the current release version constant (required).
	Version string

	// Prefix is the site-specific key prefix (default: DefaultPrefix).
	Prefix string

	// Meta is the source site metadata the snapshot is built from.
	Meta SiteMeta

	// CriticalAssets are the resource URLs to emit pre-warm hints for.
	CriticalAssets []string

	// Registrar starts the interception worker after initialization.
	// Optional; when nil, registration is skipped.
	Registrar Registrar
}

// Gate compares the stored version tag against the current release version
// and keeps the cached-data snapshot in sync. All state lives in the
// injected store; the gate itself is stateless between calls.
type Gate struct {
	store     store.Store
	version   string
	prefix    string
	meta      SiteMeta
	assets    []string
	registrar Registrar
	logger    zerolog.Logger
}

// Stats is the read-only gate state summary.
type Stats struct {
	Version      string `json:"version"`
	LastVisit    string `json:"lastVisit"`
	IsFirstVisit bool   `json:"isFirstVisit"`
	CacheSize    int    `json:"cacheSize"`
}

// New creates a gate.
func New(cfg Config) (*Gate, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("version is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}

	return &Gate{
		store:     cfg.Store,
		version:   cfg.Version,
		prefix:    cfg.Prefix,
		meta:      cfg.Meta,
		assets:    cfg.CriticalAssets,
		registrar: cfg.Registrar,
		logger:    log.With().Str("component", "gate").Logger(),
	}, nil
}

// Version returns the current release version constant.
func (g *Gate) Version() string { return g.version }

// Initialize runs the once-per-load gate sequence: compare the stored
// version tag against the current version, rebuild the snapshot on mismatch
// or load it otherwise, unconditionally stamp the last-visit key, then
// trigger worker registration fire-and-forget.
//
// The returned snapshot is the one now persisted under the data key.
func (g *Gate) Initialize(ctx context.Context) (*Snapshot, error) {
	storedTag, err := g.store.Get(ctx, g.prefix+keyVersion)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		StoreErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("read version tag: %w", err)
	}

	var snap *Snapshot
	switch {
	case errors.Is(err, store.ErrNotFound):
		g.logger.Info().Str("version", g.version).Msg("No stored version, rebuilding snapshot")
		Rebuilds.WithLabelValues("first_visit").Inc()
		snap, err = g.Rebuild(ctx)
	case storedTag != g.version:
		g.logger.Info().
			Str("stored", storedTag).
			Str("current", g.version).
			Msg("Version changed, rebuilding snapshot")
		Rebuilds.WithLabelValues("version_change").Inc()
		snap, err = g.Rebuild(ctx)
	default:
		snap, err = g.Load(ctx)
	}
	if err != nil {
		return nil, err
	}

	// Unconditional last-visit stamp.
	now := time.Now().UTC().Format(time.RFC3339)
	if err := g.store.Set(ctx, g.prefix+keyLastVisit, now); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		return nil, fmt.Errorf("write last visit: %w", err)
	}

	if g.registrar != nil {
		go func() {
			if err := g.registrar.Register(context.WithoutCancel(ctx)); err != nil {
				RegistrationFailures.Inc()
				g.logger.Error().Err(err).Msg("Worker registration failed")
			}
		}()
	}

	return snap, nil
}

// Rebuild writes the current version tag and persists a fresh snapshot
// built from the source site metadata.
func (g *Gate) Rebuild(ctx context.Context) (*Snapshot, error) {
	if err := g.store.Set(ctx, g.prefix+keyVersion, g.version); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		return nil, fmt.Errorf("write version tag: %w", err)
	}

	snap := NewSnapshot(g.version, g.meta)
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := g.store.Set(ctx, g.prefix+keyData, string(data)); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	g.logger.Debug().
		Str("version", g.version).
		Int("hints", len(g.assets)).
		Msg("Snapshot rebuilt")

	return snap, nil
}

// Load reads and deserializes the persisted snapshot. A missing or corrupt
// blob is recovered locally by rebuilding; the failure is never surfaced to
// the caller.
func (g *Gate) Load(ctx context.Context) (*Snapshot, error) {
	data, err := g.store.Get(ctx, g.prefix+keyData)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.logger.Warn().Msg("Snapshot missing, rebuilding")
			Rebuilds.WithLabelValues("corrupt_blob").Inc()
			return g.Rebuild(ctx)
		}
		StoreErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		g.logger.Warn().Err(err).Msg("Snapshot corrupt, rebuilding")
		Rebuilds.WithLabelValues("corrupt_blob").Inc()
		return g.Rebuild(ctx)
	}

	Loads.Inc()
	return &snap, nil
}

// ForceUpdate deletes the version tag and snapshot keys, then reruns the
// full initialize sequence. Idempotent.
func (g *Gate) ForceUpdate(ctx context.Context) (*Snapshot, error) {
	if err := g.store.Del(ctx, g.prefix+keyVersion, g.prefix+keyData); err != nil {
		StoreErrors.WithLabelValues("delete").Inc()
		return nil, fmt.Errorf("delete gate keys: %w", err)
	}
	ForceUpdates.Inc()
	return g.Initialize(ctx)
}

// Stats returns the read-only gate state. CacheSize is a UTF-16 byte
// estimate: the sum of len(value)*2 over every key carrying the site prefix.
func (g *Gate) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{}

	version, err := g.store.Get(ctx, g.prefix+keyVersion)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return stats, fmt.Errorf("read version tag: %w", err)
	}
	stats.Version = version

	lastVisit, err := g.store.Get(ctx, g.prefix+keyLastVisit)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return stats, fmt.Errorf("read last visit: %w", err)
	}
	stats.LastVisit = lastVisit
	stats.IsFirstVisit = lastVisit == ""

	size, err := g.CacheSize(ctx)
	if err != nil {
		return stats, err
	}
	stats.CacheSize = size

	return stats, nil
}

// CacheSize sums len(value)*2 over every stored key carrying the site
// prefix.
func (g *Gate) CacheSize(ctx context.Context) (int, error) {
	keys, err := g.store.Keys(ctx, g.prefix)
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}

	size := 0
	for _, key := range keys {
		val, err := g.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return 0, fmt.Errorf("read %s: %w", key, err)
		}
		size += len(val) * 2
	}
	return size, nil
}
