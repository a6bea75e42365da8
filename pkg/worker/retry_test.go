package worker

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elrayan/sitecache/internal/testutil"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        50 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestInstallWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	client := setupTestRedis(t)
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	// /styles.css fails on the first attempt, then recovers.
	var calls atomic.Int32
	origin.SetHandler("/flaky.css", func(rw http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		rw.Write([]byte("recovered"))
	})

	w := newTestWorker(t, client, origin, func(cfg *Config) {
		cfg.StaticAssets = append(cfg.StaticAssets, "/flaky.css")
		cfg.Retry = fastRetry(3)
	})

	if err := w.installWithRetry(context.Background()); err != nil {
		t.Fatalf("installWithRetry failed: %v", err)
	}
	if w.State() != StateInstalled {
		t.Errorf("State = %v, want %v", w.State(), StateInstalled)
	}
}

func TestInstallWithRetry_Exhausted(t *testing.T) {
	client := setupTestRedis(t)
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	w := newTestWorker(t, client, origin, func(cfg *Config) {
		cfg.StaticAssets = []string{"/never-exists.css"}
		cfg.Retry = fastRetry(2)
	})

	err := w.installWithRetry(context.Background())
	if err == nil {
		t.Fatal("Expected retry exhaustion")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
}

func TestInstallWithRetry_ContextCancelled(t *testing.T) {
	client := setupTestRedis(t)
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	w := newTestWorker(t, client, origin, func(cfg *Config) {
		cfg.StaticAssets = []string{"/never-exists.css"}
		cfg.Retry = RetryConfig{
			MaxAttempts:       5,
			InitialBackoff:    10 * time.Second, // long enough to cancel into
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 1.0,
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	err := w.installWithRetry(ctx)
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
}
