package gate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/elrayan/sitecache/pkg/store"
)

func newTestGate(t *testing.T, s store.Store) *Gate {
	t.Helper()

	g, err := New(Config{
		Store:          s,
		Version:        "2.1.0",
		Meta:           DefaultSiteMeta(),
		CriticalAssets: DefaultCriticalAssets(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return g
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      Config{Store: store.NewMemoryStore(), Version: "1.0.0"},
			expectError: false,
		},
		{
			name:        "nil store",
			config:      Config{Version: "1.0.0"},
			expectError: true,
			errorMsg:    "store is required",
		},
		{
			name:        "empty version",
			config:      Config{Store: store.NewMemoryStore()},
			expectError: true,
			errorMsg:    "version is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if g.prefix != DefaultPrefix {
				t.Errorf("prefix = %q, want default %q", g.prefix, DefaultPrefix)
			}
		})
	}
}

func TestInitialize_FirstVisit(t *testing.T) {
	s := store.NewMemoryStore()
	g := newTestGate(t, s)
	ctx := context.Background()

	snap, err := g.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if snap.Version != "2.1.0" {
		t.Errorf("Snapshot version = %q, want %q", snap.Version, "2.1.0")
	}

	tag, err := s.Get(ctx, "elrayan_version")
	if err != nil {
		t.Fatalf("Version tag not written: %v", err)
	}
	if tag != "2.1.0" {
		t.Errorf("Version tag = %q, want %q", tag, "2.1.0")
	}

	if _, err := s.Get(ctx, "elrayan_last_visit"); err != nil {
		t.Errorf("Last visit not written: %v", err)
	}
}

// TestInitialize_SameVersionIdempotent verifies that a second initialize
// with the same stored version reads the snapshot instead of rewriting it:
// the timestamp field stays that of the first rebuild.
func TestInitialize_SameVersionIdempotent(t *testing.T) {
	s := store.NewMemoryStore()
	g := newTestGate(t, s)
	ctx := context.Background()

	first, err := g.Initialize(ctx)
	if err != nil {
		t.Fatalf("First initialize failed: %v", err)
	}

	time.Sleep(1100 * time.Millisecond) // RFC3339 has second resolution

	second, err := g.Initialize(ctx)
	if err != nil {
		t.Fatalf("Second initialize failed: %v", err)
	}

	if second.Timestamp != first.Timestamp {
		t.Errorf("Snapshot was rewritten: timestamp %q != %q", second.Timestamp, first.Timestamp)
	}
}

func TestInitialize_VersionChange(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	// Simulate a previous release.
	old := newTestGate(t, s)
	old.version = "2.0.0"
	oldSnap, err := old.Initialize(ctx)
	if err != nil {
		t.Fatalf("Old initialize failed: %v", err)
	}

	g := newTestGate(t, s)
	snap, err := g.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if snap.Version != "2.1.0" {
		t.Errorf("Snapshot version = %q, want %q", snap.Version, "2.1.0")
	}
	if snap.Version == oldSnap.Version {
		t.Error("Snapshot was not rebuilt on version change")
	}

	tag, _ := s.Get(ctx, "elrayan_version")
	if tag != "2.1.0" {
		t.Errorf("Version tag = %q, want %q", tag, "2.1.0")
	}
}

func TestInitialize_TriggersRegistration(t *testing.T) {
	s := store.NewMemoryStore()

	var mu sync.Mutex
	registered := false
	done := make(chan struct{})

	g, err := New(Config{
		Store:   s,
		Version: "2.1.0",
		Registrar: RegistrarFunc(func(ctx context.Context) error {
			mu.Lock()
			registered = true
			mu.Unlock()
			close(done)
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := g.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Registration was not triggered")
	}

	mu.Lock()
	defer mu.Unlock()
	if !registered {
		t.Error("Registrar not invoked")
	}
}

func TestInitialize_RegistrationFailureNotPropagated(t *testing.T) {
	s := store.NewMemoryStore()
	done := make(chan struct{})

	g, err := New(Config{
		Store:   s,
		Version: "2.1.0",
		Registrar: RegistrarFunc(func(ctx context.Context) error {
			defer close(done)
			return errors.New("worker unavailable")
		}),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := g.Initialize(context.Background()); err != nil {
		t.Errorf("Registration failure propagated: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Registrar not invoked")
	}
}

// TestLoad_CorruptBlobRecovery verifies that an unparseable blob triggers a
// rebuild and the blob becomes valid JSON again.
func TestLoad_CorruptBlobRecovery(t *testing.T) {
	s := store.NewMemoryStore()
	g := newTestGate(t, s)
	ctx := context.Background()

	if _, err := g.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// Corrupt the blob.
	s.Set(ctx, "elrayan_data", "{not json!")

	snap, err := g.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.Version != "2.1.0" {
		t.Errorf("Recovered snapshot version = %q, want %q", snap.Version, "2.1.0")
	}

	// Blob must be valid JSON again.
	raw, err := s.Get(ctx, "elrayan_data")
	if err != nil {
		t.Fatalf("Blob missing after recovery: %v", err)
	}
	var check Snapshot
	if err := json.Unmarshal([]byte(raw), &check); err != nil {
		t.Errorf("Blob is not valid JSON after recovery: %v", err)
	}
}

func TestLoad_MissingBlobRebuilds(t *testing.T) {
	s := store.NewMemoryStore()
	g := newTestGate(t, s)
	ctx := context.Background()

	snap, err := g.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap == nil || snap.Version != "2.1.0" {
		t.Errorf("Load of missing blob did not rebuild: %+v", snap)
	}
}

// TestForceUpdate_RebuildCorrectness verifies that after a forced update the
// version tag equals the current version constant and the blob deserializes
// to the current site metadata.
func TestForceUpdate_RebuildCorrectness(t *testing.T) {
	s := store.NewMemoryStore()
	g := newTestGate(t, s)
	ctx := context.Background()

	// Seed stale state.
	s.Set(ctx, "elrayan_version", "1.0.0")
	s.Set(ctx, "elrayan_data", `{"version":"1.0.0"}`)

	snap, err := g.ForceUpdate(ctx)
	if err != nil {
		t.Fatalf("ForceUpdate failed: %v", err)
	}

	tag, err := s.Get(ctx, "elrayan_version")
	if err != nil {
		t.Fatalf("Version tag missing: %v", err)
	}
	if tag != "2.1.0" {
		t.Errorf("Version tag = %q, want %q", tag, "2.1.0")
	}

	want := DefaultSiteMeta()
	if snap.Branding != want.Branding {
		t.Errorf("Branding = %+v, want %+v", snap.Branding, want.Branding)
	}
	if len(snap.Contacts.Telegram) != len(want.Contacts.Telegram) {
		t.Errorf("Telegram contacts = %d, want %d",
			len(snap.Contacts.Telegram), len(want.Contacts.Telegram))
	}
}

func TestForceUpdate_Idempotent(t *testing.T) {
	s := store.NewMemoryStore()
	g := newTestGate(t, s)
	ctx := context.Background()

	first, err := g.ForceUpdate(ctx)
	if err != nil {
		t.Fatalf("First ForceUpdate failed: %v", err)
	}
	second, err := g.ForceUpdate(ctx)
	if err != nil {
		t.Fatalf("Second ForceUpdate failed: %v", err)
	}

	if first.Version != second.Version {
		t.Errorf("Versions differ: %q vs %q", first.Version, second.Version)
	}
}

// TestStats_CacheSize verifies the UTF-16 size estimate: values "xy" and
// "z" under prefixed keys sum to (2+1)*2 = 6.
func TestStats_CacheSize(t *testing.T) {
	s := store.NewMemoryStore()
	g := newTestGate(t, s)
	ctx := context.Background()

	s.Set(ctx, "elrayan_a", "xy")
	s.Set(ctx, "elrayan_b", "z")
	s.Set(ctx, "unprefixed", "ignored")

	size, err := g.CacheSize(ctx)
	if err != nil {
		t.Fatalf("CacheSize failed: %v", err)
	}
	if size != 6 {
		t.Errorf("CacheSize = %d, want 6", size)
	}
}

func TestStats_FirstVisit(t *testing.T) {
	s := store.NewMemoryStore()
	g := newTestGate(t, s)
	ctx := context.Background()

	stats, err := g.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if !stats.IsFirstVisit {
		t.Error("IsFirstVisit should be true before any visit")
	}
	if stats.Version != "" {
		t.Errorf("Version = %q, want empty", stats.Version)
	}

	if _, err := g.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	stats, err = g.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.IsFirstVisit {
		t.Error("IsFirstVisit should be false after initialize")
	}
	if stats.Version != "2.1.0" {
		t.Errorf("Version = %q, want %q", stats.Version, "2.1.0")
	}
	if stats.LastVisit == "" {
		t.Error("LastVisit should be set after initialize")
	}
}
