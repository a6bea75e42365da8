package worker

import (
	"context"
	"net/http"
	"testing"

	"github.com/elrayan/sitecache/internal/testutil"
	"github.com/elrayan/sitecache/pkg/partition"
)

// TestHandle_ClearCache_Idempotent verifies that clearing twice in
// succession leaves zero partitions both times, with no error on the
// already-empty state.
func TestHandle_ClearCache_Idempotent(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	w := installedWorker(t, origin, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		w.handle(ctx, Message{Type: MsgClearCache})

		names, err := partition.Names(ctx, w.redis)
		if err != nil {
			t.Fatalf("Names failed: %v", err)
		}
		if len(names) != 0 {
			t.Errorf("Clear #%d left partitions: %v", i+1, names)
		}
	}
}

// TestHandle_UpdateVersion verifies the force-refresh path: every partition
// is dropped, then the static partition is re-seeded from the fixed list.
func TestHandle_UpdateVersion(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	cdn := testutil.NewMockOrigin()
	defer cdn.Close()
	cdn.SetAsset("/lib.js", testutil.MockAsset{Body: "lib"})

	w := installedWorker(t, origin, func(cfg *Config) {
		cfg.ExternalAssets = []string{cdn.URL() + "/lib.js"}
	})
	ctx := context.Background()

	// Change origin content so the re-seed is observable.
	origin.SetAsset("/styles.css", testutil.MockAsset{Body: "body{color:blue}", ContentType: "text/css"})

	w.handle(ctx, Message{Type: MsgUpdateVersion})

	n, err := w.static.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Static partition holds %d entries after refresh, want 3", n)
	}

	// Dynamic partition is not re-seeded by the refresh.
	dn, err := w.dynamic.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if dn != 0 {
		t.Errorf("Dynamic partition holds %d entries after refresh, want 0", dn)
	}

	url := origin.URL() + "/styles.css"
	entry, err := getEntry(t, w, url)
	if err != nil {
		t.Fatalf("Re-seeded entry missing: %v", err)
	}
	if string(entry.Data) != "body{color:blue}" {
		t.Errorf("Re-seeded entry = %q, want fresh content", entry.Data)
	}
}

func TestHandle_UnknownTypeIgnored(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	w := installedWorker(t, origin, nil)
	ctx := context.Background()

	before, _ := w.static.Len(ctx)
	w.handle(ctx, Message{Type: "NOT_A_THING"})
	after, _ := w.static.Len(ctx)

	if before != after {
		t.Errorf("Unknown message changed cache state: %d -> %d", before, after)
	}
}

func TestPost_NeverBlocks(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	w := installedWorker(t, origin, nil)

	// No control loop is draining; flooding must not block the sender.
	for i := 0; i < 100; i++ {
		w.Post(Message{Type: MsgClearCache})
	}
}

func getEntry(t *testing.T, w *Worker, url string) (*partition.Entry, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	return w.static.Get(context.Background(), partition.Key(req.URL))
}
