package worker

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/elrayan/sitecache/pkg/partition"
	"golang.org/x/sync/errgroup"
)

// seedStatic bulk-inserts every fixed local asset into the static
// partition. Atomic all-or-nothing: one failed fetch cancels the group and
// fails the install. A missing local asset is a build error, not a runtime
// condition to paper over.
func (w *Worker) seedStatic(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Concurrency)

	for _, asset := range w.config.StaticAssets {
		g.Go(func() error {
			return w.fetchInto(ctx, w.static, w.staticURL(asset))
		})
	}

	return g.Wait()
}

// seedDynamic inserts the external CDN assets into the dynamic partition.
// Best effort: each fetch is isolated so one failure does not abort the
// others, since third-party availability is not guaranteed.
func (w *Worker) seedDynamic(ctx context.Context) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, w.config.Concurrency)

	for _, asset := range w.config.ExternalAssets {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := w.fetchInto(ctx, w.dynamic, asset); err != nil {
				w.logger.Warn().
					Err(err).
					Str("asset", asset).
					Msg("External asset seed failed")
			}
		}()
	}

	wg.Wait()
}

// fetchInto fetches a URL and stores the snapshot in the given partition.
func (w *Worker) fetchInto(ctx context.Context, p *partition.Partition, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &SeedError{Asset: rawURL, Err: err}
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return &SeedError{Asset: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &SeedError{Asset: rawURL, StatusCode: resp.StatusCode}
	}

	entry, err := partition.ResponseToEntry(resp)
	if err != nil {
		return &SeedError{Asset: rawURL, Err: err}
	}

	key := partition.Key(req.URL)
	if err := p.Put(ctx, key, entry); err != nil {
		return &SeedError{Asset: rawURL, Err: err}
	}

	w.logger.Debug().
		Str("asset", rawURL).
		Str("partition", p.Name()).
		Int("bytes", len(entry.Data)).
		Msg("Asset seeded")
	return nil
}

// staticURL resolves a same-origin asset path against the site origin.
func (w *Worker) staticURL(asset string) string {
	if strings.HasPrefix(asset, "http://") || strings.HasPrefix(asset, "https://") {
		return asset
	}
	return fmt.Sprintf("%s://%s/%s", w.origin.Scheme, w.origin.Host, strings.TrimPrefix(asset, "/"))
}
