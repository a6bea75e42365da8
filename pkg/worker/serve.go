package worker

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/elrayan/sitecache/pkg/partition"
)

// Fetch answers an intercepted request.
//
// Non-GET requests pass through to the network untouched. For GET:
// a cache hit is returned immediately and revalidated in the background
// (the client never waits on revalidation); a miss goes to the network and
// the response is snapshotted into the origin-selected partition before
// being returned. A failed miss for an HTML-accepting request falls back to
// the cached root document; any other failure propagates unmodified.
func (w *Worker) Fetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		fetchesTotal.WithLabelValues("passthrough", "").Inc()
		return w.httpClient.Do(req)
	}

	start := time.Now()
	key := partition.Key(req.URL)

	// Unified cache view: a resource is answered from whichever partition
	// holds it.
	if entry, p := w.lookup(ctx, key); entry != nil {
		fetchesTotal.WithLabelValues("cache", p.Name()).Inc()
		fetchDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
		w.logger.Debug().
			Str("url", key).
			Str("partition", p.Name()).
			Msg("Cache hit")

		w.revalidations.Add(1)
		go func() {
			defer w.revalidations.Done()
			// Detached from the request: the client is already served.
			w.revalidate(context.WithoutCancel(ctx), req.URL)
		}()

		return entry.Response(), nil
	}

	// Cache miss: go to the network.
	resp, err := w.httpClient.Do(req)
	if err != nil {
		if acceptsHTML(req) {
			if fallback := w.rootFallback(ctx); fallback != nil {
				fetchesTotal.WithLabelValues("fallback", w.static.Name()).Inc()
				w.logger.Info().
					Str("url", key).
					Err(err).
					Msg("Network failed, serving offline fallback")
				return fallback, nil
			}
		}
		return nil, err
	}

	if resp.StatusCode < 400 {
		// The response body is single-read: snapshot it before handing it
		// to the caller.
		entry, snapErr := partition.ResponseToEntry(resp)
		if snapErr != nil {
			w.logger.Warn().Err(snapErr).Str("url", key).Msg("Failed to snapshot response")
		} else if putErr := w.partitionFor(req.URL.Host).Put(ctx, key, entry); putErr != nil {
			w.logger.Warn().Err(putErr).Str("url", key).Msg("Failed to cache response")
		}
	}

	fetchesTotal.WithLabelValues("network", w.partitionFor(req.URL.Host).Name()).Inc()
	fetchDuration.WithLabelValues("network").Observe(time.Since(start).Seconds())
	return resp, nil
}

// RoundTrip implements http.RoundTripper over Fetch, so the worker can be
// dropped in as an intercepting transport.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	return w.Fetch(req.Context(), req)
}

// lookup checks both partitions for the key, static first.
func (w *Worker) lookup(ctx context.Context, key string) (*partition.Entry, *partition.Partition) {
	for _, p := range []*partition.Partition{w.static, w.dynamic} {
		entry, err := p.Get(ctx, key)
		if err == nil {
			return entry, p
		}
		if err != partition.ErrCacheMiss {
			w.logger.Warn().Err(err).Str("partition", p.Name()).Msg("Partition lookup error")
		}
	}
	return nil, nil
}

// partitionFor selects the write partition by request origin: same-origin
// goes static, everything else dynamic.
func (w *Worker) partitionFor(host string) *partition.Partition {
	if host == w.origin.Host {
		return w.static
	}
	return w.dynamic
}

// rootFallback returns the cached root document, or nil when absent.
func (w *Worker) rootFallback(ctx context.Context) *http.Response {
	rootKey := w.origin.Scheme + "://" + w.origin.Host + "/"
	entry, err := w.static.Get(ctx, rootKey)
	if err != nil {
		return nil
	}
	return entry.Response()
}

// acceptsHTML reports whether the request declares HTML among its
// acceptable content types.
func acceptsHTML(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}
