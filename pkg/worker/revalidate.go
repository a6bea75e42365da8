package worker

import (
	"context"
	"net/http"
	"net/url"

	"github.com/elrayan/sitecache/pkg/partition"
)

// Outcome is the result of a background revalidation. Revalidation is an
// explicit fire-and-forget policy: outcomes are logged and counted but
// never propagated to the client, which was already served from cache.
type Outcome int

const (
	// OutcomeUpdated means the network succeeded and the cache entry was
	// overwritten in place.
	OutcomeUpdated Outcome = iota

	// OutcomeFailed means the network fetch or the cache write failed; the
	// stale entry stays authoritative.
	OutcomeFailed

	// OutcomeSkipped means the worker declined to revalidate (it is no
	// longer serving).
	OutcomeSkipped
)

// String returns the outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// revalidate refreshes a cached entry from the network. Concurrent
// revalidations of the same key race with last-writer-wins semantics,
// acceptable because entries are idempotent snapshots of immutable URLs.
func (w *Worker) revalidate(ctx context.Context, u *url.URL) Outcome {
	outcome := w.doRevalidate(ctx, u)
	revalidationsTotal.WithLabelValues(outcome.String()).Inc()

	switch outcome {
	case OutcomeUpdated:
		w.logger.Debug().Str("url", u.String()).Msg("Revalidation updated entry")
	case OutcomeFailed:
		w.logger.Debug().Str("url", u.String()).Msg("Revalidation failed, stale entry kept")
	case OutcomeSkipped:
		w.logger.Debug().Str("url", u.String()).Msg("Revalidation skipped")
	}
	return outcome
}

func (w *Worker) doRevalidate(ctx context.Context, u *url.URL) Outcome {
	if w.State() == StateStopped {
		return OutcomeSkipped
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return OutcomeFailed
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return OutcomeFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return OutcomeFailed
	}

	entry, err := partition.ResponseToEntry(resp)
	if err != nil {
		return OutcomeFailed
	}

	key := partition.Key(u)
	if err := w.partitionFor(u.Host).Put(ctx, key, entry); err != nil {
		return OutcomeFailed
	}
	return OutcomeUpdated
}
