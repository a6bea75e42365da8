package worker

import (
	"context"

	"github.com/elrayan/sitecache/pkg/partition"
)

// Control message types accepted on the out-of-band channel.
const (
	// MsgSkipWaiting forces immediate activation of a pending worker.
	MsgSkipWaiting = "SKIP_WAITING"

	// MsgClearCache deletes every partition unconditionally. Manual reset.
	MsgClearCache = "CLEAR_CACHE"

	// MsgUpdateVersion deletes every partition and re-seeds the static
	// partition from the fixed asset list, forcing a refresh without a
	// version bump in the gate.
	MsgUpdateVersion = "UPDATE_VERSION"
)

// Message is a control command posted to the worker. No response payload;
// effects are fire-and-forget from the sender's perspective.
type Message struct {
	Type string `json:"type"`
}

// Post enqueues a control message. Never blocks: if the worker is not
// keeping up the message is dropped with a warning, consistent with the
// channel's fire-and-forget contract.
func (w *Worker) Post(msg Message) {
	select {
	case w.msgs <- msg:
	default:
		w.logger.Warn().Str("type", msg.Type).Msg("Control channel full, message dropped")
	}
}

// controlLoop consumes control messages until ctx is done.
func (w *Worker) controlLoop(ctx context.Context) error {
	for {
		select {
		case msg := <-w.msgs:
			w.handle(ctx, msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handle applies a single control message. Errors degrade to logging; the
// sender never observes them.
func (w *Worker) handle(ctx context.Context, msg Message) {
	controlMessagesTotal.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case MsgSkipWaiting:
		w.SkipWaiting()

	case MsgClearCache:
		if err := w.clearCache(ctx); err != nil {
			w.logger.Error().Err(err).Msg("Clear cache failed")
		}

	case MsgUpdateVersion:
		if err := w.updateVersion(ctx); err != nil {
			w.logger.Error().Err(err).Msg("Update version failed")
		}

	default:
		w.logger.Warn().Str("type", msg.Type).Msg("Unknown control message")
	}
}

// clearCache drops every partition. Idempotent: clearing an already-empty
// cache layer is a no-op.
func (w *Worker) clearCache(ctx context.Context) error {
	w.logger.Info().Msg("Clearing all partitions")
	return partition.DropAll(ctx, w.redis)
}

// updateVersion drops every partition, then re-seeds the static partition
// from the fixed asset list.
func (w *Worker) updateVersion(ctx context.Context) error {
	w.logger.Info().Msg("Forcing cache refresh")
	if err := partition.DropAll(ctx, w.redis); err != nil {
		return err
	}
	return w.seedStatic(ctx)
}
