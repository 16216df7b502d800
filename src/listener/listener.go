package listener

import (
	"context"
	"time"

	"sales-observer/src/interfaces"
	"sales-observer/src/logger"
	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// Change Listener
// -----------------------------------------------------------------------------

// Cache is the invalidation surface the listener needs.
type Cache interface {
	Invalidate()
}

// -----------------------------------------------------------------------------

// ChangeListener consumes the store's insert stream. Every observed insert
// invalidates the stats cache; the record is handed to the hub's immediate
// push only when at least one dashboard client is connected (otherwise it is
// dropped — there is no delivery backlog).
type ChangeListener struct {
	source interfaces.IChangeSource
	cache  Cache
	hub    interfaces.ITransactionPusher
	logger *logger.Logger

	// resubscription backoff bounds
	baseDelay time.Duration
	maxDelay  time.Duration
}

// -----------------------------------------------------------------------------

func NewChangeListener(source interfaces.IChangeSource, cache Cache, hub interfaces.ITransactionPusher, log *logger.Logger) *ChangeListener {
	return &ChangeListener{
		source:    source,
		cache:     cache,
		hub:       hub,
		logger:    log,
		baseDelay: time.Second,
		maxDelay:  time.Minute,
	}
}

// -----------------------------------------------------------------------------

// Run subscribes and consumes until ctx is cancelled. A dropped stream is
// re-subscribed with exponential backoff; in the interim the dashboard keeps
// updating from the periodic tick alone.
func (l *ChangeListener) Run(ctx context.Context) {
	delay := l.baseDelay

	for ctx.Err() == nil {
		ch, err := l.source.Subscribe(ctx)
		if err != nil {
			l.logger.Warning("change stream subscribe failed, retrying in %v: %v", delay, err)
			if !sleep(ctx, delay) {
				return
			}
			delay = min(delay*2, l.maxDelay)
			continue
		}

		l.logger.Info("change stream subscribed")
		delay = l.baseDelay

		l.consume(ctx, ch)

		if ctx.Err() == nil {
			l.logger.Warning("change stream dropped, resubscribing")
		}
	}
}

// -----------------------------------------------------------------------------

// consume drains one subscription until it closes or ctx is cancelled.
func (l *ChangeListener) consume(ctx context.Context, ch <-chan models.MTransaction) {
	for {
		select {
		case tx, ok := <-ch:
			if !ok {
				return
			}
			l.cache.Invalidate()
			if l.hub.ClientCount() > 0 {
				l.hub.PushTransaction(tx)
			}

		case <-ctx.Done():
			return
		}
	}
}

// -----------------------------------------------------------------------------

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
