package server

import (
	"context"
	"time"

	"sales-observer/src/logger"
	"sales-observer/src/models"
	"sales-observer/src/stats"
)

// -----------------------------------------------------------------------------
// Broadcast Hub
// -----------------------------------------------------------------------------

// Hub fans dashboard events out to every registered connection. Three
// triggers share the registry's connection set: the periodic stats tick, the
// immediate push of observed inserts, and the one-shot snapshot for a newly
// connected client. Per-connection delivery is FIFO (single buffered channel
// drained by one write pump); no ordering is guaranteed across connections.
type Hub struct {
	registry *Registry
	stats    *stats.Service
	logger   *logger.Logger

	statsInterval time.Duration
	sweepInterval time.Duration

	register     chan *Client
	unregister   chan *Client
	transactions chan models.MTransaction

	// injected clock
	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewHub(statsSvc *stats.Service, registry *Registry, dash models.MDashboardConfig, log *logger.Logger) *Hub {
	return &Hub{
		registry:      registry,
		stats:         statsSvc,
		logger:        log,
		statsInterval: dash.StatsInterval(),
		sweepInterval: dash.RetentionWindow(),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		// Buffered so a burst of inserts does not block the change listener
		transactions: make(chan models.MTransaction, 256),
		now:          time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run is the hub loop: all registry mutations and broadcasts are serialized
// here, so client send channels have a single closing owner.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.statsInterval)
	sweeper := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()
	defer sweeper.Stop()

	for {
		select {
		case client := <-h.register:
			h.handleRegister(ctx, client)

		case client := <-h.unregister:
			h.drop(client)

		case tx := <-h.transactions:
			h.broadcastTransaction(tx)

		case <-ticker.C:
			h.broadcastStats(ctx)

		case <-sweeper.C:
			h.stats.Sweep(h.now())

		case <-ctx.Done():
			for _, c := range h.registry.Snapshot() {
				h.drop(c)
			}
			return
		}
	}
}

// -----------------------------------------------------------------------------
// Change-listener surface (interfaces.ITransactionPusher)
// -----------------------------------------------------------------------------

// PushTransaction hands an inserted record to the immediate-push path without
// blocking the caller.
func (h *Hub) PushTransaction(tx models.MTransaction) {
	select {
	case h.transactions <- tx:
	default:
		h.logger.Warning("transaction push dropped: hub queue full")
	}
}

// ClientCount reports the number of registered connections.
func (h *Hub) ClientCount() int {
	return h.registry.Count()
}

// SnapshotAge reports the age of the retained stats snapshot, if any.
func (h *Hub) SnapshotAge() (time.Duration, bool) {
	return h.stats.SnapshotAge(h.now())
}

// -----------------------------------------------------------------------------
// Triggers
// -----------------------------------------------------------------------------

// handleRegister adds the connection and sends it the current snapshot so it
// does not wait for the next periodic tick.
func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	h.registry.Add(c)
	h.logger.Info("Client %s connected (%d active)", c.ID, h.registry.Count())

	snap := h.stats.Current(ctx, h.now())
	h.deliver(c, models.StatsUpdateEvent(snap))
	h.deliver(c, models.CategoryStatsEvent(snap))
}

// -----------------------------------------------------------------------------

// broadcastStats is the periodic tick. With zero connections it returns
// before touching the cache or the store.
func (h *Hub) broadcastStats(ctx context.Context) {
	clients := h.registry.Snapshot()
	if len(clients) == 0 {
		return
	}

	snap := h.stats.Current(ctx, h.now())
	statsEvent := models.StatsUpdateEvent(snap)
	categoryEvent := models.CategoryStatsEvent(snap)

	for _, c := range clients {
		if h.deliver(c, statsEvent) {
			h.deliver(c, categoryEvent)
		}
	}
}

// -----------------------------------------------------------------------------

// broadcastTransaction is the immediate-push path for one observed insert.
func (h *Hub) broadcastTransaction(tx models.MTransaction) {
	event := models.NewTransactionEvent(tx)
	for _, c := range h.registry.Snapshot() {
		h.deliver(c, event)
	}
}

// -----------------------------------------------------------------------------

// deliver enqueues one event for one connection. A full buffer means the
// client is too slow to keep up; it is disconnected rather than allowed to
// stall the broadcast to everyone else.
func (h *Hub) deliver(c *Client, event models.MEvent) bool {
	select {
	case c.send <- event:
		return true
	default:
		h.logger.Warning("Client %s too slow, disconnecting", c.ID)
		h.drop(c)
		return false
	}
}

// -----------------------------------------------------------------------------

// drop removes the connection and closes its send channel exactly once.
func (h *Hub) drop(c *Client) {
	if h.registry.Remove(c.ID) {
		close(c.send)
	}
}
