package server

import (
	"context"
	"testing"
	"time"

	"sales-observer/src/logger"
	"sales-observer/src/models"
	"sales-observer/src/stats"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type countingStore struct {
	calls int
	snap  models.MStatsSnapshot
}

func (s *countingStore) DashboardStats(context.Context, time.Time, time.Duration, int) (models.MStatsSnapshot, error) {
	s.calls++
	return s.snap, nil
}

func newTestHub(store *countingStore) *Hub {
	dash := models.MDashboardConfig{
		StatsIntervalSeconds:   5,
		ThrottleWindowSeconds:  3,
		RetentionWindowMinutes: 10,
		RecentWindowMinutes:    5,
		TopCategoriesLimit:     5,
		ComputeTimeoutSeconds:  5,
	}
	log := logger.NewLogger("ERROR", "test")
	cache := stats.NewSnapshotCache(dash.ThrottleWindow(), dash.RetentionWindow())
	svc := stats.NewService(stats.NewEngine(store, dash), cache, log)
	return NewHub(svc, NewRegistry(), dash, log)
}

func recvEvent(t *testing.T, c *Client) models.MEvent {
	t.Helper()
	select {
	case ev := <-c.send:
		return ev
	default:
		t.Fatalf("expected a queued event for client %s", c.ID)
		return models.MEvent{}
	}
}

// -----------------------------------------------------------------------------
// Periodic broadcast
// -----------------------------------------------------------------------------

func TestBroadcastStatsSkipsAggregationWithZeroClients(t *testing.T) {
	store := &countingStore{}
	hub := newTestHub(store)

	hub.broadcastStats(context.Background())

	if store.calls != 0 {
		t.Fatalf("a tick with zero connections must not reach the store, got %d calls", store.calls)
	}
}

func TestBroadcastStatsDeliversToEveryClient(t *testing.T) {
	store := &countingStore{snap: models.MStatsSnapshot{
		TotalTransactions: 10,
		TopCategories: []models.MCategoryStat{
			{Category: "Electronics", Total: 100},
			{Category: "Books", Total: 50},
		},
	}}
	hub := newTestHub(store)

	a := newTestClient("a", 4)
	b := newTestClient("b", 4)
	hub.registry.Add(a)
	hub.registry.Add(b)

	hub.broadcastStats(context.Background())

	for _, c := range []*Client{a, b} {
		statsEv := recvEvent(t, c)
		if statsEv.Type != models.EventStatsUpdate {
			t.Fatalf("expected %s first, got %s", models.EventStatsUpdate, statsEv.Type)
		}
		snap, ok := statsEv.Payload.(models.MStatsSnapshot)
		if !ok || snap.TotalTransactions != 10 {
			t.Fatalf("unexpected stats payload: %+v", statsEv.Payload)
		}

		catEv := recvEvent(t, c)
		if catEv.Type != models.EventCategoryStats {
			t.Fatalf("expected %s second, got %s", models.EventCategoryStats, catEv.Type)
		}
		cats, ok := catEv.Payload.([]models.MCategoryStat)
		if !ok || len(cats) != 2 || cats[0].Category != "Electronics" || cats[1].Category != "Books" {
			t.Fatalf("unexpected category payload: %+v", catEv.Payload)
		}
	}

	if store.calls != 1 {
		t.Fatalf("one tick must be one aggregation pass, got %d", store.calls)
	}
}

// -----------------------------------------------------------------------------
// On-connect snapshot
// -----------------------------------------------------------------------------

func TestHandleRegisterSendsImmediateSnapshot(t *testing.T) {
	store := &countingStore{snap: models.MStatsSnapshot{TotalTransactions: 3, TopCategories: []models.MCategoryStat{}}}
	hub := newTestHub(store)

	c := newTestClient("a", 4)
	hub.handleRegister(context.Background(), c)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 registered client, got %d", hub.ClientCount())
	}

	if ev := recvEvent(t, c); ev.Type != models.EventStatsUpdate {
		t.Fatalf("new client must get a stats snapshot first, got %s", ev.Type)
	}
	if ev := recvEvent(t, c); ev.Type != models.EventCategoryStats {
		t.Fatalf("new client must get the category stats next, got %s", ev.Type)
	}
}

// -----------------------------------------------------------------------------
// Immediate push
// -----------------------------------------------------------------------------

func TestBroadcastTransaction(t *testing.T) {
	hub := newTestHub(&countingStore{})

	a := newTestClient("a", 4)
	b := newTestClient("b", 4)
	hub.registry.Add(a)
	hub.registry.Add(b)

	tx := models.MTransaction{ID: "t1", Category: "Books", Value: 19.99}
	hub.broadcastTransaction(tx)

	for _, c := range []*Client{a, b} {
		ev := recvEvent(t, c)
		if ev.Type != models.EventNewTransaction {
			t.Fatalf("expected %s, got %s", models.EventNewTransaction, ev.Type)
		}
		got, ok := ev.Payload.(models.MTransaction)
		if !ok || got.ID != "t1" {
			t.Fatalf("unexpected transaction payload: %+v", ev.Payload)
		}
	}
}

func TestPushTransactionQueues(t *testing.T) {
	hub := newTestHub(&countingStore{})

	hub.PushTransaction(models.MTransaction{ID: "t1"})

	select {
	case tx := <-hub.transactions:
		if tx.ID != "t1" {
			t.Fatalf("unexpected queued transaction: %+v", tx)
		}
	default:
		t.Fatalf("pushed transaction must be queued")
	}
}

// -----------------------------------------------------------------------------
// Slow clients
// -----------------------------------------------------------------------------

func TestSlowClientIsDisconnected(t *testing.T) {
	hub := newTestHub(&countingStore{})

	slow := newTestClient("slow", 1)
	slow.send <- models.MEvent{Type: models.EventStatsUpdate} // buffer full
	hub.registry.Add(slow)

	fast := newTestClient("fast", 4)
	hub.registry.Add(fast)

	hub.broadcastTransaction(models.MTransaction{ID: "t1"})

	if hub.ClientCount() != 1 {
		t.Fatalf("the slow client must be dropped, got %d remaining", hub.ClientCount())
	}

	// The dropped client's channel is closed after the backlog
	<-slow.send
	if _, open := <-slow.send; open {
		t.Fatalf("dropped client's send channel must be closed")
	}

	// The fast client still got the event
	if ev := recvEvent(t, fast); ev.Type != models.EventNewTransaction {
		t.Fatalf("fast client must still receive the broadcast, got %s", ev.Type)
	}
}

// -----------------------------------------------------------------------------
// Insert-to-dashboard scenario
// -----------------------------------------------------------------------------

func TestObservedInsertReachesNextTick(t *testing.T) {
	dash := models.MDashboardConfig{
		StatsIntervalSeconds:   5,
		ThrottleWindowSeconds:  3,
		RetentionWindowMinutes: 10,
		RecentWindowMinutes:    5,
		TopCategoriesLimit:     5,
		ComputeTimeoutSeconds:  5,
	}
	log := logger.NewLogger("ERROR", "test")
	store := &countingStore{snap: models.MStatsSnapshot{TotalTransactions: 499, TopCategories: []models.MCategoryStat{}}}
	cache := stats.NewSnapshotCache(dash.ThrottleWindow(), dash.RetentionWindow())
	svc := stats.NewService(stats.NewEngine(store, dash), cache, log)
	hub := NewHub(svc, NewRegistry(), dash, log)

	c := newTestClient("a", 8)
	hub.handleRegister(context.Background(), c)
	recvEvent(t, c) // on-connect stats_update (499, now cached)
	recvEvent(t, c) // on-connect category_stats

	// An insert lands: the store grows, the cache is invalidated and the
	// record is pushed immediately (the change listener's sequence).
	store.snap.TotalTransactions = 500
	svc.Invalidate()
	hub.broadcastTransaction(models.MTransaction{ID: "t500", Category: "Books", Value: 12.50})

	if ev := recvEvent(t, c); ev.Type != models.EventNewTransaction {
		t.Fatalf("expected immediate %s, got %s", models.EventNewTransaction, ev.Type)
	}

	// The next periodic tick recomputes instead of serving the stale 499.
	hub.broadcastStats(context.Background())

	ev := recvEvent(t, c)
	if ev.Type != models.EventStatsUpdate {
		t.Fatalf("expected %s, got %s", models.EventStatsUpdate, ev.Type)
	}
	snap := ev.Payload.(models.MStatsSnapshot)
	if snap.TotalTransactions != 500 {
		t.Fatalf("tick after an insert must include it, got total %d", snap.TotalTransactions)
	}
}

func TestDropIsIdempotent(t *testing.T) {
	hub := newTestHub(&countingStore{})

	c := newTestClient("a", 1)
	hub.registry.Add(c)

	hub.drop(c)
	hub.drop(c) // second drop must not double-close

	if hub.ClientCount() != 0 {
		t.Fatalf("expected empty registry, got %d", hub.ClientCount())
	}
}
