package models

// -----------------------------------------------------------------------------
// Realtime Channel Events (server -> client)
// -----------------------------------------------------------------------------

const (
	EventStatsUpdate    = "stats_update"
	EventNewTransaction = "new_transaction"
	EventCategoryStats  = "category_stats"
)

// MEvent is the JSON envelope pushed over the websocket.
type MEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// -----------------------------------------------------------------------------

func StatsUpdateEvent(snap MStatsSnapshot) MEvent {
	return MEvent{Type: EventStatsUpdate, Payload: snap}
}

func CategoryStatsEvent(snap MStatsSnapshot) MEvent {
	return MEvent{Type: EventCategoryStats, Payload: snap.TopCategories}
}

func NewTransactionEvent(tx MTransaction) MEvent {
	return MEvent{Type: EventNewTransaction, Payload: tx}
}
