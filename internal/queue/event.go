// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Both are durable.
const (
    MovementQueue = "stock.movements"
    AlertQueue    = "stock.alerts"
)

// StockMovementRecorded is published after a ledger entry is committed.
// It carries the balance right after the movement so consumers do not need
// to query the primary database.
type StockMovementRecorded struct {
    EntryID    uint64  `json:"entry_id"`
    SpongeID   uint64  `json:"sponge_id"`
    SpongeName string  `json:"sponge_name"`
    Type       string  `json:"type"`
    Quantity   float64 `json:"quantity"`
    Balance    float64 `json:"balance"`
    Critical   bool    `json:"critical"`
    CreatedBy  *uint64 `json:"created_by,omitempty"`
    RecordedAt string  `json:"recorded_at"`
}
