// Package queue defines message payloads published to the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation commits.
// It carries enough information for downstream consumers to notify
// or run analytics without querying the primary database.
type ReservationConfirmedEvent struct {
	Email       string  `json:"email"`
	EventID     uint64  `json:"event_id"`
	EventName   string  `json:"event_name"`
	EventDate   float64 `json:"event_date"`
	Price       float64 `json:"price"`
	Barcodes    []int64 `json:"barcodes"`
	ConfirmedAt string  `json:"confirmed_at"`
}
