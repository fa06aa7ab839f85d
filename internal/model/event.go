package model

import "time"

// Event mirrors the `events` table. The date is stored as a unix
// timestamp in a DOUBLE column, matching the format of the seeded
// catalog, and is only converted to a time.Time for display.
//
// Fields:
//  ID             – primary key identifier of the event.
//  Name           – unique event name.
//  Date           – unix timestamp of when the event takes place.
//  Price          – ticket price per seat.
//  SeatsAvailable – remaining seat inventory; decremented on
//                   reservation and incremented on cancellation.
type Event struct {
	ID             uint64  `json:"id"`              // events.id
	Name           string  `json:"name"`            // events.name
	Date           float64 `json:"date"`            // events.date
	Price          float64 `json:"price"`           // events.price
	SeatsAvailable int64   `json:"seats_available"` // events.seats_available
}

// EventDate converts a stored unix `date` value to a time.Time.
func EventDate(d float64) time.Time { return time.Unix(int64(d), 0) }
