package model

// Reservation records one reserved seat. A multi-seat booking
// produces multiple rows sharing AccountID and EventID, each with
// its own barcode. Barcodes are globally unique across all events
// and accounts.
//
// Fields:
//  AccountID – account that holds the seat.
//  EventID   – event the seat belongs to.
//  Barcode   – unique 8-digit proof-of-purchase number.
type Reservation struct {
	AccountID uint64 // reservations.account_id
	EventID   uint64 // reservations.event_id
	Barcode   int64  // reservations.barcode
}

// ReservationView joins a reservation row with its event for
// display to the owning user.
type ReservationView struct {
	EventName string  // events.name
	EventDate float64 // events.date (unix timestamp)
	Barcode   int64   // reservations.barcode
}

// UserView aggregates everything the `info` action reports about an
// account.
//
// Reservations is nil when the account has none. Callers must treat
// nil as the explicit no-reservations marker rather than ranging
// over it as an empty list.
type UserView struct {
	Email        string
	PasswordHash string
	Reservations []ReservationView
}
