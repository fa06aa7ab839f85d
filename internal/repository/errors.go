// Package repository implements the reservation store: the
// data-access layer for accounts, events and reservations. Expected
// business outcomes are modelled as sentinel errors so callers can
// distinguish them from unexpected storage faults. For example,
// ErrNoAvailability means the requested event has too few seats or
// already took place, while ErrNotFound covers both a missing
// account and a barcode the caller does not own.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist
// for the calling account. A barcode owned by a different account is
// reported as not found rather than forbidden, so the store never
// reveals whether a foreign barcode exists.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when registering an email that is
// already taken.
var ErrAlreadyExists = errors.New("account already exists")

// ErrNoAvailability is returned when a reservation cannot be made
// because the event is missing, in the past, or does not have enough
// seats left. It is a business outcome, not a storage failure.
var ErrNoAvailability = errors.New("no availability")

// ErrInvalidSeatCount is returned for a seat count below 1, before
// any storage access happens.
var ErrInvalidSeatCount = errors.New("seat count must be at least 1")
