package model

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrAlreadyBooked means the user already holds a booking for the event.
	ErrAlreadyBooked = errors.New("event already booked by user")
	// ErrSoldOut means the event has no tickets left.
	ErrSoldOut = errors.New("event is sold out")
	// ErrConflict is returned by the booking store when an insert loses the
	// (user, event) uniqueness race. Callers see it as ErrAlreadyBooked.
	ErrConflict = errors.New("booking already exists")
	// ErrCapacityExceeded is returned by the inventory store when a decrement
	// would take available tickets below zero.
	ErrCapacityExceeded = errors.New("no tickets left to decrement")

	ErrEventHasBookings    = errors.New("event has bookings")
	ErrCapacityBelowBooked = errors.New("capacity is below the number of booked tickets")
	ErrEmailTaken          = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidCategory     = errors.New("invalid event category")
	ErrInvalidInput        = errors.New("invalid input")
)

// TransactionError is an infrastructure failure inside a unit of work. The
// transaction was rolled back; nothing it touched was applied.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyBooked) ||
		errors.Is(err, ErrSoldOut) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrEventHasBookings) ||
		errors.Is(err, ErrCapacityBelowBooked) ||
		errors.Is(err, ErrEmailTaken)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrInvalidInput)
}

// IsClientError reports whether err is an expected outcome the caller can act
// on, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsConflict(err) || IsValidation(err) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrCapacityExceeded)
}
