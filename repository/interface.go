package repository

import (
	"context"
	"errors"

	"github.com/arunvm123/ticketbooking/model"
)

// ErrTxMismatch is returned when a store receives a Tx begun by a different
// backend.
var ErrTxMismatch = errors.New("transaction does not belong to this store")

// Tx is an open unit of work. The caller that began it owns Commit and
// Rollback; stores only run statements inside it. Rollback after Commit is a
// no-op.
type Tx interface {
	Commit() error
	Rollback() error
}

type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// InventoryStore owns each event's remaining ticket count.
type InventoryStore interface {
	GetAvailability(ctx context.Context, eventID string) (int, error)
	// GetForUpdate reads the event and holds its row lock until tx ends.
	GetForUpdate(ctx context.Context, tx Tx, eventID string) (*model.Event, error)
	// Decrement fails with model.ErrCapacityExceeded instead of going negative.
	Decrement(ctx context.Context, tx Tx, eventID string) error
	Increment(ctx context.Context, tx Tx, eventID string) error
}

type EventRepository interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	GetEventByID(ctx context.Context, eventID string) (*model.Event, error)
	ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error)
	UpdateEvent(ctx context.Context, req model.UpdateEventRequest) (*model.Event, error)
	DeleteEvent(ctx context.Context, eventID string) (*model.Event, error)
}

// BookingStore owns reservations. Mutations run inside a caller's Tx.
type BookingStore interface {
	HasActiveBooking(ctx context.Context, userID, eventID string) (bool, error)
	// Create fails with model.ErrConflict when the (user, event) pair exists.
	Create(ctx context.Context, tx Tx, booking *model.Booking) (*model.Booking, error)
	GetForUser(ctx context.Context, tx Tx, userID, bookingID string) (*model.Booking, error)
	// Delete removes the booking only if userID owns it and returns the
	// deleted row.
	Delete(ctx context.Context, tx Tx, userID, bookingID string) (*model.Booking, error)
	ListForUser(ctx context.Context, userID string) ([]model.BookingWithEvent, error)
	CountForEvent(ctx context.Context, eventID string) (int64, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
