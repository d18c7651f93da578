package memory

import (
	"context"
	"sort"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
)

type BookingRepository struct {
	store *Store
}

var _ repository.BookingStore = (*BookingRepository)(nil)

func NewBookingRepository(store *Store) *BookingRepository {
	return &BookingRepository{store: store}
}

func (r *BookingRepository) HasActiveBooking(ctx context.Context, userID, eventID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bookingIndex[bookingKey{userID: userID, eventID: eventID}]
	return ok, nil
}

func (r *BookingRepository) Create(ctx context.Context, tx repository.Tx, booking *model.Booking) (*model.Booking, error) {
	t, err := r.store.unwrapTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	s := r.store
	if _, ok := s.events[booking.EventID]; !ok {
		return nil, model.ErrEventNotFound
	}
	key := bookingKey{userID: booking.UserID, eventID: booking.EventID}
	if _, ok := s.bookingIndex[key]; ok {
		return nil, model.ErrConflict
	}
	if _, ok := s.bookings[booking.ID]; ok {
		return nil, model.ErrConflict
	}

	created := *booking
	if created.CreatedAt.IsZero() {
		created.CreatedAt = s.now()
	}
	s.bookings[created.ID] = created
	s.bookingIndex[key] = created.ID
	t.onRollback(func() {
		delete(s.bookings, created.ID)
		delete(s.bookingIndex, key)
	})

	return &created, nil
}

func (r *BookingRepository) GetForUser(ctx context.Context, tx repository.Tx, userID, bookingID string) (*model.Booking, error) {
	if _, err := r.store.unwrapTx(ctx, tx); err != nil {
		return nil, err
	}

	booking, ok := r.store.bookings[bookingID]
	if !ok || booking.UserID != userID {
		return nil, model.ErrBookingNotFound
	}
	return &booking, nil
}

func (r *BookingRepository) Delete(ctx context.Context, tx repository.Tx, userID, bookingID string) (*model.Booking, error) {
	t, err := r.store.unwrapTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	s := r.store
	booking, ok := s.bookings[bookingID]
	if !ok || booking.UserID != userID {
		return nil, model.ErrBookingNotFound
	}

	key := bookingKey{userID: booking.UserID, eventID: booking.EventID}
	delete(s.bookings, bookingID)
	delete(s.bookingIndex, key)
	t.onRollback(func() {
		s.bookings[bookingID] = booking
		s.bookingIndex[key] = bookingID
	})

	return &booking, nil
}

func (r *BookingRepository) ListForUser(ctx context.Context, userID string) ([]model.BookingWithEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	result := make([]model.BookingWithEvent, 0)
	for _, booking := range s.bookings {
		if booking.UserID != userID {
			continue
		}
		event, ok := s.events[booking.EventID]
		if !ok {
			continue
		}
		result = append(result, model.BookingWithEvent{Booking: booking, Event: event})
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Booking, result[j].Booking
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return result, nil
}

func (r *BookingRepository) CountForEvent(ctx context.Context, eventID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, booking := range s.bookings {
		if booking.EventID == eventID {
			count++
		}
	}
	return count, nil
}
