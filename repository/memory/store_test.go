package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *Store
	events   *EventRepository
	bookings *BookingRepository
	users    *UserRepository
}

func newFixture() *fixture {
	store := NewStore()
	return &fixture{
		store:    store,
		events:   NewEventRepository(store),
		bookings: NewBookingRepository(store),
		users:    NewUserRepository(store),
	}
}

func (f *fixture) createEvent(t *testing.T, category model.Category, capacity int, date time.Time) *model.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), model.CreateEventRequest{
		Name:          "Event",
		Category:      category,
		Date:          date,
		TotalCapacity: capacity,
	})
	require.NoError(t, err)
	return event
}

func TestTxRollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	event := f.createEvent(t, model.CategoryMusic, 2, time.Now())

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.events.Decrement(ctx, tx, event.ID))
	_, err = f.bookings.Create(ctx, tx, &model.Booking{ID: "b1", UserID: "u1", EventID: event.ID})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	available, err := f.events.GetAvailability(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, available)

	booked, err := f.bookings.HasActiveBooking(ctx, "u1", event.ID)
	require.NoError(t, err)
	assert.False(t, booked)

	assert.NoError(t, tx.Rollback(), "second rollback is a no-op")
}

func TestTxCommitAfterContextCancelRollsBack(t *testing.T) {
	f := newFixture()
	event := f.createEvent(t, model.CategoryMusic, 1, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.events.Decrement(ctx, tx, event.ID))

	cancel()
	err = tx.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	available, err := f.events.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, available)
}

func TestBeginHonoursContextWhileAnotherTxRuns(t *testing.T) {
	f := newFixture()

	first, err := f.store.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.store.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, first.Commit())

	second, err := f.store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, second.Commit())
}

func TestStoresRejectForeignTx(t *testing.T) {
	ctx := context.Background()
	a, b := newFixture(), newFixture()
	event := a.createEvent(t, model.CategoryMusic, 1, time.Now())

	tx, err := b.store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	assert.ErrorIs(t, a.events.Decrement(ctx, tx, event.ID), repository.ErrTxMismatch)
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	event := f.createEvent(t, model.CategorySports, 1, time.Now())

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.events.Decrement(ctx, tx, event.ID))
	assert.ErrorIs(t, f.events.Decrement(ctx, tx, event.ID), model.ErrCapacityExceeded)
	require.NoError(t, tx.Commit())

	available, err := f.events.GetAvailability(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestBookingUniquenessAndOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	event := f.createEvent(t, model.CategoryGaming, 5, time.Now())

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	_, err = f.bookings.Create(ctx, tx, &model.Booking{ID: "b1", UserID: "u1", EventID: event.ID})
	require.NoError(t, err)
	_, err = f.bookings.Create(ctx, tx, &model.Booking{ID: "b2", UserID: "u1", EventID: event.ID})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = f.bookings.Delete(ctx, tx, "someone-else", "b1")
	assert.ErrorIs(t, err, model.ErrBookingNotFound)

	deleted, err := f.bookings.Delete(ctx, tx, "u1", "b1")
	require.NoError(t, err)
	assert.Equal(t, event.ID, deleted.EventID)
	require.NoError(t, tx.Commit())

	booked, err := f.bookings.HasActiveBooking(ctx, "u1", event.ID)
	require.NoError(t, err)
	assert.False(t, booked)
}

func TestListEventsOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.createEvent(t, model.CategoryMusic, 10, base.AddDate(0, 0, i))
	}
	f.createEvent(t, model.CategoryLiterature, 10, base)

	events, total, err := f.events.ListEvents(ctx, model.EventFilter{Category: model.CategoryMusic, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, events, 2)
	assert.True(t, events[0].Date.After(events[1].Date))

	events, _, err = f.events.ListEvents(ctx, model.EventFilter{Category: model.CategoryMusic, Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, total, err = f.events.ListEvents(ctx, model.EventFilter{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Empty(t, events)

	// An offset that overflows to a negative int yields an empty page.
	events, _, err = f.events.ListEvents(ctx, model.EventFilter{Page: 100000000000000001, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateEventShiftsAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	event := f.createEvent(t, model.CategoryMusic, 3, time.Now())

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.events.Decrement(ctx, tx, event.ID))
	require.NoError(t, f.events.Decrement(ctx, tx, event.ID))
	require.NoError(t, tx.Commit())

	update := model.UpdateEventRequest{ID: event.ID, Name: "Bigger", Category: model.CategoryMusic, TotalCapacity: 10}
	updated, err := f.events.UpdateEvent(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.AvailableTickets)

	update.TotalCapacity = 1
	_, err = f.events.UpdateEvent(ctx, update)
	assert.ErrorIs(t, err, model.ErrCapacityBelowBooked)

	update.ID = "missing"
	_, err = f.events.UpdateEvent(ctx, update)
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestDeleteEventWithBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	event := f.createEvent(t, model.CategoryMusic, 3, time.Now())

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	_, err = f.bookings.Create(ctx, tx, &model.Booking{ID: "b1", UserID: "u1", EventID: event.ID})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	_, err = f.events.DeleteEvent(ctx, event.ID)
	assert.ErrorIs(t, err, model.ErrEventHasBookings)

	count, err := f.bookings.CountForEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUserEmailUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	user, err := f.users.CreateUser(ctx, model.CreateUserRequest{Email: "a@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)

	_, err = f.users.CreateUser(ctx, model.CreateUserRequest{Email: "a@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, model.ErrEmailTaken)

	found, err := f.users.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = f.users.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
