package memory

import (
	"context"
	"sort"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/google/uuid"
)

type EventRepository struct {
	store *Store
}

var (
	_ repository.EventRepository = (*EventRepository)(nil)
	_ repository.InventoryStore  = (*EventRepository)(nil)
)

func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

func (r *EventRepository) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.TotalCapacity < 0 {
		return nil, model.ErrInvalidInput
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	event := model.Event{
		ID:               id,
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		Date:             req.Date,
		Venue:            req.Venue,
		Price:            req.Price,
		Image:            req.Image,
		TotalCapacity:    req.TotalCapacity,
		AvailableTickets: req.TotalCapacity,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.events[id] = event
	return &event, nil
}

func (r *EventRepository) GetEventByID(ctx context.Context, eventID string) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return &event, nil
}

func (r *EventRepository) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s := r.store
	s.mu.RLock()
	matched := make([]model.Event, 0, len(s.events))
	for _, event := range s.events {
		if filter.Category != "" && event.Category != filter.Category {
			continue
		}
		matched = append(matched, event)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	start := filter.Offset()
	if start < 0 || start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, req model.UpdateEventRequest) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[req.ID]
	if !ok {
		return nil, model.ErrEventNotFound
	}

	available := event.AvailableTickets + (req.TotalCapacity - event.TotalCapacity)
	if available < 0 || req.TotalCapacity < 0 {
		return nil, model.ErrCapacityBelowBooked
	}

	event.Name = req.Name
	event.Description = req.Description
	event.Category = req.Category
	event.Date = req.Date
	event.Venue = req.Venue
	event.Price = req.Price
	event.Image = req.Image
	event.TotalCapacity = req.TotalCapacity
	event.AvailableTickets = available
	event.UpdatedAt = s.now()
	s.events[req.ID] = event

	return &event, nil
}

func (r *EventRepository) DeleteEvent(ctx context.Context, eventID string) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	for _, booking := range s.bookings {
		if booking.EventID == eventID {
			return nil, model.ErrEventHasBookings
		}
	}

	delete(s.events, eventID)
	return &event, nil
}

func (r *EventRepository) GetAvailability(ctx context.Context, eventID string) (int, error) {
	event, err := r.GetEventByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return event.AvailableTickets, nil
}

// GetForUpdate needs no row lock of its own: the transaction already holds
// the store's write lock.
func (r *EventRepository) GetForUpdate(ctx context.Context, tx repository.Tx, eventID string) (*model.Event, error) {
	if _, err := r.store.unwrapTx(ctx, tx); err != nil {
		return nil, err
	}

	event, ok := r.store.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return &event, nil
}

func (r *EventRepository) Decrement(ctx context.Context, tx repository.Tx, eventID string) error {
	return r.adjust(ctx, tx, eventID, -1)
}

func (r *EventRepository) Increment(ctx context.Context, tx repository.Tx, eventID string) error {
	return r.adjust(ctx, tx, eventID, 1)
}

func (r *EventRepository) adjust(ctx context.Context, tx repository.Tx, eventID string, delta int) error {
	t, err := r.store.unwrapTx(ctx, tx)
	if err != nil {
		return err
	}

	s := r.store
	event, ok := s.events[eventID]
	if !ok {
		return model.ErrEventNotFound
	}
	if event.AvailableTickets+delta < 0 {
		return model.ErrCapacityExceeded
	}

	previous := event
	event.AvailableTickets += delta
	s.events[eventID] = event
	t.onRollback(func() {
		s.events[eventID] = previous
	})
	return nil
}
