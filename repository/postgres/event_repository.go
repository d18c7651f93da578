package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventRepository stores events and doubles as the inventory store, since
// the ticket counter lives on the event row.
type EventRepository struct {
	db *gorm.DB
}

var (
	_ repository.EventRepository = (*EventRepository)(nil)
	_ repository.InventoryStore  = (*EventRepository)(nil)
)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Event operations
func (r *EventRepository) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

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
	}

	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &event, nil
}

func (r *EventRepository) GetEventByID(ctx context.Context, eventID string) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", eventID).Take(&event).Error; err != nil {
		return nil, eventLookupError(err)
	}
	return &event, nil
}

func (r *EventRepository) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	var events []model.Event
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Event{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	err := query.Order("date DESC").Order("id").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	return events, total, nil
}

// UpdateEvent applies the whole update in one statement so the capacity delta
// is computed against the row's current counters.
func (r *EventRepository) UpdateEvent(ctx context.Context, req model.UpdateEventRequest) (*model.Event, error) {
	delta := gorm.Expr("available_tickets + (? - total_capacity)", req.TotalCapacity)

	result := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ? AND available_tickets + (? - total_capacity) >= 0", req.ID, req.TotalCapacity).
		Updates(map[string]interface{}{
			"name":              req.Name,
			"description":       req.Description,
			"category":          req.Category,
			"date":              req.Date,
			"venue":             req.Venue,
			"price":             req.Price,
			"image":             req.Image,
			"available_tickets": delta,
			"total_capacity":    req.TotalCapacity,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		if isCheckViolation(result.Error) {
			return nil, model.ErrCapacityBelowBooked
		}
		if isInvalidUUID(result.Error) {
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Either the event is gone or the new capacity is below what is booked.
		if _, err := r.GetEventByID(ctx, req.ID); err != nil {
			return nil, err
		}
		return nil, model.ErrCapacityBelowBooked
	}

	return r.GetEventByID(ctx, req.ID)
}

// DeleteEvent refuses to delete an event that still has bookings; the
// bookings foreign key enforces it.
func (r *EventRepository) DeleteEvent(ctx context.Context, eventID string) (*model.Event, error) {
	var event model.Event
	result := r.db.WithContext(ctx).Clauses(clause.Returning{}).
		Where("id = ?", eventID).
		Delete(&event)
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			return nil, model.ErrEventHasBookings
		}
		if isInvalidUUID(result.Error) {
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to delete event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, model.ErrEventNotFound
	}
	return &event, nil
}

// Inventory operations
func (r *EventRepository) GetAvailability(ctx context.Context, eventID string) (int, error) {
	var event model.Event
	err := r.db.WithContext(ctx).Select("available_tickets").
		Where("id = ?", eventID).
		Take(&event).Error
	if err != nil {
		return 0, eventLookupError(err)
	}
	return event.AvailableTickets, nil
}

func (r *EventRepository) GetForUpdate(ctx context.Context, tx repository.Tx, eventID string) (*model.Event, error) {
	db, err := unwrapTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	var event model.Event
	err = db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", eventID).
		Take(&event).Error
	if err != nil {
		return nil, eventLookupError(err)
	}
	return &event, nil
}

// Decrement is guarded by both the WHERE clause and the check constraint, so
// it cannot drive the counter negative even without a prior row lock.
func (r *EventRepository) Decrement(ctx context.Context, tx repository.Tx, eventID string) error {
	db, err := unwrapTx(ctx, tx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Event{}).
		Where("id = ? AND available_tickets > 0", eventID).
		UpdateColumn("available_tickets", gorm.Expr("available_tickets - 1"))
	if result.Error != nil {
		if isCheckViolation(result.Error) {
			return model.ErrCapacityExceeded
		}
		return fmt.Errorf("failed to decrement available tickets: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrCapacityExceeded
	}
	return nil
}

func (r *EventRepository) Increment(ctx context.Context, tx repository.Tx, eventID string) error {
	db, err := unwrapTx(ctx, tx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("available_tickets", gorm.Expr("available_tickets + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment available tickets: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

func eventLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || isInvalidUUID(err) {
		return model.ErrEventNotFound
	}
	return fmt.Errorf("failed to get event: %w", err)
}
