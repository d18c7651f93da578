package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

var _ repository.BookingStore = (*BookingRepository)(nil)

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) HasActiveBooking(ctx context.Context, userID, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&count).Error
	if err != nil {
		if isInvalidUUID(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check booking: %w", err)
	}
	return count > 0, nil
}

func (r *BookingRepository) Create(ctx context.Context, tx repository.Tx, booking *model.Booking) (*model.Booking, error) {
	db, err := unwrapTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := db.Create(booking).Error; err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, model.ErrConflict
		case isForeignKeyViolation(err):
			if strings.Contains(constraintName(err), "user") {
				return nil, model.ErrUserNotFound
			}
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return booking, nil
}

func (r *BookingRepository) GetForUser(ctx context.Context, tx repository.Tx, userID, bookingID string) (*model.Booking, error) {
	db, err := unwrapTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	err = db.Where("id = ? AND user_id = ?", bookingID, userID).Take(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || isInvalidUUID(err) {
			return nil, model.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// Delete matches on both id and owner, so another user's booking id behaves
// exactly like a missing one.
func (r *BookingRepository) Delete(ctx context.Context, tx repository.Tx, userID, bookingID string) (*model.Booking, error) {
	db, err := unwrapTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	result := db.Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", bookingID, userID).
		Delete(&booking)
	if result.Error != nil {
		if isInvalidUUID(result.Error) {
			return nil, model.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, model.ErrBookingNotFound
	}
	return &booking, nil
}

func (r *BookingRepository) ListForUser(ctx context.Context, userID string) ([]model.BookingWithEvent, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Joins("Event").
		Where("bookings.user_id = ?", userID).
		Order("bookings.created_at DESC").
		Find(&bookings).Error
	if err != nil {
		if isInvalidUUID(err) {
			return []model.BookingWithEvent{}, nil
		}
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	result := make([]model.BookingWithEvent, 0, len(bookings))
	for _, b := range bookings {
		if b.Event == nil {
			continue
		}
		event := *b.Event
		b.Event = nil
		result = append(result, model.BookingWithEvent{Booking: b, Event: event})
	}
	return result, nil
}

func (r *BookingRepository) CountForEvent(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		if isInvalidUUID(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}
