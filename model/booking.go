package model

import (
	"time"
)

// ===== DATABASE ENTITIES =====

// Booking is a single reservation of one ticket. At most one row exists per
// (UserID, EventID).
type Booking struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_bookings_user_event,priority:1" json:"userId"`
	EventID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_bookings_user_event,priority:2;index:idx_bookings_event" json:"eventId"`
	CreatedAt time.Time `gorm:"not null;index:idx_bookings_created_at,sort:desc" json:"createdAt"`

	User  *User  `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Event *Event `gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT" json:"-"`
}

// BookingWithEvent pairs a booking with the event it reserves, for display
type BookingWithEvent struct {
	Booking Booking `json:"booking"`
	Event   Event   `json:"bookedEvent"`
}

// ===== API DATA TRANSFER OBJECTS =====

// CreateBookingRequest is the body of a booking request
type CreateBookingRequest struct {
	EventID string `json:"eventId" binding:"required,uuid"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserBookingResponse is one entry of a user's booking list
type UserBookingResponse struct {
	Booking     BookingResponse `json:"booking"`
	BookedEvent EventResponse   `json:"bookedEvent"`
}

// ===== CONVERSION METHODS =====

func (b *Booking) ToBookingResponse() *BookingResponse {
	return &BookingResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		EventID:   b.EventID,
		CreatedAt: b.CreatedAt,
	}
}

func (bw *BookingWithEvent) ToUserBookingResponse() UserBookingResponse {
	return UserBookingResponse{
		Booking:     *bw.Booking.ToBookingResponse(),
		BookedEvent: *bw.Event.ToEventResponse(),
	}
}

// ===== SHARED API TYPES =====

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
