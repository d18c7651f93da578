package main

import (
	"context"
	"net/http"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/gin-gonic/gin"
)

type bookingService interface {
	BookEvent(ctx context.Context, userID, eventID string) (*model.Booking, error)
	RemoveBooking(ctx context.Context, userID, bookingID string) (*model.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]model.BookingWithEvent, error)
}

type BookingHandler struct {
	bookings bookingService
}

func NewBookingHandler(bookings bookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// CreateBooking reserves one ticket of the requested event for the caller.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	booking, err := h.bookings.BookEvent(c.Request.Context(), c.GetString(ctxUserID), req.EventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking.ToBookingResponse())
}

// ListBookings returns the caller's bookings, newest first.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.ListBookings(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]model.UserBookingResponse, 0, len(bookings))
	for i := range bookings {
		response = append(response, bookings[i].ToUserBookingResponse())
	}
	c.JSON(http.StatusOK, response)
}

// DeleteBooking cancels one of the caller's bookings and frees its ticket.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.RemoveBooking(c.Request.Context(), c.GetString(ctxUserID), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking.ToBookingResponse())
}
