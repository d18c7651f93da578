package main

import (
	"errors"
	"net/http"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to its HTTP status and error code.
// AlreadyBooked wraps Conflict, so it is matched first.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrAlreadyBooked):
		return http.StatusConflict, "already_booked"
	case errors.Is(err, model.ErrSoldOut):
		return http.StatusConflict, "sold_out"
	case errors.Is(err, model.ErrEventNotFound),
		errors.Is(err, model.ErrBookingNotFound),
		errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrEventHasBookings):
		return http.StatusConflict, "event_has_bookings"
	case errors.Is(err, model.ErrCapacityBelowBooked):
		return http.StatusConflict, "capacity_below_booked"
	case errors.Is(err, model.ErrEmailTaken):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, "conflict"
	case model.IsValidation(err):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, "authentication_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes err as an ErrorResponse. Server errors are attached to
// the gin context for the request logger and never leak their text.
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		message = "Internal server error"
	}
	c.JSON(status, model.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Error:   "validation_failed",
		Message: err.Error(),
	})
}
