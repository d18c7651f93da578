package model

import (
	"fmt"
	"strings"
	"time"
)

type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
)

// ============================================================================
// KAFKA MESSAGE STRUCTURES
// ============================================================================

// NotificationRequest is published to the notification topic after a booking
// transaction commits.
type NotificationRequest struct {
	Type           NotificationType        `json:"type"`
	RecipientEmail string                  `json:"recipientEmail"`
	BookingData    NotificationBookingData `json:"bookingData"`
	Timestamp      time.Time               `json:"timestamp"`
}

// NotificationBookingData represents booking data for notifications
type NotificationBookingData struct {
	BookingID string    `json:"bookingId"`
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	EventName string    `json:"eventName"`
	Venue     string    `json:"venue"`
	EventDate time.Time `json:"eventDate"`
	Price     int       `json:"price"`
}

// NewBookingNotification builds the message for a committed booking change
func NewBookingNotification(kind NotificationType, recipient string, booking *Booking, event *Event, at time.Time) *NotificationRequest {
	return &NotificationRequest{
		Type:           kind,
		RecipientEmail: recipient,
		BookingData: NotificationBookingData{
			BookingID: booking.ID,
			UserID:    booking.UserID,
			EventID:   event.ID,
			EventName: event.Name,
			Venue:     event.Venue,
			EventDate: event.Date,
			Price:     event.Price,
		},
		Timestamp: at,
	}
}

// ============================================================================
// EMAIL TEMPLATES
// ============================================================================

// EmailTemplate represents an email ready to be handed to a sender
type EmailTemplate struct {
	To      string
	Subject string
	Body    string
}

// GenerateEmail renders the email for the notification type
func (nr *NotificationRequest) GenerateEmail() (*EmailTemplate, error) {
	switch nr.Type {
	case NotificationBookingConfirmed:
		return nr.generateBookingConfirmationEmail(), nil
	case NotificationBookingCancelled:
		return nr.generateBookingCancellationEmail(), nil
	default:
		return nil, fmt.Errorf("unknown notification type: %s", nr.Type)
	}
}

func (nr *NotificationRequest) generateBookingConfirmationEmail() *EmailTemplate {
	var body strings.Builder
	body.WriteString("Hello,\n\n")
	body.WriteString("Your booking has been confirmed!\n\n")
	fmt.Fprintf(&body, "Event: %s\n", nr.BookingData.EventName)
	fmt.Fprintf(&body, "Venue: %s\n", nr.BookingData.Venue)
	fmt.Fprintf(&body, "Date: %s\n", nr.BookingData.EventDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(&body, "Price: %d\n", nr.BookingData.Price)
	fmt.Fprintf(&body, "Booking ID: %s\n\n", nr.BookingData.BookingID)
	body.WriteString("Thank you for your booking!\n\nEvent Booking System")

	return &EmailTemplate{
		To:      nr.RecipientEmail,
		Subject: "Booking Confirmed - " + nr.BookingData.EventName,
		Body:    body.String(),
	}
}

func (nr *NotificationRequest) generateBookingCancellationEmail() *EmailTemplate {
	var body strings.Builder
	body.WriteString("Hello,\n\n")
	body.WriteString("Your booking has been cancelled and the ticket released.\n\n")
	fmt.Fprintf(&body, "Event: %s\n", nr.BookingData.EventName)
	fmt.Fprintf(&body, "Date: %s\n", nr.BookingData.EventDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(&body, "Booking ID: %s\n\n", nr.BookingData.BookingID)
	body.WriteString("Event Booking System")

	return &EmailTemplate{
		To:      nr.RecipientEmail,
		Subject: "Booking Cancelled - " + nr.BookingData.EventName,
		Body:    body.String(),
	}
}
