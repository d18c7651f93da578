package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arunvm123/ticketbooking/cache"
	"github.com/arunvm123/ticketbooking/metrics"
	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/notification"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/arunvm123/ticketbooking/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultTxTimeout     = 5 * time.Second
	postCommitTimeout    = 3 * time.Second
	opBookEvent          = "book_event"
	opRemoveBooking      = "remove_booking"
	outcomeSuccess       = "success"
	outcomeAlreadyBooked = "already_booked"
	outcomeSoldOut       = "sold_out"
	outcomeNotFound      = "not_found"
	outcomeError         = "error"
)

// BookingService books and cancels tickets. Every state change runs in one
// transaction spanning the inventory and booking stores; cached event views
// are invalidated after the commit.
type BookingService struct {
	inventory repository.InventoryStore
	bookings  repository.BookingStore
	txm       repository.TxManager
	cache     cache.Cache

	publisher notification.Publisher
	users     repository.UserRepository

	log       *zap.Logger
	txTimeout time.Duration
	now       func() time.Time
	newID     func() string
}

type BookingOption func(*BookingService)

func WithBookingLogger(log *zap.Logger) BookingOption {
	return func(s *BookingService) {
		s.log = log
	}
}

// WithNotifier publishes a notification for every committed booking change.
// users resolves the recipient's email.
func WithNotifier(publisher notification.Publisher, users repository.UserRepository) BookingOption {
	return func(s *BookingService) {
		s.publisher = publisher
		s.users = users
	}
}

// WithTxTimeout bounds each booking transaction, lock waits included.
func WithTxTimeout(d time.Duration) BookingOption {
	return func(s *BookingService) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	inventory repository.InventoryStore,
	bookings repository.BookingStore,
	txm repository.TxManager,
	c cache.Cache,
	opts ...BookingOption,
) *BookingService {
	s := &BookingService{
		inventory: inventory,
		bookings:  bookings,
		txm:       txm,
		cache:     c,
		log:       zap.NewNop(),
		txTimeout: defaultTxTimeout,
		now: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookEvent reserves one ticket of eventID for userID.
func (s *BookingService) BookEvent(ctx context.Context, userID, eventID string) (booking *model.Booking, err error) {
	ctx, span := telemetry.StartSpan(ctx, "BookingService.BookEvent",
		attribute.String("user.id", userID),
		attribute.String("event.id", eventID),
	)
	defer func() {
		s.record(opBookEvent, err)
		telemetry.EndSpan(span, err)
	}()

	booked, err := s.bookings.HasActiveBooking(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing booking: %w", err)
	}
	if booked {
		return nil, model.ErrAlreadyBooked
	}

	if _, err := s.inventory.GetAvailability(ctx, eventID); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var event *model.Event
	err = withinTx(txCtx, s.txm, s.log, opBookEvent, func(tx repository.Tx) error {
		var err error
		event, err = s.inventory.GetForUpdate(txCtx, tx, eventID)
		if err != nil {
			return err
		}
		if event.AvailableTickets <= 0 {
			return model.ErrSoldOut
		}

		if err := s.inventory.Decrement(txCtx, tx, eventID); err != nil {
			if errors.Is(err, model.ErrCapacityExceeded) {
				return model.ErrSoldOut
			}
			return err
		}

		booking, err = s.bookings.Create(txCtx, tx, &model.Booking{
			ID:        s.newID(),
			UserID:    userID,
			EventID:   eventID,
			CreatedAt: s.now(),
		})
		if err != nil {
			if errors.Is(err, model.ErrConflict) {
				return fmt.Errorf("%w: %w", model.ErrAlreadyBooked, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, opBookEvent, model.NotificationBookingConfirmed, booking, event)

	s.log.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("user_id", userID),
		zap.String("event_id", eventID),
	)
	return booking, nil
}

// RemoveBooking cancels bookingID if userID owns it and returns the deleted
// booking.
func (s *BookingService) RemoveBooking(ctx context.Context, userID, bookingID string) (booking *model.Booking, err error) {
	ctx, span := telemetry.StartSpan(ctx, "BookingService.RemoveBooking",
		attribute.String("user.id", userID),
		attribute.String("booking.id", bookingID),
	)
	defer func() {
		s.record(opRemoveBooking, err)
		telemetry.EndSpan(span, err)
	}()

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var event *model.Event
	err = withinTx(txCtx, s.txm, s.log, opRemoveBooking, func(tx repository.Tx) error {
		existing, err := s.bookings.GetForUser(txCtx, tx, userID, bookingID)
		if err != nil {
			return err
		}

		// Event row first, then the booking row, same as BookEvent.
		event, err = s.inventory.GetForUpdate(txCtx, tx, existing.EventID)
		if err != nil {
			return err
		}

		booking, err = s.bookings.Delete(txCtx, tx, userID, bookingID)
		if err != nil {
			return err
		}

		return s.inventory.Increment(txCtx, tx, booking.EventID)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, opRemoveBooking, model.NotificationBookingCancelled, booking, event)

	s.log.Info("booking removed",
		zap.String("booking_id", booking.ID),
		zap.String("user_id", userID),
		zap.String("event_id", booking.EventID),
	)
	return booking, nil
}

// ListBookings returns the user's bookings with their events, newest first.
func (s *BookingService) ListBookings(ctx context.Context, userID string) ([]model.BookingWithEvent, error) {
	bookings, err := s.bookings.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// afterCommit runs once the booking change is durable. Its failures are
// logged and never returned.
func (s *BookingService) afterCommit(ctx context.Context, op string, kind model.NotificationType, booking *model.Booking, event *model.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	if err := cache.InvalidateEvent(ctx, s.cache, event.ID, event.Category); err != nil {
		metrics.CacheInvalidationFailures.WithLabelValues(op).Inc()
		s.log.Error("failed to invalidate event cache",
			zap.String("op", op),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}

	if s.publisher == nil {
		return
	}

	recipient := ""
	if s.users != nil {
		user, err := s.users.GetUserByID(ctx, booking.UserID)
		if err != nil {
			s.log.Warn("failed to resolve notification recipient",
				zap.String("user_id", booking.UserID),
				zap.Error(err),
			)
			return
		}
		recipient = user.Email
	}

	req := model.NewBookingNotification(kind, recipient, booking, event, s.now())
	if err := s.publisher.Publish(ctx, req); err != nil {
		s.log.Warn("failed to publish notification",
			zap.String("type", string(kind)),
			zap.String("booking_id", booking.ID),
			zap.Error(err),
		)
	}
}

func (s *BookingService) record(op string, err error) {
	outcome := outcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, model.ErrAlreadyBooked):
		outcome = outcomeAlreadyBooked
	case errors.Is(err, model.ErrSoldOut):
		outcome = outcomeSoldOut
	case model.IsNotFound(err):
		outcome = outcomeNotFound
	default:
		outcome = outcomeError
	}
	metrics.BookingOperations.WithLabelValues(op, outcome).Inc()
}
