package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arunvm123/ticketbooking/cache"
	"github.com/arunvm123/ticketbooking/metrics"
	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/arunvm123/ticketbooking/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MaxPage      = 10000

	defaultEventTTL = 30 * time.Second
	defaultListTTL  = 2 * time.Minute
)

// EventService serves event reads through the cache and keeps the cache in
// step with event management.
type EventService struct {
	events repository.EventRepository
	cache  cache.Cache
	group  singleflight.Group

	eventTTL time.Duration
	listTTL  time.Duration
	log      *zap.Logger
}

type EventOption func(*EventService)

func WithEventLogger(log *zap.Logger) EventOption {
	return func(s *EventService) {
		s.log = log
	}
}

// WithCacheTTL sets how long single events and list pages stay cached.
func WithCacheTTL(event, list time.Duration) EventOption {
	return func(s *EventService) {
		if event > 0 {
			s.eventTTL = event
		}
		if list > 0 {
			s.listTTL = list
		}
	}
}

func NewEventService(events repository.EventRepository, c cache.Cache, opts ...EventOption) *EventService {
	s := &EventService{
		events:   events,
		cache:    c,
		eventTTL: defaultEventTTL,
		listTTL:  defaultListTTL,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	key := cache.EventKey(eventID)

	var cached model.Event
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		event, err := s.events.GetEventByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, event, s.eventTTL)
		return event, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing a flight must not share the value.
	event := *v.(*model.Event)
	return &event, nil
}

// ListEvents returns one page of events, newest date first. Zero page and
// limit take their defaults; limit is capped at MaxLimit.
func (s *EventService) ListEvents(ctx context.Context, filter model.EventFilter) (*model.EventPage, error) {
	filter, err := normaliseFilter(filter)
	if err != nil {
		return nil, err
	}

	key := cache.EventListKey(filter)

	var cached model.EventPage
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		events, total, err := s.events.ListEvents(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}
		page := &model.EventPage{
			Events: events,
			Total:  total,
			Page:   filter.Page,
			Limit:  filter.Limit,
		}
		s.store(ctx, key, page, s.listTTL, cache.EventListTag(filter.Category))
		return page, nil
	})
	if err != nil {
		return nil, err
	}

	src := v.(*model.EventPage)
	page := *src
	page.Events = append([]model.Event(nil), src.Events...)
	return &page, nil
}

func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventService.CreateEvent")
	if err := validateEvent(req.Name, req.Category, req.TotalCapacity, req.Price); err != nil {
		telemetry.EndSpan(span, err)
		return nil, err
	}

	event, err := s.events.CreateEvent(ctx, req)
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.invalidate(ctx, "create_event", event.ID, event.Category)
	s.log.Info("event created", zap.String("event_id", event.ID), zap.String("category", string(event.Category)))
	return event, nil
}

// UpdateEvent replaces an event's fields. A capacity change moves
// availableTickets by the same amount and fails with
// model.ErrCapacityBelowBooked when more tickets are booked than the new
// capacity allows.
func (s *EventService) UpdateEvent(ctx context.Context, req model.UpdateEventRequest) (*model.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventService.UpdateEvent", attribute.String("event.id", req.ID))
	if err := validateEvent(req.Name, req.Category, req.TotalCapacity, req.Price); err != nil {
		telemetry.EndSpan(span, err)
		return nil, err
	}

	previous, err := s.events.GetEventByID(ctx, req.ID)
	if err != nil {
		telemetry.EndSpan(span, err)
		return nil, err
	}

	event, err := s.events.UpdateEvent(ctx, req)
	telemetry.EndSpan(span, err)
	if err != nil {
		if model.IsClientError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.invalidate(ctx, "update_event", event.ID, previous.Category, event.Category)
	s.log.Info("event updated", zap.String("event_id", event.ID))
	return event, nil
}

// DeleteEvent removes an event that has no bookings and returns it.
func (s *EventService) DeleteEvent(ctx context.Context, eventID string) (*model.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventService.DeleteEvent", attribute.String("event.id", eventID))
	event, err := s.events.DeleteEvent(ctx, eventID)
	telemetry.EndSpan(span, err)
	if err != nil {
		if model.IsClientError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}

	s.invalidate(ctx, "delete_event", event.ID, event.Category)
	s.log.Info("event deleted", zap.String("event_id", event.ID))
	return event, nil
}

// lookup reports a cache hit. Cache errors count as misses.
func (s *EventService) lookup(ctx context.Context, key string, dest interface{}) bool {
	found, err := s.cache.Get(ctx, key, dest)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	case found:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return true
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
}

func (s *EventService) store(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) {
	if err := s.cache.Set(ctx, key, value, ttl, tags...); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *EventService) invalidate(ctx context.Context, op, eventID string, categories ...model.Category) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	if err := cache.InvalidateEvent(ctx, s.cache, eventID, categories...); err != nil {
		metrics.CacheInvalidationFailures.WithLabelValues(op).Inc()
		s.log.Error("failed to invalidate event cache",
			zap.String("op", op),
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}

func normaliseFilter(filter model.EventFilter) (model.EventFilter, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return filter, fmt.Errorf("%w: %q", model.ErrInvalidCategory, filter.Category)
	}
	if filter.Page < 1 {
		filter.Page = DefaultPage
	}
	if filter.Page > MaxPage {
		return filter, fmt.Errorf("%w: page must not exceed %d", model.ErrInvalidInput, MaxPage)
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	return filter, nil
}

func validateEvent(name string, category model.Category, capacity, price int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	if !category.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidCategory, category)
	}
	if capacity < 0 {
		return fmt.Errorf("%w: total capacity must not be negative", model.ErrInvalidInput)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", model.ErrInvalidInput)
	}
	return nil
}
