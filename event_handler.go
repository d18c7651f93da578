package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type eventService interface {
	GetEvent(ctx context.Context, eventID string) (*model.Event, error)
	ListEvents(ctx context.Context, filter model.EventFilter) (*model.EventPage, error)
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	UpdateEvent(ctx context.Context, req model.UpdateEventRequest) (*model.Event, error)
	DeleteEvent(ctx context.Context, eventID string) (*model.Event, error)
}

type EventHandler struct {
	events eventService
}

func NewEventHandler(events eventService) *EventHandler {
	return &EventHandler{events: events}
}

// ListEvents handles event listing with filtering and pagination
func (h *EventHandler) ListEvents(c *gin.Context) {
	filter := model.EventFilter{
		Category: model.Category(c.Query("category")),
	}

	var err error
	if filter.Page, err = queryInt(c, "page"); err != nil {
		respondValidation(c, err)
		return
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		respondValidation(c, err)
		return
	}

	page, err := h.events.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page.ToEventListResponse())
}

// GetEvent handles retrieving a single event by ID
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	event, err := h.events.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event.ToEventResponse())
}

// CreateEvent handles event creation
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req model.CreateEventAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), req.ToCreateEventRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event.ToEventResponse())
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateEventAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), req.ToUpdateEventRequest(eventID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event.ToEventResponse())
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	event, err := h.events.DeleteEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event.ToEventResponse())
}

// queryInt returns 0 for an absent parameter so the service applies its
// default.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, &queryError{name: name, value: raw}
	}
	return v, nil
}

type queryError struct {
	name  string
	value string
}

func (e *queryError) Error() string {
	return "invalid " + e.name + " parameter: " + strconv.Quote(e.value)
}

// pathUUID reads a UUID path parameter, answering 400 itself when it is
// malformed.
func pathUUID(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + name + " format",
		})
		return "", false
	}
	return id.String(), true
}
