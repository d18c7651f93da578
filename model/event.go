package model

import (
	"time"
)

// Category is the closed set of event categories.
type Category string

const (
	CategoryMusic                       Category = "Music"
	CategorySports                      Category = "Sports"
	CategoryConference                  Category = "Conference"
	CategoryFoodAndDrink                Category = "Food & Drink"
	CategoryArtsAndCulture              Category = "Arts & Culture"
	CategoryBusiness                    Category = "Business"
	CategoryHealthAndWellness           Category = "Health & Wellness"
	CategoryFilmAndMedia                Category = "Film & Media"
	CategoryCommunity                   Category = "Community"
	CategoryToursAndSightseeing         Category = "Tours & Sightseeing"
	CategoryTechnology                  Category = "Technology"
	CategoryCharityAndCauses            Category = "Charity & Causes"
	CategoryWorkshopsAndClasses         Category = "Workshops & Classes"
	CategoryHobbiesAndSkills            Category = "Hobbies & Skills"
	CategoryLiterature                  Category = "Literature"
	CategoryGaming                      Category = "Gaming"
	CategorySeasonal                    Category = "Seasonal"
	CategoryBusinessAndEntrepreneurship Category = "Business & Entrepreneurship"
	CategorySportsAndFitness            Category = "Sports & Fitness"
	CategoryHolidayAndCelebration       Category = "Holiday & Celebration"
)

var categories = []Category{
	CategoryMusic, CategorySports, CategoryConference, CategoryFoodAndDrink,
	CategoryArtsAndCulture, CategoryBusiness, CategoryHealthAndWellness,
	CategoryFilmAndMedia, CategoryCommunity, CategoryToursAndSightseeing,
	CategoryTechnology, CategoryCharityAndCauses, CategoryWorkshopsAndClasses,
	CategoryHobbiesAndSkills, CategoryLiterature, CategoryGaming, CategorySeasonal,
	CategoryBusinessAndEntrepreneurship, CategorySportsAndFitness,
	CategoryHolidayAndCelebration,
}

// Categories returns every valid category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ===============================
// Database Entities (Internal)
// ===============================

// Event is owned by the inventory store. AvailableTickets only moves inside a
// booking transaction or an atomic capacity update.
type Event struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(255);not null" json:"name"`
	Description      string    `gorm:"type:text;not null" json:"description"`
	Category         Category  `gorm:"type:varchar(64);not null;index" json:"category"`
	Date             time.Time `gorm:"not null;index" json:"date"`
	Venue            string    `gorm:"type:varchar(255);not null" json:"venue"`
	Price            int       `gorm:"not null;default:0" json:"price"`
	Image            string    `gorm:"type:text" json:"image"`
	TotalCapacity    int       `gorm:"not null;check:chk_events_total_capacity,total_capacity >= 0" json:"totalCapacity"`
	AvailableTickets int       `gorm:"not null;check:chk_events_available_tickets,available_tickets >= 0 AND available_tickets <= total_capacity" json:"availableTickets"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ToEventResponse converts database Event to API response
func (e *Event) ToEventResponse() *EventResponse {
	return &EventResponse{
		ID:               e.ID,
		Name:             e.Name,
		Description:      e.Description,
		Category:         e.Category,
		Date:             e.Date,
		Venue:            e.Venue,
		Price:            e.Price,
		Image:            e.Image,
		TotalCapacity:    e.TotalCapacity,
		AvailableTickets: e.AvailableTickets,
		SoldOut:          e.AvailableTickets <= 0,
	}
}

// ===============================
// Repository DTOs (Internal)
// ===============================

// CreateEventRequest represents input for creating an event in repository layer
type CreateEventRequest struct {
	ID            string
	Name          string
	Description   string
	Category      Category
	Date          time.Time
	Venue         string
	Price         int
	Image         string
	TotalCapacity int
}

// UpdateEventRequest replaces every mutable field of an event. A change of
// TotalCapacity shifts AvailableTickets by the same delta.
type UpdateEventRequest struct {
	ID            string
	Name          string
	Description   string
	Category      Category
	Date          time.Time
	Venue         string
	Price         int
	Image         string
	TotalCapacity int
}

// EventFilter represents filtering options for repository layer
type EventFilter struct {
	Category Category
	Page     int
	Limit    int
}

func (f EventFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// EventPage is one page of a filtered listing, cached as a unit.
type EventPage struct {
	Events []Event `json:"events"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// ===============================
// API DTOs (External)
// ===============================

// CreateEventAPIRequest represents the API request for creating an event
type CreateEventAPIRequest struct {
	Name          string    `json:"name" binding:"required,max=255"`
	Description   string    `json:"description" binding:"required"`
	Category      Category  `json:"category" binding:"required"`
	Date          time.Time `json:"date" binding:"required"`
	Venue         string    `json:"venue" binding:"required,max=255"`
	Price         int       `json:"price" binding:"min=0"`
	Image         string    `json:"image"`
	TotalCapacity int       `json:"totalCapacity" binding:"min=0"`
}

func (r *CreateEventAPIRequest) ToCreateEventRequest() CreateEventRequest {
	return CreateEventRequest{
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		Date:          r.Date,
		Venue:         r.Venue,
		Price:         r.Price,
		Image:         r.Image,
		TotalCapacity: r.TotalCapacity,
	}
}

// UpdateEventAPIRequest represents the API request for updating an event
type UpdateEventAPIRequest struct {
	CreateEventAPIRequest
}

func (r *UpdateEventAPIRequest) ToUpdateEventRequest(eventID string) UpdateEventRequest {
	return UpdateEventRequest{
		ID:            eventID,
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		Date:          r.Date,
		Venue:         r.Venue,
		Price:         r.Price,
		Image:         r.Image,
		TotalCapacity: r.TotalCapacity,
	}
}

// EventResponse represents event data in API responses
type EventResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Category         Category  `json:"category"`
	Date             time.Time `json:"date"`
	Venue            string    `json:"venue"`
	Price            int       `json:"price"`
	Image            string    `json:"image"`
	TotalCapacity    int       `json:"totalCapacity"`
	AvailableTickets int       `json:"availableTickets"`
	SoldOut          bool      `json:"soldOut"`
}

// EventListResponse represents a page of events in API responses
type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Meta   PageMeta        `json:"meta"`
}

// PageMeta describes where a page sits in the full listing
type PageMeta struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
}

// ToEventListResponse converts a cached page to its API shape
func (p *EventPage) ToEventListResponse() *EventListResponse {
	events := make([]EventResponse, 0, len(p.Events))
	for i := range p.Events {
		events = append(events, *p.Events[i].ToEventResponse())
	}

	totalPages := 0
	if p.Limit > 0 {
		totalPages = int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
	}

	return &EventListResponse{
		Events: events,
		Meta: PageMeta{
			Total:       p.Total,
			Page:        p.Page,
			Limit:       p.Limit,
			TotalPages:  totalPages,
			HasNextPage: p.Page < totalPages,
		},
	}
}
