package cache

import (
	"fmt"

	"github.com/arunvm123/ticketbooking/model"
)

// Key layout:
//
//	events:<id>                               single event
//	events:all:page=<p>:limit=<l>             unfiltered listing page, tag events:all
//	events:all:<category>:page=<p>:limit=<l>  category listing page, tag events:all:<category>
const (
	eventsNamespace = "events"
	allEvents       = eventsNamespace + ":all"
)

func EventKey(eventID string) string {
	return eventsNamespace + ":" + eventID
}

// EventListTag is the tag shared by every cached page of one listing. An
// empty category names the unfiltered listing.
func EventListTag(category model.Category) string {
	if category == "" {
		return allEvents
	}
	return allEvents + ":" + string(category)
}

func EventListKey(filter model.EventFilter) string {
	return fmt.Sprintf("%s:page=%d:limit=%d", EventListTag(filter.Category), filter.Page, filter.Limit)
}
