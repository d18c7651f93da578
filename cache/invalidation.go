package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/arunvm123/ticketbooking/model"
)

// InvalidateEvent drops everything derived from one event: its own entry,
// the unfiltered listing and the listing of each given category. Pass both
// the old and new category when an update moves an event.
func InvalidateEvent(ctx context.Context, c Cache, eventID string, categories ...model.Category) error {
	var errs []error

	if eventID != "" {
		if err := c.Delete(ctx, EventKey(eventID)); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", EventKey(eventID), err))
		}
	}

	tags := []string{EventListTag("")}
	seen := make(map[model.Category]bool, len(categories))
	for _, category := range categories {
		if category == "" || seen[category] {
			continue
		}
		seen[category] = true
		tags = append(tags, EventListTag(category))
	}

	if err := c.InvalidateTags(ctx, tags...); err != nil {
		errs = append(errs, fmt.Errorf("failed to invalidate event listings: %w", err))
	}

	return errors.Join(errs...)
}
