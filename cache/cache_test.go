package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arunvm123/ticketbooking/cache"
	"github.com/arunvm123/ticketbooking/cache/memory"
	"github.com/arunvm123/ticketbooking/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "events:42", cache.EventKey("42"))
	assert.Equal(t, "events:all", cache.EventListTag(""))
	assert.Equal(t, "events:all:Food & Drink", cache.EventListTag(model.CategoryFoodAndDrink))
	assert.Equal(t, "events:all:page=2:limit=10", cache.EventListKey(model.EventFilter{Page: 2, Limit: 10}))
	assert.Equal(t, "events:all:Music:page=1:limit=20",
		cache.EventListKey(model.EventFilter{Category: model.CategoryMusic, Page: 1, Limit: 20}))
}

func TestInvalidateEvent(t *testing.T) {
	ctx := context.Background()
	c := memory.NewCache()

	all := model.EventFilter{Page: 1, Limit: 20}
	music := model.EventFilter{Category: model.CategoryMusic, Page: 1, Limit: 20}
	sports := model.EventFilter{Category: model.CategorySports, Page: 1, Limit: 20}

	require.NoError(t, c.Set(ctx, cache.EventKey("e1"), "event", time.Minute))
	require.NoError(t, c.Set(ctx, cache.EventKey("e2"), "other", time.Minute))
	require.NoError(t, c.Set(ctx, cache.EventListKey(all), "all", time.Minute, cache.EventListTag("")))
	require.NoError(t, c.Set(ctx, cache.EventListKey(music), "music", time.Minute, cache.EventListTag(model.CategoryMusic)))
	require.NoError(t, c.Set(ctx, cache.EventListKey(sports), "sports", time.Minute, cache.EventListTag(model.CategorySports)))

	require.NoError(t, cache.InvalidateEvent(ctx, c, "e1", model.CategoryMusic))

	var value string
	for _, key := range []string{cache.EventKey("e1"), cache.EventListKey(all), cache.EventListKey(music)} {
		found, err := c.Get(ctx, key, &value)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
	for _, key := range []string{cache.EventKey("e2"), cache.EventListKey(sports)} {
		found, err := c.Get(ctx, key, &value)
		require.NoError(t, err)
		assert.True(t, found, key)
	}
}

type failingCache struct {
	cache.Cache
}

func (failingCache) Delete(context.Context, ...string) error {
	return errors.New("delete failed")
}

func (failingCache) InvalidateTags(context.Context, ...string) error {
	return errors.New("tags failed")
}

func TestInvalidateEventReportsEveryFailure(t *testing.T) {
	err := cache.InvalidateEvent(context.Background(), failingCache{}, "e1", model.CategoryMusic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete failed")
	assert.Contains(t, err.Error(), "tags failed")
}
