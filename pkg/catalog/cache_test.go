package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, 13)
	assert.False(t, ok)

	want := GameDetails{ID: 13, Name: "Catan", YearPublished: "1995"}
	c.Set(ctx, 13, want)

	got, ok := c.Get(ctx, 13)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = c.Get(ctx, 14)
	assert.False(t, ok, "ids must not collide")
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10 * time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, 13, GameDetails{ID: 13})
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(ctx, 13)
	assert.False(t, ok)
}
