package llm

import (
	"testing"
	"time"

	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestExtractionCache(t *testing.T) {
	clock := time.Unix(1000, 0)
	cache := newExtractionCache(time.Minute)
	cache.now = func() time.Time { return clock }

	_, found := cache.get("missing")
	assert.False(t, found)

	want := model.Extraction{Company: "Acme", Role: "Engineer"}
	cache.set("m1", want)
	got, found := cache.get("m1")
	assert.True(t, found)
	assert.Equal(t, want, got)

	cache.set("", want)
	assert.Equal(t, 1, cache.size())

	clock = clock.Add(2 * time.Minute)
	_, found = cache.get("m1")
	assert.False(t, found)

	cache.set("m2", want)
	assert.Equal(t, 1, cache.size(), "expired entries are evicted on write")
}
