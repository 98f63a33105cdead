package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to capacity", func(t *testing.T) {
		rl := newRateLimiter(10)
		clock := time.Unix(0, 0)
		rl.now = func() time.Time { return clock }
		rl.lastRefill = clock

		for i := 0; i < 10; i++ {
			assert.Zero(t, rl.reserve())
		}
		assert.InDelta(t, float64(6*time.Second), float64(rl.reserve()), float64(time.Millisecond))

		clock = clock.Add(7 * time.Second)
		assert.Zero(t, rl.reserve())
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() { done <- rl.wait(ctx) }()

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("wait did not observe cancellation")
		}
	})

	t.Run("defaults when non-positive", func(t *testing.T) {
		assert.InDelta(t, 30, newRateLimiter(0).capacity, 1e-9)
	})
}
