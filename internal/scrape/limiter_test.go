package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveLimiter_OnSuccess_IncreasesRate(t *testing.T) {
	lim := NewAdaptiveLimiter(2, 1)

	lim.OnSuccess()
	assert.InDelta(t, 2.4, float64(lim.Limit()), 0.01)

	lim.OnSuccess()
	assert.InDelta(t, 2.88, float64(lim.Limit()), 0.01)
}

func TestAdaptiveLimiter_Bounds(t *testing.T) {
	lim := NewAdaptiveLimiter(2, 1)
	for range 20 {
		lim.OnSuccess()
	}
	assert.InDelta(t, 4.0, float64(lim.Limit()), 0.01)

	for range 10 {
		lim.OnRateLimit()
	}
	assert.InDelta(t, 0.5, float64(lim.Limit()), 0.01)
}

func TestAdaptiveLimiter_Wait_ContextCancelled(t *testing.T) {
	lim := NewAdaptiveLimiter(0.001, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, lim.Wait(ctx))
}
