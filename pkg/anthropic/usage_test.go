package anthropic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost(t *testing.T) {
	million := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 6.00, million.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
	assert.InDelta(t, 18.00, million.EstimateCost("claude-sonnet-4-5-20250929"), 0.001)
	assert.Equal(t, 0.0, million.EstimateCost("unknown-model"))
}

func TestEstimateCost_Cache(t *testing.T) {
	u := TokenUsage{CacheWriteTokens: 1_000_000, CacheReadTokens: 1_000_000}
	// 1.00 * 1.25 + 1.00 * 0.1
	assert.InDelta(t, 1.35, u.EstimateCost(DefaultModel), 0.001)
}

func TestTokenUsage_Add(t *testing.T) {
	got := TokenUsage{InputTokens: 1, OutputTokens: 2, CacheWriteTokens: 3, CacheReadTokens: 4}.
		Add(TokenUsage{InputTokens: 10, OutputTokens: 20, CacheWriteTokens: 30, CacheReadTokens: 40})
	assert.Equal(t, TokenUsage{InputTokens: 11, OutputTokens: 22, CacheWriteTokens: 33, CacheReadTokens: 44}, got)
}

func TestMeter_ConcurrentRecord(t *testing.T) {
	var m Meter
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(TokenUsage{InputTokens: 100, OutputTokens: 10})
		}()
	}
	wg.Wait()

	total, calls := m.Total()
	assert.Equal(t, 10, calls)
	assert.Equal(t, int64(1000), total.InputTokens)
	assert.Equal(t, int64(100), total.OutputTokens)
	assert.NotPanics(t, func() { m.LogCost(DefaultModel, "careers") })
}

func TestResponse_Truncated(t *testing.T) {
	assert.True(t, (&Response{StopReason: "max_tokens"}).Truncated())
	assert.False(t, (&Response{StopReason: "end_turn"}).Truncated())
	var nilResp *Response
	assert.False(t, nilResp.Truncated())
}
