package anthropic

import (
	"sync"

	"go.uber.org/zap"
)

// TokenUsage counts the tokens billed for one or more calls.
type TokenUsage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
}

// price is USD per million tokens.
type price struct{ input, output float64 }

var prices = map[string]price{
	"claude-haiku-4-5-20251001":  {1.00, 5.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"claude-3-5-haiku-20241022":  {0.80, 4.00},
}

// Cache writes bill at 1.25x the input rate and reads at 0.1x.
const (
	cacheWriteRate = 1.25
	cacheReadRate  = 0.1
)

// Add returns the sum of two usages.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:      u.InputTokens + o.InputTokens,
		OutputTokens:     u.OutputTokens + o.OutputTokens,
		CacheWriteTokens: u.CacheWriteTokens + o.CacheWriteTokens,
		CacheReadTokens:  u.CacheReadTokens + o.CacheReadTokens,
	}
}

// EstimateCost returns the USD cost of u on model, or 0 for a model
// without a known price.
func (u TokenUsage) EstimateCost(model string) float64 {
	p, ok := prices[model]
	if !ok {
		return 0
	}
	input := float64(u.InputTokens) + cacheWriteRate*float64(u.CacheWriteTokens) + cacheReadRate*float64(u.CacheReadTokens)
	return (input*p.input + float64(u.OutputTokens)*p.output) / 1e6
}

// Meter accumulates usage across concurrent calls.
type Meter struct {
	mu    sync.Mutex
	usage TokenUsage
	calls int
}

// Record adds one call's usage.
func (m *Meter) Record(u TokenUsage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = m.usage.Add(u)
	m.calls++
}

// Total returns the accumulated usage and call count.
func (m *Meter) Total() (TokenUsage, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage, m.calls
}

// LogCost logs the metered usage and its estimated cost for a stage.
func (m *Meter) LogCost(model, stage string) {
	u, calls := m.Total()
	zap.L().Info("llm usage",
		zap.String("model", model),
		zap.String("stage", stage),
		zap.Int("calls", calls),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheWriteTokens),
		zap.Int64("cache_read_tokens", u.CacheReadTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}
