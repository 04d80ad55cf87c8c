// Package llm runs single-shot extraction prompts that answer in JSON.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/resilience"
	"github.com/sells-group/jobboard-cli/pkg/anthropic"
)

// JSONCompleter sends a prompt and decodes the model's JSON answer.
type JSONCompleter struct {
	client anthropic.Client
	model  string
	retry  resilience.RetryConfig
	meter  anthropic.Meter
}

// New creates a JSONCompleter. An empty model uses anthropic.DefaultModel.
func New(client anthropic.Client, model string) *JSONCompleter {
	if model == "" {
		model = anthropic.DefaultModel
	}
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = func(err error) bool {
		return anthropic.IsRetryable(err) || resilience.IsTransient(err)
	}
	retry.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	return &JSONCompleter{client: client, model: model, retry: retry}
}

// Model returns the model requests are sent to.
func (c *JSONCompleter) Model() string { return c.model }

// Complete asks the model and unmarshals the JSON object in its reply into out.
// Replies wrapped in code fences or prose are tolerated.
func (c *JSONCompleter) Complete(ctx context.Context, system, prompt string, maxTokens int64, out any) error {
	req := anthropic.Request{
		Model:     c.model,
		System:    system,
		Prompt:    prompt,
		MaxTokens: maxTokens,
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.Response, error) {
		return c.client.Complete(ctx, req)
	})
	if err != nil {
		return eris.Wrap(err, "llm: complete")
	}
	c.meter.Record(resp.Usage)

	if err := json.Unmarshal([]byte(CleanJSON(resp.Text)), out); err != nil {
		if resp.Truncated() {
			return eris.Wrapf(err, "llm: reply cut off at %d tokens", maxTokens)
		}
		zap.L().Debug("llm: unparseable reply", zap.String("reply", resp.Text))
		return eris.Wrap(err, "llm: decode reply")
	}
	return nil
}

// Usage returns the token usage and number of successful calls so far.
func (c *JSONCompleter) Usage() (anthropic.TokenUsage, int) {
	return c.meter.Total()
}

// LogCost logs accumulated usage for a pipeline stage.
func (c *JSONCompleter) LogCost(stage string) {
	c.meter.LogCost(c.model, stage)
}

// CleanJSON extracts a JSON object from text that may be wrapped in
// markdown code fences or surrounding prose.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
