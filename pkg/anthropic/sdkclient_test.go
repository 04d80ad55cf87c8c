package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) Client {
	return NewClient("test-key", option.WithBaseURL(baseURL), option.WithMaxRetries(0))
}

func writeMessage(w http.ResponseWriter, id, text, stop string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"id":   id,
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
			{"type": "text", "text": "trailer"},
		},
		"model":       DefaultModel,
		"stop_reason": stop,
		"usage": map[string]any{
			"input_tokens":                10,
			"output_tokens":               5,
			"cache_creation_input_tokens": 0,
			"cache_read_input_tokens":     0,
		},
	})
}

func TestSDKClient_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")
		writeMessage(w, "msg_test_001", "Hello from test", "end_turn")
	}))
	defer ts.Close()

	resp, err := newTestClient(ts.URL).Complete(context.Background(), Request{
		Model:     DefaultModel,
		MaxTokens: 1024,
		Prompt:    "Hello",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, DefaultModel, resp.Model)
	assert.False(t, resp.Truncated())
	assert.Equal(t, "Hello from test\ntrailer", resp.Text)
	assert.Equal(t, int64(10), resp.Usage.InputTokens)
	assert.Equal(t, int64(5), resp.Usage.OutputTokens)
}

func TestSDKClient_Complete_Truncated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, "msg_long", `{"roles": [`, "max_tokens")
	}))
	defer ts.Close()

	resp, err := newTestClient(ts.URL).Complete(context.Background(), Request{Model: DefaultModel, MaxTokens: 5, Prompt: "list"})
	require.NoError(t, err)
	assert.True(t, resp.Truncated())
}

func TestSDKClient_Complete_SendsSystemAndTemperature(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeMessage(w, "msg_sys", "{}", "end_turn")
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).Complete(context.Background(), Request{
		Model:     DefaultModel,
		MaxTokens: 800,
		System:    "Extract job listings.",
		Prompt:    "page text",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(800), body["max_tokens"])
	assert.Equal(t, float64(0), body["temperature"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "Extract job listings.", system[0].(map[string]any)["text"])
}

func TestSDKClient_Complete_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"type": "error",
			"error": map[string]any{
				"type":    "invalid_request_error",
				"message": "bad request",
			},
		})
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).Complete(context.Background(), Request{
		Model:     DefaultModel,
		MaxTokens: 1024,
		Prompt:    "Hello",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
}

func TestIsRetryable(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusTooManyRequests)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer ts.Close()

	req := Request{Model: DefaultModel, MaxTokens: 10, Prompt: "hi"}

	_, err := newTestClient(ts.URL).Complete(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))

	status.Store(529)
	_, err = newTestClient(ts.URL).Complete(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))

	status.Store(http.StatusBadRequest)
	_, err = newTestClient(ts.URL).Complete(context.Background(), req)
	require.Error(t, err)
	assert.False(t, IsRetryable(err))

	assert.False(t, IsRetryable(assert.AnError))
}
