// Package geocode resolves UK postcodes to coordinates with the postcodes.io
// bulk lookup API.
package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/jobboard-cli/internal/resilience"
)

const (
	// DefaultBaseURL is the public postcodes.io endpoint.
	DefaultBaseURL = "https://api.postcodes.io"
	// DefaultBatchSize is the largest batch the bulk endpoint accepts.
	DefaultBatchSize = 100
)

// Client geocodes postcodes.
type Client interface {
	// Lookup geocodes postcodes in batches. Failed batches are logged and
	// skipped; only cancellation returns an error.
	Lookup(ctx context.Context, postcodes []string) ([]Result, error)
}

// Result holds the geocoding output for one postcode.
type Result struct {
	Postcode  string
	Latitude  float64
	Longitude float64
	Matched   bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL points the client at another postcodes.io deployment.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for batch calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithBatchSize sets the number of postcodes per request (max 100).
func WithBatchSize(n int) Option {
	return func(g *geocoder) {
		if n > 0 && n <= DefaultBatchSize {
			g.batchSize = n
		}
	}
}

// WithRetry overrides the retry policy for batch calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *geocoder) {
		g.retry = cfg
	}
}

type geocoder struct {
	httpClient *http.Client
	baseURL    string
	batchSize  int
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewClient creates a postcodes.io Client with the given options.
func NewClient(opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("postcodes", "bulk_lookup")
	g := &geocoder{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    DefaultBaseURL,
		batchSize:  DefaultBatchSize,
		limiter:    rate.NewLimiter(10, 1),
		retry:      retry,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *geocoder) Lookup(ctx context.Context, postcodes []string) ([]Result, error) {
	log := zap.L().With(zap.String("component", "geocode"))

	var out []Result
	for start := 0; start < len(postcodes); start += g.batchSize {
		batch := postcodes[start:min(start+g.batchSize, len(postcodes))]
		res, err := g.lookupBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return out, eris.Wrap(ctx.Err(), "geocode: lookup cancelled")
			}
			log.Warn("batch failed, skipping",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}
		out = append(out, res...)
	}
	return out, nil
}

type bulkRequest struct {
	Postcodes []string `json:"postcodes"`
}

type bulkResponse struct {
	Status int `json:"status"`
	Result []struct {
		Query  string `json:"query"`
		Result *struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"result"`
	} `json:"result"`
}

func (g *geocoder) lookupBatch(ctx context.Context, batch []string) ([]Result, error) {
	body, err := json.Marshal(bulkRequest{Postcodes: batch})
	if err != nil {
		return nil, eris.Wrap(err, "geocode: marshal request")
	}

	parsed, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*bulkResponse, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "geocode: rate limit")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/postcodes", bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "geocode: build request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: bulk request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if err := resilience.CheckResponse("postcodes", resp); err != nil {
			return nil, err
		}
		var br bulkResponse
		if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
			return nil, eris.Wrap(err, "geocode: parse response")
		}
		return &br, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(parsed.Result))
	for _, item := range parsed.Result {
		r := Result{Postcode: item.Query}
		if item.Result != nil && item.Result.Latitude != nil && item.Result.Longitude != nil {
			r.Latitude = *item.Result.Latitude
			r.Longitude = *item.Result.Longitude
			r.Matched = true
		}
		out = append(out, r)
	}
	return out, nil
}
