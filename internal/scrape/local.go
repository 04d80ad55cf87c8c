package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/jobboard-cli/internal/resilience"
)

// DefaultUserAgent mimics a desktop browser; many small company sites
// refuse obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Options configures a LocalScraper.
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	RequestsPerSec float64
	MaxBodyBytes   int64
	Retry          resilience.RetryConfig
}

// DefaultOptions returns the crawl defaults: 12s timeout, two requests per
// second across all sites and a single retry on transient failures.
func DefaultOptions() Options {
	return Options{
		UserAgent:      DefaultUserAgent,
		Timeout:        12 * time.Second,
		RequestsPerSec: 2,
		MaxBodyBytes:   2 << 20,
		Retry:          resilience.CrawlRetryConfig(),
	}
}

// LocalScraper fetches HTML over net/http and parses it in-process.
type LocalScraper struct {
	client  *http.Client
	opts    Options
	limiter *AdaptiveLimiter
	log     *zap.Logger
}

// NewLocalScraper creates a LocalScraper. Zero option fields take defaults.
func NewLocalScraper(opts Options) *LocalScraper {
	def := DefaultOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = def.RequestsPerSec
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = def.MaxBodyBytes
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = def.Retry
	}
	opts.Retry.OnRetry = resilience.RetryLogger("scrape", "fetch")

	return &LocalScraper{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: opts.Timeout,
				}).DialContext,
				TLSHandshakeTimeout: opts.Timeout,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		opts:    opts,
		limiter: NewAdaptiveLimiter(rate.Limit(opts.RequestsPerSec), 1),
		log:     zap.L().With(zap.String("component", "scrape")),
	}
}

// Scrape fetches targetURL, retrying transient failures, and parses it.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Page, error) {
	return resilience.DoVal(ctx, l.opts.Retry, func(ctx context.Context) (*Page, error) {
		return l.fetch(ctx, targetURL)
	})
}

func (l *LocalScraper) fetch(ctx context.Context, targetURL string) (*Page, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "scrape: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", l.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: fetch %s", targetURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		l.limiter.OnRateLimit()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.opts.MaxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: read body")
	}

	page, err := parsePage(resp.Request.URL, decodeBody(body, resp.Header.Get("Content-Type")))
	if err != nil {
		return nil, err
	}
	page.StatusCode = resp.StatusCode

	if bt := DetectBlock(resp, page.Text); bt != BlockNone {
		return nil, eris.Errorf("scrape: blocked (%s) at %s", bt, targetURL)
	}
	if err := resilience.CheckResponse("scrape", resp); err != nil {
		return nil, err
	}
	if page.Text == "" {
		return nil, eris.Errorf("scrape: empty page at %s", targetURL)
	}

	l.limiter.OnSuccess()
	l.log.Debug("fetched page",
		zap.String("url", page.URL),
		zap.Int("chars", len(page.Text)),
		zap.Int("links", len(page.Links)),
	)
	return page, nil
}
