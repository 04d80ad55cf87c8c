// Package careers finds each company's careers page and extracts its open
// roles with an LLM.
package careers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/model"
	"github.com/sells-group/jobboard-cli/internal/scrape"
)

// Stage is the ledger stage name for careers results.
const Stage = "careers"

const unreachableSummary = "Could not reach website"

// Extractor answers a prompt with a decoded JSON object.
type Extractor interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int64, out any) error
}

// Config tunes the careers crawl.
type Config struct {
	MaxPageChars int
	MaxLinks     int
	MaxTokens    int64
	Concurrency  int
}

// DefaultConfig returns the crawl defaults.
func DefaultConfig() Config {
	return Config{
		MaxPageChars: 12000,
		MaxLinks:     5,
		MaxTokens:    800,
		Concurrency:  4,
	}
}

// Finder crawls company sites for careers information.
type Finder struct {
	scraper   scrape.Scraper
	extractor Extractor
	cfg       Config
	log       *zap.Logger
}

// NewFinder creates a Finder. Zero config fields take defaults.
func NewFinder(scraper scrape.Scraper, extractor Extractor, cfg Config) *Finder {
	def := DefaultConfig()
	if cfg.MaxPageChars <= 0 {
		cfg.MaxPageChars = def.MaxPageChars
	}
	if cfg.MaxLinks <= 0 {
		cfg.MaxLinks = def.MaxLinks
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Finder{
		scraper:   scraper,
		extractor: extractor,
		cfg:       cfg,
		log:       zap.L().With(zap.String("component", "careers")),
	}
}

// Find crawls one company. Fetch and extraction failures are reported on
// the result; only cancellation returns an error.
func (f *Finder) Find(ctx context.Context, rec model.MasterRecord) (model.CareersResult, error) {
	siteURL := scrape.NormalizeURL(rec.URL)
	res := model.CareersResult{
		CompanyName: rec.Name,
		CompanyURL:  siteURL,
		Roles:       []model.Role{},
	}
	log := f.log.With(zap.String("company", rec.Name), zap.String("url", siteURL))

	home, err := f.scraper.Scrape(ctx, siteURL)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		log.Info("homepage unreachable", zap.Error(err))
		res.ScrapeStatus = model.ScrapeStatusHomepageError
		res.Summary = unreachableSummary
		res.Error = err.Error()
		return res, nil
	}

	links := scrape.FindCareersLinks(home, f.cfg.MaxLinks)
	text := home.Text
	res.ScrapeStatus = model.ScrapeStatusHomepageOnly
	for _, link := range links {
		page, err := f.scraper.Scrape(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Debug("careers link failed", zap.String("link", link), zap.Error(err))
			continue
		}
		if page.ContentText == "" {
			continue
		}
		res.CareersURL = link
		res.ScrapeStatus = model.ScrapeStatusCareersFound
		text = page.ContentText
		break
	}
	if res.CareersURL == "" && len(links) > 0 {
		log.Debug("careers links found but none could be fetched", zap.Int("links", len(links)))
	}

	source := siteURL
	if res.CareersURL != "" {
		source = res.CareersURL
	}

	var ext extraction
	prompt := buildPrompt(rec.Name, source, scrape.Truncate(text, f.cfg.MaxPageChars))
	if err := f.extractor.Complete(ctx, systemPrompt, prompt, f.cfg.MaxTokens, &ext); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		log.Warn("careers extraction failed", zap.Error(err))
		res.Error = err.Error()
		return res, nil
	}

	ext.apply(&res)
	log.Info("careers extracted",
		zap.String("status", string(res.ScrapeStatus)),
		zap.Int("roles", len(res.Roles)),
		zap.Bool("has_careers_page", res.HasCareersPage),
	)
	return res, nil
}

// extraction is the JSON shape the model is asked to return.
type extraction struct {
	HasCareersPage bool         `json:"has_careers_page"`
	Roles          []model.Role `json:"roles"`
	ContactEmail   string       `json:"contact_email"`
	ApplyURL       string       `json:"apply_url"`
	Summary        string       `json:"summary"`
}

func (e extraction) apply(res *model.CareersResult) {
	res.HasCareersPage = e.HasCareersPage
	res.ContactEmail = strings.TrimSpace(e.ContactEmail)
	res.ApplyURL = strings.TrimSpace(e.ApplyURL)
	res.Summary = strings.TrimSpace(e.Summary)
	for _, r := range e.Roles {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			continue
		}
		r.Type = normalizeRoleType(r.Type)
		res.Roles = append(res.Roles, r)
	}
}

var roleTypes = map[string]bool{
	"full-time": true,
	"part-time": true,
	"contract":  true,
}

func normalizeRoleType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.ReplaceAll(t, " ", "-")
	if roleTypes[t] {
		return t
	}
	return "unknown"
}

const systemPrompt = "You read company websites and report job opportunities. Answer with a single JSON object and nothing else."

func buildPrompt(company, pageURL, text string) string {
	return fmt.Sprintf(`Company: %s
Page URL: %s

Page text (may be truncated):
---
%s
---

Return a JSON object with these fields, using null where the page says nothing:
{
  "has_careers_page": true or false, whether the page contains job or careers information,
  "roles": [{"title": "...", "type": "full-time|part-time|contract|unknown", "location": "...", "url": "..."}],
  "contact_email": "address for job applications",
  "apply_url": "direct link to apply or to the applicant tracking system",
  "summary": "one sentence describing the opportunities"
}
Use an empty roles list when no open roles are listed.`, company, pageURL, text)
}
