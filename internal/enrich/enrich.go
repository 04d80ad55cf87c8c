// Package enrich describes each company with an LLM, using its homepage,
// registry details and careers summary as context.
package enrich

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/model"
	"github.com/sells-group/jobboard-cli/internal/scrape"
)

// Stage is the ledger stage name for enrichment results.
const Stage = "enrich"

// SectorTags is the fixed vocabulary sector_tags are chosen from.
var SectorTags = []string{
	"biotech", "pharma", "medtech", "diagnostics", "genomics",
	"AI/ML", "deep learning", "computer vision", "NLP",
	"SaaS", "developer tools", "fintech", "edtech", "cleantech", "climate",
	"quantum computing", "photonics", "semiconductors", "hardware", "robotics",
	"cybersecurity", "data analytics", "IoT", "space", "defence",
	"agritech", "foodtech", "healthtech", "drug discovery",
	"software", "consulting", "research",
}

// MaxSectorTags caps how many tags a company keeps.
const MaxSectorTags = 4

var (
	stages        = []string{"startup", "scaleup", "established", "unknown"}
	employeeBands = []string{"1-10", "11-50", "51-200", "200-1000", "1000+", "unknown"}
	hiringStates  = []string{"actively_hiring", "possibly_hiring", "no_info"}
)

// Extractor answers a prompt with a decoded JSON object.
type Extractor interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int64, out any) error
}

// Config tunes enrichment.
type Config struct {
	MaxPageChars int
	MaxTokens    int64
	Concurrency  int
}

// DefaultConfig returns the enrichment defaults.
func DefaultConfig() Config {
	return Config{MaxPageChars: 8000, MaxTokens: 500, Concurrency: 3}
}

// Enricher generates descriptive metadata for master records.
type Enricher struct {
	scraper   scrape.Scraper
	extractor Extractor
	cfg       Config
	// careers maps company name to its careers summary.
	careers map[string]string
	now     func() time.Time
	log     *zap.Logger
}

// NewEnricher creates an Enricher. careersSummaries may be nil.
func NewEnricher(scraper scrape.Scraper, extractor Extractor, cfg Config, careersSummaries map[string]string) *Enricher {
	def := DefaultConfig()
	if cfg.MaxPageChars <= 0 {
		cfg.MaxPageChars = def.MaxPageChars
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Enricher{
		scraper:   scraper,
		extractor: extractor,
		cfg:       cfg,
		careers:   careersSummaries,
		now:       time.Now,
		log:       zap.L().With(zap.String("component", "enrich")),
	}
}

// Enrich builds an enrichment for one record. A failed homepage fetch just
// narrows the context; an LLM failure is reported in the Error field. Only
// cancellation returns an error.
func (e *Enricher) Enrich(ctx context.Context, rec model.MasterRecord) (model.Enrichment, error) {
	log := e.log.With(zap.String("company", rec.Name))

	in := promptInput{
		Name:           rec.Name,
		Incorporated:   rec.RegistryValue("incorporated"),
		CareersSummary: e.careers[rec.Name],
	}
	if rec.Registry != nil {
		in.ClassificationCode = rec.Registry.ClassificationCode
	}
	if rec.HasIdentifyingURL {
		in.URL = scrape.NormalizeURL(rec.URL)
		page, err := e.scraper.Scrape(ctx, in.URL)
		switch {
		case err != nil && ctx.Err() != nil:
			return model.Enrichment{}, ctx.Err()
		case err != nil:
			log.Info("homepage fetch failed, enriching without it", zap.Error(err))
		default:
			in.Homepage = scrape.Truncate(page.ContentText, e.cfg.MaxPageChars)
		}
	}

	var out model.Enrichment
	if err := e.extractor.Complete(ctx, systemPrompt, buildPrompt(in), e.cfg.MaxTokens, &out); err != nil {
		if ctx.Err() != nil {
			return model.Enrichment{}, ctx.Err()
		}
		log.Warn("enrichment failed", zap.Error(err))
		return model.Enrichment{SectorTags: []string{}, Error: err.Error()}, nil
	}

	out = e.normalize(out)
	log.Debug("enriched",
		zap.String("stage", out.Stage),
		zap.Strings("sector_tags", out.SectorTags),
	)
	return out, nil
}

// normalize constrains model output to the allowed vocabularies.
func (e *Enricher) normalize(in model.Enrichment) model.Enrichment {
	out := in
	out.Error = ""
	out.Description = strings.TrimSpace(in.Description)
	out.TechKeywords = strings.TrimSpace(in.TechKeywords)
	out.HQCity = strings.TrimSpace(in.HQCity)
	out.Stage = pick(stages, in.Stage, "unknown")
	out.EmployeeEst = pick(employeeBands, in.EmployeeEst, "unknown")
	out.HiringStatus = pick(hiringStates, in.HiringStatus, "no_info")

	out.SectorTags = []string{}
	for _, tag := range in.SectorTags {
		canonical := pick(SectorTags, tag, "")
		if canonical == "" || slices.Contains(out.SectorTags, canonical) {
			continue
		}
		out.SectorTags = append(out.SectorTags, canonical)
		if len(out.SectorTags) == MaxSectorTags {
			break
		}
	}

	if in.FoundedYear != nil && (*in.FoundedYear < 1800 || *in.FoundedYear > e.now().Year()) {
		out.FoundedYear = nil
	}
	return out
}

// pick returns the allowed value equal to v ignoring case, or fallback.
func pick(allowed []string, v, fallback string) string {
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return a
		}
	}
	return fallback
}

type promptInput struct {
	Name               string
	URL                string
	ClassificationCode string
	Incorporated       string
	CareersSummary     string
	Homepage           string
}

const systemPrompt = "You build profiles of technology companies for a regional job board. Answer with a single JSON object and nothing else."

func buildPrompt(in promptInput) string {
	var parts []string
	if in.URL != "" {
		parts = append(parts, "Website: "+in.URL)
	}
	if in.ClassificationCode != "" {
		parts = append(parts, "Registry SIC code: "+in.ClassificationCode)
	}
	if in.Incorporated != "" {
		parts = append(parts, "Incorporated: "+in.Incorporated)
	}
	if in.CareersSummary != "" {
		parts = append(parts, "Careers page summary: "+in.CareersSummary)
	}
	if in.Homepage != "" {
		parts = append(parts, "\nHomepage text (may be truncated):\n---\n"+in.Homepage+"\n---")
	}
	known := "(no additional context)"
	if len(parts) > 0 {
		known = strings.Join(parts, "\n")
	}

	return fmt.Sprintf(`Company name: %s

Context:
%s

Using the context (and what you know if it is sparse), return a JSON object:
{
  "description": "two or three plain sentences on what the company does and its main product",
  "sector_tags": ["1 to 4 tags chosen from: %s"],
  "stage": "%s",
  "tech_keywords": "comma-separated key technologies",
  "employee_est": "%s",
  "hiring_status": "%s",
  "founded_year": 2015 or null,
  "hq_city": "primary headquarters city, or null if unclear"
}`,
		in.Name, known,
		strings.Join(SectorTags, " | "),
		strings.Join(stages, "|"),
		strings.Join(employeeBands, "|"),
		strings.Join(hiringStates, "|"),
	)
}
