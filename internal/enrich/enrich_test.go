package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobboard-cli/internal/corpus"
	"github.com/sells-group/jobboard-cli/internal/model"
	"github.com/sells-group/jobboard-cli/internal/scrape"
	"github.com/sells-group/jobboard-cli/internal/store"
)

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Scrape(ctx context.Context, url string) (*scrape.Page, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scrape.Page), args.Error(1)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Complete(ctx context.Context, system, prompt string, maxTokens int64, out any) error {
	args := m.Called(ctx, system, prompt, maxTokens, out)
	return args.Error(0)
}

func answers(e model.Enrichment) func(mock.Arguments) {
	return func(args mock.Arguments) {
		*args.Get(4).(*model.Enrichment) = e
	}
}

func intPtr(v int) *int { return &v }

func hubRecord() model.MasterRecord {
	return model.MasterRecord{
		Name:              "Acme Robotics",
		URL:               "acme.example",
		Source:            model.ProvenanceHub,
		HasIdentifyingURL: true,
		RegistryValidated: true,
		Registry: &model.RegistryFields{
			Name:               "ACME ROBOTICS LIMITED",
			RegistrationID:     "00000001",
			Status:             "Active",
			ClassificationCode: "72190",
			Address:            map[string]string{"incorporated": "2016-03-01", "postcode": "CB1 1AA"},
		},
	}
}

func newTestEnricher(sc *mockScraper, ex *mockExtractor, careers map[string]string) *Enricher {
	e := NewEnricher(sc, ex, Config{}, careers)
	e.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestEnrich_BuildsContextAndNormalizes(t *testing.T) {
	sc := &mockScraper{}
	sc.On("Scrape", mock.Anything, "https://acme.example").
		Return(&scrape.Page{Text: "nav Acme builds lab robots.", ContentText: "Acme builds lab robots."}, nil)

	ex := &mockExtractor{}
	ex.On("Complete", mock.Anything, systemPrompt,
		mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "Company name: Acme Robotics") &&
				strings.Contains(p, "Website: https://acme.example") &&
				strings.Contains(p, "Registry SIC code: 72190") &&
				strings.Contains(p, "Incorporated: 2016-03-01") &&
				strings.Contains(p, "Careers page summary: Hiring engineers.") &&
				strings.Contains(p, "---\nAcme builds lab robots.\n---") &&
				!strings.Contains(p, "nav Acme")
		}),
		int64(500), mock.Anything,
	).Run(answers(model.Enrichment{
		Description:  " Builds lab robots. ",
		SectorTags:   []string{"Robotics", "hardware", "robotics", "blockchain", "AI/ML", "IoT", "space"},
		Stage:        "Scaleup",
		EmployeeEst:  "11-50",
		HiringStatus: "hiring lots",
		FoundedYear:  intPtr(2016),
		HQCity:       "Cambridge",
	})).Return(nil)

	got, err := newTestEnricher(sc, ex, map[string]string{"Acme Robotics": "Hiring engineers."}).
		Enrich(context.Background(), hubRecord())
	require.NoError(t, err)

	assert.Equal(t, "Builds lab robots.", got.Description)
	assert.Equal(t, []string{"robotics", "hardware", "AI/ML", "IoT"}, got.SectorTags)
	assert.Equal(t, "scaleup", got.Stage)
	assert.Equal(t, "11-50", got.EmployeeEst)
	assert.Equal(t, "no_info", got.HiringStatus)
	require.NotNil(t, got.FoundedYear)
	assert.Equal(t, 2016, *got.FoundedYear)
	assert.Empty(t, got.Error)
	ex.AssertExpectations(t)
}

func TestEnrich_NoURLSkipsFetch(t *testing.T) {
	rec := model.MasterRecord{Name: "Registry Only Ltd", Source: model.ProvenanceRegistry}
	sc := &mockScraper{}
	ex := &mockExtractor{}
	ex.On("Complete", mock.Anything, mock.Anything,
		mock.MatchedBy(func(p string) bool { return strings.Contains(p, "(no additional context)") }),
		mock.Anything, mock.Anything,
	).Run(answers(model.Enrichment{Stage: "established", FoundedYear: intPtr(1066)})).Return(nil)

	got, err := newTestEnricher(sc, ex, nil).Enrich(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "established", got.Stage)
	assert.Nil(t, got.FoundedYear)
	assert.Equal(t, []string{}, got.SectorTags)
	sc.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything)
}

func TestEnrich_FetchFailureStillEnriches(t *testing.T) {
	sc := &mockScraper{}
	sc.On("Scrape", mock.Anything, mock.Anything).Return(nil, errors.New("scrape: blocked (captcha)"))
	ex := &mockExtractor{}
	ex.On("Complete", mock.Anything, mock.Anything,
		mock.MatchedBy(func(p string) bool { return !strings.Contains(p, "Homepage text") }),
		mock.Anything, mock.Anything,
	).Run(answers(model.Enrichment{Stage: "startup"})).Return(nil)

	got, err := newTestEnricher(sc, ex, nil).Enrich(context.Background(), hubRecord())
	require.NoError(t, err)
	assert.Equal(t, "startup", got.Stage)
}

func TestEnrich_LLMErrorRecorded(t *testing.T) {
	rec := model.MasterRecord{Name: "Registry Only Ltd"}
	ex := &mockExtractor{}
	ex.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("llm: complete: overloaded"))

	got, err := newTestEnricher(&mockScraper{}, ex, nil).Enrich(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "llm: complete: overloaded", got.Error)
	assert.Empty(t, got.Description)
}

func TestRunJoinWrite(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	records := []model.MasterRecord{
		{Name: "Registry Only Ltd", Source: model.ProvenanceRegistry},
		{Name: "Beta Labs", Source: model.ProvenanceRegistry},
	}
	ex := &mockExtractor{}
	ex.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(answers(model.Enrichment{
			Description: "Makes things, well.",
			SectorTags:  []string{"hardware"},
			Stage:       "startup",
			FoundedYear: intPtr(2019),
		})).Return(nil)

	e := newTestEnricher(&mockScraper{}, ex, nil)
	stats, err := e.Run(ctx, st, records)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)

	enrichments, err := Load(ctx, st)
	require.NoError(t, err)
	require.Len(t, enrichments, 2)

	joined := Join(append(records, model.MasterRecord{Name: "Not Enriched"}), enrichments)
	require.Len(t, joined, 2)
	assert.Equal(t, "Registry Only Ltd", joined[0].Master.Name)
	assert.Equal(t, "startup", joined[0].Enrichment.Stage)

	path := filepath.Join(t.TempDir(), File)
	require.NoError(t, Write(path, corpus.Layout{}, joined))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "description,sector_tags,stage,tech_keywords,employee_est,hiring_status,founded_year,hq_city,enrich_error"))
	assert.True(t, strings.HasSuffix(lines[1], `"Makes things, well.","[""hardware""]",startup,,unknown,no_info,2019,,`), lines[1])
}

func TestSummarize(t *testing.T) {
	s := Summarize(map[string]model.Enrichment{
		"a": {Description: "x", Stage: "startup", SectorTags: []string{"robotics", "AI/ML"}},
		"b": {Description: "y", Stage: "startup", SectorTags: []string{"robotics"}},
		"c": {Stage: "established", SectorTags: []string{"biotech"}},
		"d": {Error: "boom"},
	}, 2)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.WithDescription)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, []Count{{"startup", 2}, {"established", 1}}, s.Stages)
	assert.Equal(t, []Count{{"robotics", 2}, {"AI/ML", 1}}, s.TopSectorTags)
}
