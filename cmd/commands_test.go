package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobboard-cli/internal/config"
	"github.com/sells-group/jobboard-cli/internal/corpus"
	"github.com/sells-group/jobboard-cli/internal/site"
)

const hubFixture = `company_name,url,hub_name
Acme Therapeutics Ltd,https://acme.example.com,Bio Hub
Quantum Widgets,,Science Park
`

const registryFixture = `company_name,company_number,status,sic_code_1,postcode,address
ACME THERAPEUTICS LIMITED,01234567,Active,72110,CB1 1AA,1 Hills Road
UNRELATED HOLDINGS LIMITED,07654321,Active,64209,CB22 3AT,Babraham
`

// testConfig points every path at a temp dir with the loader defaults.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	hub := filepath.Join(dir, "hub.csv")
	registry := filepath.Join(dir, "registry.csv")
	require.NoError(t, os.WriteFile(hub, []byte(hubFixture), 0o644))
	require.NoError(t, os.WriteFile(registry, []byte(registryFixture), 0o644))

	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(dir, "jobboard.db")
	c.Match.Threshold = 0.5
	c.Match.NearMissBand = 0.1
	c.Match.Workers = 1
	c.Corpus.HubPath = hub
	c.Corpus.RegistryPath = registry
	c.Corpus.OutputDir = filepath.Join(dir, "output")
	c.Corpus.RegistryColumns = config.RegistryColumnConfig{
		RegistrationID:     "company_number",
		Status:             "status",
		ClassificationCode: "sic_code_1",
	}
	c.Corpus.AddressColumns = []string{"postcode", "address"}
	c.Site.Dir = filepath.Join(dir, "site")
	c.Server.Port = 8080
	c.Publish.Table = "master_companies"
	return c
}

func executeRoot(t *testing.T, name string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{name}, args...))
	defer rootCmd.SetArgs(nil)
	_, err := rootCmd.ExecuteC()
	return out.String(), err
}

func TestMergeThenBuild(t *testing.T) {
	cfg = testConfig(t)
	mergeCmd.SetContext(context.Background())
	defer mergeCmd.SetContext(nil)

	var out bytes.Buffer
	mergeCmd.SetOut(&out)
	defer mergeCmd.SetOut(nil)
	require.NoError(t, mergeCmd.RunE(mergeCmd, nil))
	assert.Contains(t, out.String(), "merged 2 hub + 2 registry records")

	for _, f := range []string{corpus.MasterFile, corpus.MatchReportFile, corpus.NearMissFile, corpus.AmbiguityFile} {
		assert.FileExists(t, outputPath(f))
	}
	records, _, err := loadMaster(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, records)

	buildCmd.SetContext(context.Background())
	defer buildCmd.SetContext(nil)
	out.Reset()
	buildCmd.SetOut(&out)
	defer buildCmd.SetOut(nil)
	require.NoError(t, buildCmd.RunE(buildCmd, nil))

	for _, f := range []string{site.DataFile, site.GeoJSONFile, site.IndexFile} {
		assert.FileExists(t, filepath.Join(cfg.Site.Dir, f))
	}
	data, err := site.ReadData(cfg.Site.Dir)
	require.NoError(t, err)
	assert.Len(t, data.Companies, len(records))
	assert.Empty(t, data.Roles)
}

func TestMergeCmd_InvalidThreshold(t *testing.T) {
	cfg = testConfig(t)
	cfg.Match.Threshold = 0

	err := mergeCmd.RunE(mergeCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.threshold")
}

func TestCareersCmd_RequiresAnthropicKey(t *testing.T) {
	cfg = testConfig(t)
	cfg.Crawl.RequestsPerSec = 2
	cfg.Crawl.Concurrency = 4
	cfg.Crawl.MaxCareersLinks = 5

	err := careersCmd.RunE(careersCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestBuildCmd_MissingMaster(t *testing.T) {
	cfg = testConfig(t)
	buildCmd.SetContext(context.Background())
	defer buildCmd.SetContext(nil)

	assert.Error(t, buildCmd.RunE(buildCmd, nil))
}

func TestPublishCmd_RequiresURL(t *testing.T) {
	cfg = testConfig(t)

	err := publishCmd.RunE(publishCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish.database_url is required")
}

func TestVersionCmd(t *testing.T) {
	out, err := executeRoot(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "jobboard dev\n", out)
}
