package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	Corpus    CorpusConfig    `yaml:"corpus" mapstructure:"corpus"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Site      SiteConfig      `yaml:"site" mapstructure:"site"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Publish   PublishConfig   `yaml:"publish" mapstructure:"publish"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the stage ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MatchConfig tunes record linkage.
type MatchConfig struct {
	Threshold    float64 `yaml:"threshold" mapstructure:"threshold"`
	NearMissBand float64 `yaml:"near_miss_band" mapstructure:"near_miss_band"`
	Workers      int     `yaml:"workers" mapstructure:"workers"`
}

// CorpusConfig locates the input corpora and output directory.
type CorpusConfig struct {
	HubPath         string               `yaml:"hub_path" mapstructure:"hub_path"`
	RegistryPath    string               `yaml:"registry_path" mapstructure:"registry_path"`
	OutputDir       string               `yaml:"output_dir" mapstructure:"output_dir"`
	RegistryColumns RegistryColumnConfig `yaml:"registry_columns" mapstructure:"registry_columns"`
	AddressColumns  []string             `yaml:"address_columns" mapstructure:"address_columns"`
}

// RegistryColumnConfig maps registry file headers onto record fields.
type RegistryColumnConfig struct {
	RegistrationID     string `yaml:"registration_id" mapstructure:"registration_id"`
	Status             string `yaml:"status" mapstructure:"status"`
	ClassificationCode string `yaml:"classification_code" mapstructure:"classification_code"`
}

// AnthropicConfig holds the LLM credentials and model.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CrawlConfig configures website fetching for the careers stage.
type CrawlConfig struct {
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec  float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxPageChars    int     `yaml:"max_page_chars" mapstructure:"max_page_chars"`
	MaxCareersLinks int     `yaml:"max_careers_links" mapstructure:"max_careers_links"`
	Concurrency     int     `yaml:"concurrency" mapstructure:"concurrency"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// EnrichConfig configures the enrichment stage.
type EnrichConfig struct {
	Concurrency  int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxPageChars int `yaml:"max_page_chars" mapstructure:"max_page_chars"`
}

// GeocodeConfig configures the postcode lookup service.
type GeocodeConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// SiteConfig configures the static site build.
type SiteConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	SettingsFile string `yaml:"settings_file" mapstructure:"settings_file"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// PublishConfig configures the Postgres export of the master corpus.
type PublishConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("JOBBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "jobboard.db")
	v.SetDefault("match.threshold", 0.50)
	v.SetDefault("match.near_miss_band", 0.10)
	v.SetDefault("match.workers", 1)
	v.SetDefault("corpus.hub_path", "pipeline/input/hub_companies.csv")
	v.SetDefault("corpus.registry_path", "pipeline/input/registry_companies.csv")
	v.SetDefault("corpus.output_dir", "pipeline/output")
	v.SetDefault("corpus.registry_columns.registration_id", "company_number")
	v.SetDefault("corpus.registry_columns.status", "status")
	v.SetDefault("corpus.registry_columns.classification_code", "sic_code_1")
	v.SetDefault("corpus.address_columns", []string{"postcode", "address", "company_size", "incorporated", "last_accounts"})
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 800)
	v.SetDefault("crawl.timeout_secs", 12)
	v.SetDefault("crawl.requests_per_sec", 2.0)
	v.SetDefault("crawl.max_page_chars", 12000)
	v.SetDefault("crawl.max_careers_links", 5)
	v.SetDefault("crawl.concurrency", 4)
	v.SetDefault("crawl.user_agent", "")
	v.SetDefault("enrich.concurrency", 3)
	v.SetDefault("enrich.max_page_chars", 8000)
	v.SetDefault("geocode.base_url", "https://api.postcodes.io")
	v.SetDefault("geocode.batch_size", 100)
	v.SetDefault("site.dir", "site")
	v.SetDefault("site.settings_file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("publish.database_url", "")
	v.SetDefault("publish.table", "master_companies")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	check(c.Store.DatabaseURL != "", "store.database_url is required")

	switch mode {
	case "merge":
		check(c.Corpus.HubPath != "", "corpus.hub_path is required")
		check(c.Corpus.RegistryPath != "", "corpus.registry_path is required")
		check(c.Match.Threshold > 0 && c.Match.Threshold <= 1, "match.threshold must be in (0, 1]")
		check(c.Match.NearMissBand >= 0 && c.Match.NearMissBand < c.Match.Threshold,
			"match.near_miss_band must be >= 0 and below match.threshold")
		check(c.Match.Workers >= 1 && c.Match.Workers <= 64, "match.workers must be between 1 and 64")
	case "careers":
		check(c.Anthropic.Key != "", "anthropic.key is required")
		check(c.Crawl.RequestsPerSec > 0, "crawl.requests_per_sec must be > 0")
		check(c.Crawl.Concurrency >= 1 && c.Crawl.Concurrency <= 32, "crawl.concurrency must be between 1 and 32")
		check(c.Crawl.MaxCareersLinks >= 1, "crawl.max_careers_links must be >= 1")
	case "enrich":
		check(c.Anthropic.Key != "", "anthropic.key is required")
		check(c.Enrich.Concurrency >= 1 && c.Enrich.Concurrency <= 32, "enrich.concurrency must be between 1 and 32")
	case "geocode":
		check(c.Geocode.BaseURL != "", "geocode.base_url is required")
		check(c.Geocode.BatchSize >= 1 && c.Geocode.BatchSize <= 100, "geocode.batch_size must be between 1 and 100")
	case "build":
		check(c.Site.Dir != "", "site.dir is required")
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
	case "publish":
		check(c.Publish.DatabaseURL != "", "publish.database_url is required")
		check(c.Publish.Table != "", "publish.table is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
