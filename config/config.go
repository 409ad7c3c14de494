package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the content agent
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Sweep     SweepConfig     `mapstructure:"sweep"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains the ops HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the OpenAI-compatible generator settings
type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Models  LLMModels     `mapstructure:"models"`
}

// LLMModels routes each pipeline task to a model
type LLMModels struct {
	Draft       string `mapstructure:"draft"`
	StoreList   string `mapstructure:"store_list"`
	Summary     string `mapstructure:"summary"`
	SearchQuery string `mapstructure:"search_query"`
	Segment     string `mapstructure:"segment"`
	Recompose   string `mapstructure:"recompose"`
	Validation  string `mapstructure:"validation"`
	Vision      string `mapstructure:"vision"`
	Embedding   string `mapstructure:"embedding"`
}

// Normalize fills in the default model per task.
func (c LLMConfig) Normalize() LLMConfig {
	m := &c.Models
	m.Draft = orDefault(m.Draft, "o3")
	m.StoreList = orDefault(m.StoreList, "o1")
	m.Summary = orDefault(m.Summary, "gpt-4o")
	m.SearchQuery = orDefault(m.SearchQuery, "gpt-4o")
	m.Segment = orDefault(m.Segment, "gpt-4o")
	m.Recompose = orDefault(m.Recompose, "o1")
	m.Validation = orDefault(m.Validation, "gpt-4o")
	m.Vision = orDefault(m.Vision, "gpt-4o-mini")
	m.Embedding = orDefault(m.Embedding, "text-embedding-3-small")
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	return c
}

func (c LLMConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("llm.api_key required")
	}
	return nil
}

// SearchConfig selects and configures the internet search provider
type SearchConfig struct {
	Provider     string        `mapstructure:"provider"` // gemini, serper, brave
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	GeminiModel  string        `mapstructure:"gemini_model"`
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func (c SearchConfig) Normalize() SearchConfig {
	c.Provider = strings.ToLower(orDefault(c.Provider, "gemini"))
	c.GeminiModel = orDefault(c.GeminiModel, "gemini-2.5-pro")
	if c.MaxResults <= 0 {
		c.MaxResults = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	return c
}

func (c SearchConfig) Validate() error {
	switch c.Provider {
	case "gemini":
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return fmt.Errorf("search.gemini_api_key required for gemini provider")
		}
	case "serper":
		if strings.TrimSpace(c.SerperAPIKey) == "" {
			return fmt.Errorf("search.serper_api_key required for serper provider")
		}
	case "brave":
		if strings.TrimSpace(c.BraveAPIKey) == "" {
			return fmt.Errorf("search.brave_api_key required for brave provider")
		}
	default:
		return fmt.Errorf("search.provider %q not supported", c.Provider)
	}
	return nil
}

// ScraperConfig selects and configures the page scraper
type ScraperConfig struct {
	Provider         string             `mapstructure:"provider"` // firecrawl, chromedp, static
	FirecrawlAPIKey  string             `mapstructure:"firecrawl_api_key"`
	FirecrawlBaseURL string             `mapstructure:"firecrawl_base_url"`
	UserAgent        string             `mapstructure:"user_agent"`
	Timeout          time.Duration      `mapstructure:"timeout"`
	MaxChars         int                `mapstructure:"max_chars"`
	Delay            time.Duration      `mapstructure:"delay"`
	Policy           ScrapePolicyConfig `mapstructure:"policy"`
}

// DefaultScrapeDelay spaces consecutive scrapes within one run. The delay cannot be disabled.
const DefaultScrapeDelay = 6 * time.Second

func (c ScraperConfig) Normalize() ScraperConfig {
	c.Provider = strings.ToLower(orDefault(c.Provider, "firecrawl"))
	c.FirecrawlBaseURL = strings.TrimRight(orDefault(c.FirecrawlBaseURL, "https://api.firecrawl.dev"), "/")
	c.UserAgent = orDefault(c.UserAgent, "contentagent/1.0")
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxChars <= 0 {
		c.MaxChars = 40000
	}
	if c.Delay <= 0 {
		c.Delay = DefaultScrapeDelay
	}
	c.Policy = c.Policy.Normalize()
	return c
}

func (c ScraperConfig) Validate() error {
	switch c.Provider {
	case "firecrawl":
		if strings.TrimSpace(c.FirecrawlAPIKey) == "" {
			return fmt.Errorf("scraper.firecrawl_api_key required for firecrawl provider")
		}
	case "chromedp", "static":
	default:
		return fmt.Errorf("scraper.provider %q not supported", c.Provider)
	}
	return c.Policy.Validate()
}

// PipelineConfig tunes the content pipeline
type PipelineConfig struct {
	StoreListTimeout time.Duration `mapstructure:"store_list_timeout"`
	StoreListLimit   int           `mapstructure:"store_list_limit"`
	AssetTopK        int           `mapstructure:"asset_top_k"`
	EmbedConcurrency int           `mapstructure:"embed_concurrency"`
	DefaultPurpose   string        `mapstructure:"default_purpose"`
}

func (c PipelineConfig) Normalize() PipelineConfig {
	if c.StoreListTimeout <= 0 {
		c.StoreListTimeout = 3 * time.Minute
	}
	if c.StoreListLimit <= 0 || c.StoreListLimit > 50 {
		c.StoreListLimit = 50
	}
	if c.AssetTopK <= 0 {
		c.AssetTopK = 2
	}
	if c.EmbedConcurrency <= 0 {
		c.EmbedConcurrency = 1
	}
	c.DefaultPurpose = orDefault(c.DefaultPurpose, "Genereer een SEO-vriendelijk artikel")
	return c
}

// AssetsConfig points at the public bucket serving asset images
type AssetsConfig struct {
	PublicBaseURL string `mapstructure:"public_base_url"`
}

func (c AssetsConfig) Normalize() AssetsConfig {
	c.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/")
	return c
}

// SweepConfig controls the stale content sweep
type SweepConfig struct {
	StaleAfter time.Duration `mapstructure:"stale_after"`
	Schedule   string        `mapstructure:"schedule"`
	LockTTL    time.Duration `mapstructure:"lock_ttl"`
}

func (c SweepConfig) Normalize() SweepConfig {
	if c.StaleAfter <= 0 {
		c.StaleAfter = 30 * time.Minute
	}
	c.Schedule = orDefault(c.Schedule, "*/5 * * * *")
	if c.LockTTL <= 0 {
		c.LockTTL = 2 * time.Minute
	}
	return c
}

// QueueConfig names the Redis streams used by the worker
type QueueConfig struct {
	RequestStream string        `mapstructure:"request_stream"`
	ResultStream  string        `mapstructure:"result_stream"`
	Group         string        `mapstructure:"group"`
	Concurrency   int           `mapstructure:"concurrency"`
	Block         time.Duration `mapstructure:"block"`
}

func (c QueueConfig) Normalize() QueueConfig {
	c.RequestStream = orDefault(c.RequestStream, "content.requested")
	c.ResultStream = orDefault(c.ResultStream, "content.completed")
	c.Group = orDefault(c.Group, "contentagent")
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Block <= 0 {
		c.Block = 5 * time.Second
	}
	return c
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

func (t TelemetryConfig) Normalize() TelemetryConfig {
	t.ServiceName = orDefault(t.ServiceName, "contentagent")
	return t
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// Normalize applies defaults to every section.
func (c *Config) Normalize() {
	c.LLM = c.LLM.Normalize()
	c.Search = c.Search.Normalize()
	c.Scraper = c.Scraper.Normalize()
	c.Pipeline = c.Pipeline.Normalize()
	c.Assets = c.Assets.Normalize()
	c.Sweep = c.Sweep.Normalize()
	c.Queue = c.Queue.Normalize()
	c.Telemetry = c.Telemetry.Normalize()
	if strings.TrimSpace(c.Server.Address) == "" {
		c.Server.Address = ":10001"
	}
}

// Validate checks every section that has hard requirements.
func (c *Config) Validate() error {
	checks := []func() error{
		c.LLM.Validate,
		c.Search.Validate,
		c.Scraper.Validate,
		c.Storage.Redis.Validate,
		c.Storage.Postgres.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Read loads, normalizes and validates configuration from path, or from the default
// search locations when path is empty.
func Read(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")
	v.SetDefault("scraper.delay", "6s")

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("CONTENTAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match (CONTENTAGENT_*)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads config from file and panics when it is unusable
func LoadConfig(path string) *Config {
	cfg, err := Read(path)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return cfg
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
