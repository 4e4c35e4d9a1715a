// Package config loads catalog-llm settings from a TOML file and the
// process environment. Secrets are read only from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables.
const (
	EnvConfig        = "CATALOG_LLM_CONFIG"
	EnvListen        = "CATALOG_LLM_LISTEN"
	EnvLogLevel      = "CATALOG_LLM_LOG_LEVEL"
	EnvLogFormat     = "CATALOG_LLM_LOG_FORMAT"
	EnvHistoryPath   = "CATALOG_LLM_HISTORY"
	EnvBackendURL    = "BACKEND_URL"
	EnvDBUsername    = "CATALOG_USERNAME"
	EnvDBPassword    = "CATALOG_PASSWORD"
	EnvQueryPassword = "CATALOG_QUERY_PASSWORD"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
)

// DefaultBackendURL is the development catalog database.
const DefaultBackendURL = "https://db-dev.catalog.igvf.org/"

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents the service configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	OpenAI   OpenAIConfig   `toml:"openai"`
	Chain    ChainConfig    `toml:"chain"`
	History  HistoryConfig  `toml:"history"`

	// QueryPassword guards /query and the ask_catalog tool.
	QueryPassword string `toml:"-"`
}

// ServerConfig holds HTTP and logging settings.
type ServerConfig struct {
	Listen       string   `toml:"listen"`
	LogLevel     string   `toml:"log_level"`
	LogFormat    string   `toml:"log_format"`
	RateLimit    int      `toml:"rate_limit"`
	RateWindow   Duration `toml:"rate_window"`
	TrustProxy   bool     `toml:"trust_proxy"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	IdleTimeout  Duration `toml:"idle_timeout"`
}

// DatabaseConfig holds the ArangoDB connection.
type DatabaseConfig struct {
	URL        string `toml:"url"`
	Name       string `toml:"name"`
	SampleSize int    `toml:"sample_size"`
	Username   string `toml:"-"`
	Password   string `toml:"-"`
}

// OpenAIConfig holds the model provider settings.
type OpenAIConfig struct {
	BaseURL           string   `toml:"base_url"`
	SelectorModel     string   `toml:"selector_model"`
	ChainModel        string   `toml:"chain_model"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	APIKey            string   `toml:"-"`
}

// ChainConfig controls AQL generation.
type ChainConfig struct {
	TopK                  int    `toml:"top_k"`
	MaxGenerationAttempts int    `toml:"max_aql_generation_attempts"`
	ReturnAQLQuery        bool   `toml:"return_aql_query"`
	ReturnAQLResult       bool   `toml:"return_aql_result"`
	AllowWriteQueries     bool   `toml:"allow_write_queries"`
	ExamplesPath          string `toml:"examples_path"`
}

// HistoryConfig enables the question log when Path is set.
type HistoryConfig struct {
	Path string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       "0.0.0.0:5000",
			LogLevel:     "info",
			LogFormat:    "json",
			RateLimit:    10,
			RateWindow:   Duration{time.Minute},
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{5 * time.Minute},
			IdleTimeout:  Duration{120 * time.Second},
		},
		Database: DatabaseConfig{
			URL:        DefaultBackendURL,
			Name:       "igvf",
			SampleSize: 1,
		},
		OpenAI: OpenAIConfig{
			BaseURL:           "https://api.openai.com/v1",
			SelectorModel:     "gpt-4o",
			ChainModel:        "gpt-4.1",
			Timeout:           Duration{120 * time.Second},
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Chain: ChainConfig{
			TopK:                  5,
			MaxGenerationAttempts: 5,
			ReturnAQLQuery:        true,
			ReturnAQLResult:       true,
		},
	}
}

// Load reads the TOML file at path (optional) over the defaults and then
// applies the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyEnv(getenv)
	return cfg, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Server.Listen, EnvListen)
	set(&c.Server.LogLevel, EnvLogLevel)
	set(&c.Server.LogFormat, EnvLogFormat)
	set(&c.History.Path, EnvHistoryPath)
	set(&c.Database.URL, EnvBackendURL)
	set(&c.Database.Username, EnvDBUsername)
	set(&c.Database.Password, EnvDBPassword)
	set(&c.OpenAI.APIKey, EnvOpenAIKey)
	set(&c.OpenAI.BaseURL, EnvOpenAIBaseURL)

	c.QueryPassword = getenv(EnvQueryPassword)
	if c.QueryPassword == "" {
		c.QueryPassword = c.Database.Password
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Listen == "" {
		problems = append(problems, "server.listen is required")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("server.log_level %q is not one of debug, info, warn, error", c.Server.LogLevel))
	}
	switch c.Server.LogFormat {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("server.log_format %q is not one of json, text", c.Server.LogFormat))
	}
	if c.Server.RateLimit <= 0 {
		problems = append(problems, "server.rate_limit must be positive")
	}
	if c.Server.RateWindow.Duration <= 0 {
		problems = append(problems, "server.rate_window must be positive")
	}

	if u, err := url.Parse(c.Database.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("database.url %q must be an http(s) URL", c.Database.URL))
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}

	if c.Chain.TopK <= 0 {
		problems = append(problems, "chain.top_k must be positive")
	}
	if c.Chain.MaxGenerationAttempts <= 0 {
		problems = append(problems, "chain.max_aql_generation_attempts must be positive")
	}
	if c.OpenAI.SelectorModel == "" || c.OpenAI.ChainModel == "" {
		problems = append(problems, "openai.selector_model and openai.chain_model are required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Marshal renders the configuration as TOML. Secrets are never written.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
