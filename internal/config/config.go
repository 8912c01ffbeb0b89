package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the urpick API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Providers ProvidersConfig `yaml:"providers"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Recommend RecommendConfig `yaml:"recommend"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// ProvidersConfig holds shopping provider credentials. A provider with
// empty credentials reports itself unavailable and is skipped by the
// aggregator. use_mock replaces all real providers with the mock catalog.
type ProvidersConfig struct {
	Rakuten RakutenConfig `yaml:"rakuten"`
	Yahoo   YahooConfig   `yaml:"yahoo"`
	Amazon  AmazonConfig  `yaml:"amazon"`
	UseMock bool          `yaml:"use_mock"`
}

// RakutenConfig holds Rakuten Ichiba API settings.
type RakutenConfig struct {
	AppID       string `yaml:"app_id"`
	AffiliateID string `yaml:"affiliate_id"`
}

// YahooConfig holds Yahoo Shopping API settings.
type YahooConfig struct {
	ClientID string `yaml:"client_id"`
}

// AmazonConfig holds Amazon PA-API settings.
type AmazonConfig struct {
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	PartnerTag string `yaml:"partner_tag"`
}

// ReasoningConfig holds reasoning service (LLM) settings.
type ReasoningConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	SelectTimeoutSec int    `yaml:"select_timeout_sec"` // candidate selection call
	ReasonTimeoutSec int    `yaml:"reason_timeout_sec"` // per-product justification call
}

// RecommendConfig holds the aggregation and ranking tunables. These are
// operational knobs, not contracts; defaults match production behavior.
type RecommendConfig struct {
	AvailabilityTimeoutMS int         `yaml:"availability_timeout_ms"`
	SearchTimeoutMS       int         `yaml:"search_timeout_ms"`
	Retry                 RetryConfig `yaml:"retry"`
	CandidateLimit        int         `yaml:"candidate_limit"`
	NewUserThreshold      int         `yaml:"new_user_threshold"`
}

// RetryConfig holds provider retry settings.
type RetryConfig struct {
	MaxRetries        int     `yaml:"max_retries"`
	InitialDelayMS    int     `yaml:"initial_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// The fan-out plus annotation can legitimately take a while.
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "urpick:"
	}
	if c.Reasoning.Model == "" {
		c.Reasoning.Model = "gpt-4o-mini"
	}
	if c.Reasoning.SelectTimeoutSec <= 0 {
		c.Reasoning.SelectTimeoutSec = 10
	}
	if c.Reasoning.ReasonTimeoutSec <= 0 {
		c.Reasoning.ReasonTimeoutSec = 8
	}
	if c.Recommend.AvailabilityTimeoutMS <= 0 {
		c.Recommend.AvailabilityTimeoutMS = 1000
	}
	if c.Recommend.SearchTimeoutMS <= 0 {
		c.Recommend.SearchTimeoutMS = 8000
	}
	if c.Recommend.Retry.MaxRetries <= 0 {
		c.Recommend.Retry.MaxRetries = 3
	}
	if c.Recommend.Retry.InitialDelayMS <= 0 {
		c.Recommend.Retry.InitialDelayMS = 1000
	}
	if c.Recommend.Retry.BackoffMultiplier <= 1 {
		c.Recommend.Retry.BackoffMultiplier = 2
	}
	if c.Recommend.CandidateLimit <= 0 {
		c.Recommend.CandidateLimit = 30
	}
	if c.Recommend.NewUserThreshold <= 0 {
		c.Recommend.NewUserThreshold = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if !c.Providers.UseMock && c.Reasoning.APIKey == "" {
		return fmt.Errorf("reasoning.api_key is required unless providers.use_mock is set")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
