package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the H2H GG League fetcher
type Config struct {
	// API connection settings
	API APIConfig `yaml:"api" json:"api"`

	// Browser-based token extraction settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Auth token persistence
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Rate limiting between sequential API calls
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds hudstats API settings
type APIConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	PageSize     int           `yaml:"page_size" json:"page_size"`
	Order        string        `yaml:"order" json:"order"`
	TournamentID int           `yaml:"tournament_id" json:"tournament_id"`
}

// BrowserConfig holds settings for extracting the auth token from the
// H2HGGL website's local storage
type BrowserConfig struct {
	TargetURL string        `yaml:"target_url" json:"target_url"`
	TokenKey  string        `yaml:"token_key" json:"token_key"`
	Headless  bool          `yaml:"headless" json:"headless"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// AuthConfig holds token persistence settings
type AuthConfig struct {
	TokenFile  string `yaml:"token_file" json:"token_file"`
	UseKeyring bool   `yaml:"use_keyring" json:"use_keyring"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      "https://api-sis-stats.hudstats.com/v1",
			Timeout:      30 * time.Second,
			PageSize:     100,
			Order:        "desc",
			TournamentID: 1,
		},
		Browser: BrowserConfig{
			TargetURL: "https://h2hggl.com/en/match/NB122120625",
			TokenKey:  "sis-hudstats-token",
			Headless:  true,
			Timeout:   60 * time.Second,
		},
		Auth: AuthConfig{
			TokenFile:  "auth_token.json",
			UseKeyring: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Output: OutputConfig{
			BaseDirectory: "h2hggl_data",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("H2H_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if pageSize := os.Getenv("H2H_PAGE_SIZE"); pageSize != "" {
		var val int
		fmt.Sscanf(pageSize, "%d", &val)
		if val > 0 {
			c.API.PageSize = val
		}
	}
	if targetURL := os.Getenv("H2H_BROWSER_TARGET_URL"); targetURL != "" {
		c.Browser.TargetURL = targetURL
	}
	if tokenKey := os.Getenv("H2H_BROWSER_TOKEN_KEY"); tokenKey != "" {
		c.Browser.TokenKey = tokenKey
	}
	if tokenFile := os.Getenv("H2H_TOKEN_FILE"); tokenFile != "" {
		c.Auth.TokenFile = tokenFile
	}
	if rpm := os.Getenv("H2H_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if outputDir := os.Getenv("H2H_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if logLevel := os.Getenv("H2H_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".h2hfetcher.yaml",
		".h2hfetcher.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "h2hfetcher", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "h2hfetcher", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".h2hfetcher.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}
	if c.API.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.API.Order != "asc" && c.API.Order != "desc" {
		errs = append(errs, errors.New("order must be asc or desc"))
	}

	if c.Browser.TargetURL == "" {
		errs = append(errs, errors.New("browser target URL is required"))
	}
	if c.Browser.TokenKey == "" {
		errs = append(errs, errors.New("browser token key is required"))
	}
	if c.Browser.Timeout <= 0 {
		errs = append(errs, errors.New("browser timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.API.PageSize = pageSize
	}
	if tournamentID, ok := flags["tournament-id"].(int); ok && tournamentID > 0 {
		c.API.TournamentID = tournamentID
	}
	if tokenFile, ok := flags["token-file"].(string); ok && tokenFile != "" {
		c.Auth.TokenFile = tokenFile
	}
	if useKeyring, ok := flags["keyring"].(bool); ok {
		c.Auth.UseKeyring = useKeyring
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if outputDir, ok := flags["output-dir"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".h2hfetcher.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
