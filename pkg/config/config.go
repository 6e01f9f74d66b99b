package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the archiver
type Config struct {
	Instagram  InstagramConfig  `yaml:"instagram" json:"instagram"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`
	Download   DownloadConfig   `yaml:"download" json:"download"`
	Output     OutputConfig     `yaml:"output" json:"output"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" json:"rate_limit"`
	Retry      RetryConfig      `yaml:"retry" json:"retry"`
	Archive    ArchiveConfig    `yaml:"archive" json:"archive"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
}

// InstagramConfig holds the remote host and optional session cookies
type InstagramConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url" env:"IGARCHIVER_BASE_URL" validate:"required,url"`
	SessionID string `yaml:"session_id" json:"session_id" env:"IGARCHIVER_SESSION_ID"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token" env:"IGARCHIVER_CSRF_TOKEN"`
	UserAgent string `yaml:"user_agent" json:"user_agent" env:"IGARCHIVER_USER_AGENT" validate:"required"`
}

// MarkerPair bounds one embedded JSON object inside the profile document.
// When Wrap is set the carved text is the object's inner fields and is closed
// with a synthesized pair of braces.
type MarkerPair struct {
	Start string `yaml:"start" json:"start" validate:"required"`
	End   string `yaml:"end" json:"end" validate:"required"`
	Wrap  bool   `yaml:"wrap" json:"wrap"`
}

// ExtractionConfig selects the carving strategy and its markers
type ExtractionConfig struct {
	Strategy string     `yaml:"strategy" json:"strategy" env:"IGARCHIVER_EXTRACTION_STRATEGY" validate:"oneof=markers script"`
	Profile  MarkerPair `yaml:"profile" json:"profile"`
	Timeline MarkerPair `yaml:"timeline" json:"timeline"`
}

// PaginationConfig holds the follow-up query parameters
type PaginationConfig struct {
	QueryHash string `yaml:"query_hash" json:"query_hash" env:"IGARCHIVER_QUERY_HASH" validate:"required"`
	PageSize  int    `yaml:"page_size" json:"page_size" env:"IGARCHIVER_PAGE_SIZE" validate:"gt=0,lte=50"`
	// MaxPages caps follow-up pages per profile; 0 means no cap
	MaxPages int `yaml:"max_pages" json:"max_pages" env:"IGARCHIVER_MAX_PAGES" validate:"gte=0"`
}

// DownloadConfig holds asset download settings
type DownloadConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout" env:"IGARCHIVER_DOWNLOAD_TIMEOUT" validate:"gt=0"`
	// Delay is the courtesy pause between consecutive asset downloads; 0 disables it
	Delay             time.Duration `yaml:"delay" json:"delay" env:"IGARCHIVER_DOWNLOAD_DELAY" validate:"gte=0"`
	Workers           int           `yaml:"workers" json:"workers" env:"IGARCHIVER_DOWNLOAD_WORKERS" validate:"gt=0,lte=10"`
	OverwriteExisting bool          `yaml:"overwrite_existing" json:"overwrite_existing" env:"IGARCHIVER_OVERWRITE"`
}

// OutputConfig holds the output root
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory" env:"IGARCHIVER_OUTPUT_DIR" validate:"required"`
}

// RateLimitConfig limits pagination requests per profile
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute" env:"IGARCHIVER_REQUESTS_PER_MINUTE" validate:"gt=0"`
}

// RetryConfig controls caller-side retries of failed pagination pages
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" env:"IGARCHIVER_RETRY_ATTEMPTS" validate:"gte=1"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay" validate:"gt=0"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay" validate:"gt=0"`
}

// ArchiveConfig controls how many profiles run at once
type ArchiveConfig struct {
	ParallelProfiles int `yaml:"parallel_profiles" json:"parallel_profiles" env:"IGARCHIVER_PARALLEL_PROFILES" validate:"gt=0"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" env:"IGARCHIVER_LOG_LEVEL" validate:"oneof=debug info warn error disabled"`
	File  string `yaml:"file" json:"file" env:"IGARCHIVER_LOG_FILE"`
}

// MetricsConfig points at an optional prometheus textfile
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" json:"textfile_path" env:"IGARCHIVER_METRICS_FILE"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			BaseURL:   "https://www.instagram.com",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Extraction: ExtractionConfig{
			Strategy: "markers",
			Profile: MarkerPair{
				Start: `"user":{`,
				End:   `,"edge_felix_video_timeline"`,
				Wrap:  true,
			},
			Timeline: MarkerPair{
				Start: `"edge_owner_to_timeline_media":`,
				End:   `,"edge_saved_media"`,
			},
		},
		Pagination: PaginationConfig{
			QueryHash: "e769aa130647d2354c40ea6a439bfc08",
			PageSize:  12,
		},
		Download: DownloadConfig{
			Timeout: 30 * time.Second,
			Delay:   time.Second,
			Workers: 1,
		},
		Output: OutputConfig{
			BaseDirectory: ".",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Archive: ArchiveConfig{
			ParallelProfiles: 2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overlays IGARCHIVER_* environment variables
func (c *Config) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
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
	home := os.Getenv("HOME")
	locations := []string{
		".igarchiver.yaml",
		".igarchiver.yml",
		filepath.Join(home, ".config", "igarchiver", "config.yaml"),
		filepath.Join(home, ".igarchiver.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks field rules and the few cross-field constraints
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("%s: failed %q rule (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		errs = append(errs, errors.New("retry max delay must not be below base delay"))
	}
	if c.Extraction.Profile.Start == c.Extraction.Profile.End && c.Extraction.Profile.Start != "" {
		errs = append(errs, errors.New("profile start and end markers must differ"))
	}
	if c.Extraction.Timeline.Start == c.Extraction.Timeline.End && c.Extraction.Timeline.Start != "" {
		errs = append(errs, errors.New("timeline start and end markers must differ"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["session-id"].(string); ok && v != "" {
		c.Instagram.SessionID = v
	}
	if v, ok := flags["csrf-token"].(string); ok && v != "" {
		c.Instagram.CSRFToken = v
	}
	if v, ok := flags["strategy"].(string); ok && v != "" {
		c.Extraction.Strategy = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		c.Download.Delay = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Download.Workers = v
	}
	if v, ok := flags["max-pages"].(int); ok && v >= 0 {
		c.Pagination.MaxPages = v
	}
	if v, ok := flags["parallel"].(int); ok && v > 0 {
		c.Archive.ParallelProfiles = v
	}
	if v, ok := flags["overwrite"].(bool); ok {
		c.Download.OverwriteExisting = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := flags["metrics-file"].(string); ok && v != "" {
		c.Metrics.TextfilePath = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igarchiver.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
