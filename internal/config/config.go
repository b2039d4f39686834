// Package config provides configuration management for mediapull using
// Viper. It supports configuration from files, environment variables,
// and defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultConcurrentTargets = 3
	defaultPostLimit         = 20
	defaultSleepInterval     = time.Second
	defaultScraperTimeout    = 30 * time.Second
	defaultRetries           = 3
	defaultRetryDelay        = 2 * time.Second
	defaultTargetTimeout     = 300 * time.Second
	defaultUserAgent         = "mediapull/1.0"
	defaultAuditMaxFileSize  = 10 * 1024 * 1024 // 10MB
	defaultAuditBackupCount  = 5
)

// Config holds all configuration for the application.
type Config struct {
	Targets      TargetsConfig      `mapstructure:"targets"`
	Scraper      ScraperConfig      `mapstructure:"scraper"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Filter       FilterConfig       `mapstructure:"filter"`
	Processing   ProcessingConfig   `mapstructure:"processing"`
	Organization OrganizationConfig `mapstructure:"organization"`
	Export       ExportConfig       `mapstructure:"export"`
	Executor     ExecutorConfig     `mapstructure:"executor"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Audit        AuditConfig        `mapstructure:"audit"`
	Database     DatabaseConfig     `mapstructure:"database"`
	HTTPAPI      HTTPAPIConfig      `mapstructure:"httpapi"`
}

// TargetsConfig selects the Acquisition Engine's input set and batch
// concurrency.
type TargetsConfig struct {
	Targets           []string `mapstructure:"targets"`
	TargetsFile       string   `mapstructure:"targets_file"`
	TargetUser        string   `mapstructure:"target_user"`
	ConcurrentTargets int      `mapstructure:"concurrent_targets"` // 1-20
}

// ScraperConfig tunes listing defaults and per-request behavior, shared
// by both the public and authenticated scraper transports.
type ScraperConfig struct {
	ListingType   string        `mapstructure:"listing_type"` // hot, new, top, rising, controversial
	TimePeriod    string        `mapstructure:"time_period"`  // hour, day, week, month, year, all
	PostLimit     int           `mapstructure:"post_limit"`
	SleepInterval time.Duration `mapstructure:"sleep_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Retries       int           `mapstructure:"retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	TargetTimeout time.Duration `mapstructure:"target_timeout"` // per-target wall-clock budget in a batch run
}

// AuthConfig carries OAuth2 client-credentials material for the
// authenticated scraper. Empty ClientID/ClientSecret means only the
// public scraper (and its saved/upvoted-excluded target set) is usable.
type AuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	UserAgent    string `mapstructure:"user_agent"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
}

// HasCredentials reports whether enough material is present to build an
// authenticated scraper.
func (a AuthConfig) HasCredentials() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.Username != "" && a.Password != ""
}

// FilterConfig carries every Filter Chain knob.
// A builder (outside this package) turns this into the typed Filter
// values the filtering.Chain actually runs.
type FilterConfig struct {
	MinScore *int `mapstructure:"min_score"`
	MaxScore *int `mapstructure:"max_score"`
	// DateFrom/DateTo are RFC3339 timestamps; a blank value leaves that
	// bound unset. Parsed into filtering.DateFilter's time.Time bounds
	// by the caller building the Filter Chain.
	DateFrom string `mapstructure:"date_from"`
	DateTo   string `mapstructure:"date_to"`

	KeywordsInclude []string `mapstructure:"keywords_include"`
	KeywordsExclude []string `mapstructure:"keywords_exclude"`

	DomainsAllow []string `mapstructure:"domains_allow"`
	DomainsBlock []string `mapstructure:"domains_block"`

	MediaTypes            []string `mapstructure:"media_types"`
	ExcludeMediaTypes     []string `mapstructure:"exclude_media_types"`
	FileExtensions        []string `mapstructure:"file_extensions"`
	ExcludeFileExtensions []string `mapstructure:"exclude_file_extensions"`

	NSFWMode          string `mapstructure:"nsfw_mode"`          // include, exclude, only
	FilterComposition string `mapstructure:"filter_composition"` // AND, OR
}

// ProcessingConfig tunes the Content-Handler Dispatch stage.
type ProcessingConfig struct {
	OutputDir         string                    `mapstructure:"output_dir"`
	FilenameTemplate  string                    `mapstructure:"filename_template"`
	EmbedMetadata     bool                      `mapstructure:"embed_metadata"`
	CreateSidecars    bool                      `mapstructure:"create_sidecars"`
	EnablePlugins     bool                      `mapstructure:"enable_plugins"`
	PluginDirectories []string                  `mapstructure:"plugin_directories"`
	HandlerConfig     map[string]map[string]any `mapstructure:"handler_config"`
}

// OrganizationConfig mirrors organization.Config's field names so Load
// can populate it directly without an extra mapping step.
type OrganizationConfig struct {
	OrganizeBy      string `mapstructure:"organize_by"` // none, subreddit, user, date, type
	CreateStructure bool   `mapstructure:"create_structure"`
	MoveFiles       bool   `mapstructure:"move_files"`
}

// ExportConfig tunes the Export stage. FormatOptions holds per-format
// sub-maps (e.g. export.format_options.json.pretty), matching
// the per-format sub-maps the export stage consumes; the keys read
// there are compress, pretty and destination.
type ExportConfig struct {
	Formats       []string                  `mapstructure:"formats"`
	Dir           string                    `mapstructure:"dir"`
	FormatOptions map[string]map[string]any `mapstructure:"format_options"`
}

// ExecutorConfig selects the Pipeline Executor's error-handling policy
// and whether this run is a dry run (acquisition + filter + export
// only, skipping Processing).
type ExecutorConfig struct {
	ErrorHandling string `mapstructure:"error_handling"` // halt, continue, skip
	DryRun        bool   `mapstructure:"dry_run"`
}

// StorageConfig holds the sandboxed output-directory configuration.
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
	TempDir string `mapstructure:"temp_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// AuditConfig tunes the security-event auditor and its suspicious-
// activity detector.
type AuditConfig struct {
	LogFile        string   `mapstructure:"log_file"`
	MaxFileSize    ByteSize `mapstructure:"max_file_size"`
	BackupCount    int      `mapstructure:"backup_count"`
	EnableDetector bool     `mapstructure:"enable_detector"`
}

// DatabaseConfig selects the backing store for session state — the
// record of each run's lifecycle (pending/running/completed/failed)
// that a resumable run would read back. Driver selects "sqlite"
// (default, file-backed), "mysql", or "postgres"; DSN is passed to the
// matching gorm driver unmodified, so its shape depends on Driver.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// HTTPAPIConfig tunes the ambient status/metrics HTTP surface a run
// exposes alongside its pipeline — not a user-facing feature, an
// operator-facing one (/healthz, /metrics, /sessions/{id}).
type HTTPAPIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with MEDIAPULL_ and use
// underscores for nesting. Example: MEDIAPULL_SCRAPER_POST_LIMIT=50.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/mediapull")
		v.AddConfigPath("$HOME/.mediapull")
	}

	// Environment variable settings
	v.SetEnvPrefix("MEDIAPULL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure
// defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Targets defaults
	v.SetDefault("targets.concurrent_targets", defaultConcurrentTargets)

	// Scraper defaults
	v.SetDefault("scraper.listing_type", "hot")
	v.SetDefault("scraper.time_period", "all")
	v.SetDefault("scraper.post_limit", defaultPostLimit)
	v.SetDefault("scraper.sleep_interval", defaultSleepInterval)
	v.SetDefault("scraper.timeout", defaultScraperTimeout)
	v.SetDefault("scraper.retries", defaultRetries)
	v.SetDefault("scraper.retry_delay", defaultRetryDelay)
	v.SetDefault("scraper.target_timeout", defaultTargetTimeout)

	// Auth defaults
	v.SetDefault("auth.user_agent", defaultUserAgent)

	// Filter defaults
	v.SetDefault("filter.nsfw_mode", "include")
	v.SetDefault("filter.filter_composition", "AND")

	// Processing defaults
	v.SetDefault("processing.output_dir", "./output")
	v.SetDefault("processing.filename_template", "{{.Subreddit}}/{{.ID}}")
	v.SetDefault("processing.create_sidecars", true)
	v.SetDefault("processing.enable_plugins", false)
	v.SetDefault("processing.plugin_directories", []string{"./plugins"})

	// Organization defaults
	v.SetDefault("organization.organize_by", "none")
	v.SetDefault("organization.create_structure", false)
	v.SetDefault("organization.move_files", false)

	// Export defaults
	v.SetDefault("export.formats", []string{"json"})
	v.SetDefault("export.dir", "./output/export")

	// Executor defaults
	v.SetDefault("executor.error_handling", "continue")
	v.SetDefault("executor.dry_run", false)

	// Storage defaults
	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("storage.temp_dir", "temp")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Audit defaults
	v.SetDefault("audit.max_file_size", defaultAuditMaxFileSize)
	v.SetDefault("audit.backup_count", defaultAuditBackupCount)
	v.SetDefault("audit.enable_detector", true)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/mediapull.db")

	// HTTP API defaults
	v.SetDefault("httpapi.enabled", false)
	v.SetDefault("httpapi.host", "127.0.0.1")
	v.SetDefault("httpapi.port", 8080)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxConcurrentTargets = 20
	if c.Targets.ConcurrentTargets < 1 || c.Targets.ConcurrentTargets > maxConcurrentTargets {
		return fmt.Errorf("targets.concurrent_targets must be between 1 and %d", maxConcurrentTargets)
	}

	if c.Scraper.PostLimit < 1 {
		return fmt.Errorf("scraper.post_limit must be at least 1")
	}
	if c.Scraper.Retries < 0 {
		return fmt.Errorf("scraper.retries must be non-negative")
	}

	if c.Filter.MinScore != nil && c.Filter.MaxScore != nil && *c.Filter.MinScore > *c.Filter.MaxScore {
		return fmt.Errorf("filter.min_score must be <= filter.max_score")
	}
	validComposition := map[string]bool{"AND": true, "OR": true}
	if c.Filter.FilterComposition != "" && !validComposition[strings.ToUpper(c.Filter.FilterComposition)] {
		return fmt.Errorf("filter.filter_composition must be one of: AND, OR")
	}
	validNSFW := map[string]bool{"include": true, "exclude": true, "only": true}
	if c.Filter.NSFWMode != "" && !validNSFW[c.Filter.NSFWMode] {
		return fmt.Errorf("filter.nsfw_mode must be one of: include, exclude, only")
	}

	validOrganizeBy := map[string]bool{"none": true, "subreddit": true, "user": true, "date": true, "type": true}
	if c.Organization.OrganizeBy != "" && !validOrganizeBy[c.Organization.OrganizeBy] {
		return fmt.Errorf("organization.organize_by must be one of: none, subreddit, user, date, type")
	}

	validPolicy := map[string]bool{"halt": true, "continue": true, "skip": true}
	if c.Executor.ErrorHandling != "" && !validPolicy[c.Executor.ErrorHandling] {
		return fmt.Errorf("executor.error_handling must be one of: halt, continue, skip")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	validDrivers := map[string]bool{"": true, "sqlite": true, "mysql": true, "postgres": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, mysql, postgres")
	}

	return nil
}

// OutputPath returns the full path to the content-handler output
// directory, rooted under storage.base_dir unless Processing.OutputDir
// is already absolute.
func (c *StorageConfig) OutputPath(processingOutputDir string) string {
	if processingOutputDir == "" {
		return c.BaseDir
	}
	if filepath.IsAbs(processingOutputDir) {
		return processingOutputDir
	}
	return filepath.Join(c.BaseDir, processingOutputDir)
}

// TempPath returns the full path to the temp directory.
func (c *StorageConfig) TempPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.TempDir)
}
