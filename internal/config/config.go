// Package config loads orbit's settings from viper (config file, ORBIT_*
// environment variables and bound flags) and validates them.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/ghost"
	"github.com/krishhsuri/Orbit/internal/learned"
	"github.com/krishhsuri/Orbit/internal/llm"
	"github.com/krishhsuri/Orbit/internal/mailbox"
	"github.com/krishhsuri/Orbit/internal/pipeline"
	"github.com/krishhsuri/Orbit/internal/sheets"
	"github.com/krishhsuri/Orbit/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g. ORBIT_LLM_API_KEY.
const EnvPrefix = "ORBIT"

// EnvKeyReplacer maps nested keys to environment names: llm.api_key
// becomes ORBIT_LLM_API_KEY.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Settings is the fully resolved configuration.
type Settings struct {
	Database DatabaseSettings
	Logging  LoggingSettings
	User     UserSettings
	LLM      llm.Config
	Gmail    GmailSettings
	Sync     SyncSettings
	AMQP     AMQPSettings
	Ghost    GhostSettings
	Learned  LearnedSettings
	Metrics  MetricsSettings
	Sheets   sheets.Config
}

// DatabaseSettings locates the SQLite database and its backups.
type DatabaseSettings struct {
	Path       string
	BackupDir  string
	BackupKeep int
}

// LoggingSettings configures the global slog logger.
type LoggingSettings struct {
	Level  string
	Format string
}

// UserSettings identifies whose inbox is processed.
type UserSettings struct {
	ID    string
	Email string
}

// GmailSettings configures the Gmail mailbox.
type GmailSettings struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	Query        string
	CallbackAddr string
}

// OAuth returns the mailbox OAuth settings.
func (g GmailSettings) OAuth() mailbox.OAuthConfig {
	return mailbox.OAuthConfig{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		TokenFile:    g.TokenFile,
		CallbackAddr: g.CallbackAddr,
	}
}

// SyncSettings bounds intake sweeps.
type SyncSettings struct {
	MaxResults int
	Enrich     bool
}

// AMQPSettings points the worker at a broker. An empty URL selects the
// in-process scheduler.
type AMQPSettings struct {
	URL string
}

// GhostSettings configures ghost detection.
type GhostSettings struct {
	ThresholdDays int
	Interval      time.Duration
}

// LearnedSettings configures the learned filter.
type LearnedSettings struct {
	MinExamples         int
	ConfidenceThreshold float64
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	Addr string
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	dir := Dir()
	v.SetDefault("database.path", filepath.Join(dir, "orbit.db"))
	v.SetDefault("database.backup_dir", filepath.Join(dir, "backups"))
	v.SetDefault("database.backup_keep", storage.DefaultBackupKeep)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("user.id", "default")
	v.SetDefault("llm.provider", "groq")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.rate_limit", 30)
	v.SetDefault("llm.cache_ttl", 24*time.Hour)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_input_chars", 2000)
	v.SetDefault("gmail.token_file", filepath.Join(dir, "token.json"))
	v.SetDefault("gmail.query", mailbox.DefaultQuery)
	v.SetDefault("gmail.callback_addr", "localhost:8080")
	v.SetDefault("sync.max_results", pipeline.DefaultMaxResults)
	v.SetDefault("sync.enrich", true)
	v.SetDefault("ghost.threshold_days", ghost.DefaultThresholdDays)
	v.SetDefault("ghost.interval", 24*time.Hour)
	v.SetDefault("learned.min_examples", learned.DefaultMinExamples)
	v.SetDefault("learned.confidence_threshold", learned.DefaultConfidenceThreshold)
	v.SetDefault("metrics.addr", ":9090")
	sheetDefaults := sheets.DefaultConfig()
	v.SetDefault("sheets.spreadsheet_name", sheetDefaults.SpreadsheetName)
	v.SetDefault("sheets.time_zone", sheetDefaults.TimeZone)
	v.SetDefault("sheets.batch_size", sheetDefaults.BatchSize)
	v.SetDefault("sheets.retry_attempts", sheetDefaults.RetryAttempts)
	v.SetDefault("sheets.retry_delay", sheetDefaults.RetryDelay)
	v.SetDefault("sheets.formatting", sheetDefaults.EnableFormatting)
}

// Load resolves settings from v and validates them.
func Load(v *viper.Viper) (*Settings, error) {
	SetDefaults(v)

	s := &Settings{
		Database: DatabaseSettings{
			Path:       ExpandPath(v.GetString("database.path")),
			BackupDir:  ExpandPath(v.GetString("database.backup_dir")),
			BackupKeep: v.GetInt("database.backup_keep"),
		},
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		User: UserSettings{
			ID:    v.GetString("user.id"),
			Email: v.GetString("user.email"),
		},
		LLM: llm.Config{
			Provider:      strings.ToLower(v.GetString("llm.provider")),
			APIKey:        v.GetString("llm.api_key"),
			BaseURL:       v.GetString("llm.base_url"),
			Model:         v.GetString("llm.model"),
			Timeout:       v.GetDuration("llm.timeout"),
			CacheTTL:      v.GetDuration("llm.cache_ttl"),
			RateLimit:     v.GetInt("llm.rate_limit"),
			Temperature:   v.GetFloat64("llm.temperature"),
			MaxInputChars: v.GetInt("llm.max_input_chars"),
		},
		Gmail: GmailSettings{
			ClientID:     v.GetString("gmail.client_id"),
			ClientSecret: v.GetString("gmail.client_secret"),
			TokenFile:    ExpandPath(v.GetString("gmail.token_file")),
			Query:        v.GetString("gmail.query"),
			CallbackAddr: v.GetString("gmail.callback_addr"),
		},
		Sync: SyncSettings{
			MaxResults: v.GetInt("sync.max_results"),
			Enrich:     v.GetBool("sync.enrich"),
		},
		AMQP: AMQPSettings{URL: v.GetString("amqp.url")},
		Ghost: GhostSettings{
			ThresholdDays: v.GetInt("ghost.threshold_days"),
			Interval:      v.GetDuration("ghost.interval"),
		},
		Learned: LearnedSettings{
			MinExamples:         v.GetInt("learned.min_examples"),
			ConfidenceThreshold: v.GetFloat64("learned.confidence_threshold"),
		},
		Metrics: MetricsSettings{Addr: v.GetString("metrics.addr")},
		Sheets: sheets.Config{
			ClientID:           v.GetString("sheets.client_id"),
			ClientSecret:       v.GetString("sheets.client_secret"),
			RefreshToken:       v.GetString("sheets.refresh_token"),
			ServiceAccountPath: ExpandPath(v.GetString("sheets.service_account_path")),
			SpreadsheetID:      v.GetString("sheets.spreadsheet_id"),
			SpreadsheetName:    v.GetString("sheets.spreadsheet_name"),
			TimeZone:           v.GetString("sheets.time_zone"),
			BatchSize:          v.GetInt("sheets.batch_size"),
			RetryAttempts:      v.GetInt("sheets.retry_attempts"),
			RetryDelay:         v.GetDuration("sheets.retry_delay"),
			EnableFormatting:   v.GetBool("sheets.formatting"),
		},
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks value ranges. Credentials are checked by the commands that
// need them, so offline commands work without any.
func (s *Settings) Validate() error {
	var problems []string
	if s.Database.Path == "" {
		problems = append(problems, "database.path is required")
	}
	if s.Database.BackupKeep < 1 {
		problems = append(problems, "database.backup_keep must be at least 1")
	}
	if _, err := common.ParseLevel(s.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", s.Logging.Level))
	}
	if s.Logging.Format != "console" && s.Logging.Format != "json" {
		problems = append(problems, fmt.Sprintf("logging.format %q is not console or json", s.Logging.Format))
	}
	if strings.TrimSpace(s.User.ID) == "" {
		problems = append(problems, "user.id is required")
	}
	if s.LLM.Provider != "" && s.LLM.Provider != "openai" && s.LLM.Provider != "groq" {
		problems = append(problems, fmt.Sprintf("llm.provider %q is not openai or groq", s.LLM.Provider))
	}
	if s.LLM.Timeout <= 0 {
		problems = append(problems, "llm.timeout must be positive")
	}
	if s.LLM.RateLimit < 1 {
		problems = append(problems, "llm.rate_limit must be at least 1")
	}
	if s.Sync.MaxResults < 1 || s.Sync.MaxResults > 500 {
		problems = append(problems, "sync.max_results must be between 1 and 500")
	}
	if s.Ghost.ThresholdDays < 1 {
		problems = append(problems, "ghost.threshold_days must be at least 1")
	}
	if s.Ghost.Interval < time.Minute {
		problems = append(problems, "ghost.interval must be at least 1m")
	}
	if s.Learned.MinExamples < 2 {
		problems = append(problems, "learned.min_examples must be at least 2")
	}
	if t := s.Learned.ConfidenceThreshold; t <= 0.5 || t > 1 {
		problems = append(problems, "learned.confidence_threshold must be in (0.5, 1]")
	}

	if s.Sheets.Configured() {
		if err := s.Sheets.Validate(); err != nil {
			problems = append(problems, "sheets: "+err.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// LLMEnabled reports whether an API key is configured.
func (s *Settings) LLMEnabled() bool {
	return s.LLM.APIKey != ""
}
