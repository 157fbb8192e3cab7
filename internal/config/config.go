// Package config loads and validates feed bot configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Keywords   []string       `mapstructure:"keywords"`
	Categories []string       `mapstructure:"categories"`
	MaxDaysOld int            `mapstructure:"max_days_old"`
	RSS        RSSConfig      `mapstructure:"rss"`
	Paths      PathsConfig    `mapstructure:"paths"`
	History    HistoryConfig  `mapstructure:"history"`
	Notion     NotionConfig   `mapstructure:"notion"`
	Email      EmailConfig    `mapstructure:"email"`
	Schedule   ScheduleConfig `mapstructure:"schedule"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
	Logging    LoggingConfig  `mapstructure:"logging"`
}

// RSSConfig sets the generated feed's channel metadata.
type RSSConfig struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
}

// PathsConfig sets where documents and ledgers live on disk.
type PathsConfig struct {
	OutputDir  string `mapstructure:"output_dir"`
	HistoryDir string `mapstructure:"history_dir"`
	LedgerFile string `mapstructure:"ledger_file"`
	SearchFile string `mapstructure:"search_file"`
}

// HistoryConfig toggles the per-run audit documents.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// NotionConfig governs the remote database sink.
type NotionConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Token        string `mapstructure:"integration_token"`
	DatabaseID   string `mapstructure:"database_id"`
	PublishLimit int    `mapstructure:"publish_limit"`
	PublishOnRun bool   `mapstructure:"publish_on_run"`
}

// EmailConfig controls failure notifications.
type EmailConfig struct {
	OnError  bool   `mapstructure:"on_error"`
	Host     string `mapstructure:"smtp_host"`
	Port     int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"smtp_username"`
	Password string `mapstructure:"smtp_password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// ScheduleConfig sets the daily run hour for schedule mode.
type ScheduleConfig struct {
	RunHour int `mapstructure:"run_hour"`
}

// MetricsConfig controls the Prometheus endpoint in schedule mode.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FEEDBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("categories", []string{"cs.AI"})
	v.SetDefault("max_days_old", 30)
	v.SetDefault("rss.title", "arXiv Feed Bot - Personalized Papers")
	v.SetDefault("rss.description", "Automatically filtered arXiv papers based on your research interests")
	v.SetDefault("paths.output_dir", "output")
	v.SetDefault("paths.history_dir", "history")
	v.SetDefault("paths.ledger_file", "notion_publish_history.json")
	v.SetDefault("paths.search_file", "search.yaml")
	v.SetDefault("history.enabled", true)
	v.SetDefault("notion.publish_limit", 30)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("schedule.run_hour", 8)
	v.SetDefault("metrics.port", 9091)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.MaxDaysOld <= 0 {
		return fmt.Errorf("max_days_old must be > 0")
	}
	if c.Schedule.RunHour < 0 || c.Schedule.RunHour > 23 {
		return fmt.Errorf("schedule.run_hour must be between 0 and 23")
	}
	if c.Notion.Enabled {
		if c.Notion.Token == "" {
			return fmt.Errorf("notion.integration_token must be set when notion is enabled")
		}
		if c.Notion.DatabaseID == "" {
			return fmt.Errorf("notion.database_id must be set when notion is enabled")
		}
	}
	if c.Email.OnError {
		if c.Email.Host == "" {
			return fmt.Errorf("email.smtp_host must be set when email.on_error is enabled")
		}
		if c.Email.To == "" {
			return fmt.Errorf("email.to must be set when email.on_error is enabled")
		}
	}
	return nil
}
