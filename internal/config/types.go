package config

import "time"

// Config represents the complete fumo configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service" envPrefix:"SERVICE_"`
	State    StateConfig    `yaml:"state" envPrefix:"STATE_"`
	Bot      BotConfig      `yaml:"bot" envPrefix:"BOT_"`
	Filter   FilterConfig   `yaml:"filter" envPrefix:"FILTER_"`
	Outbound OutboundConfig `yaml:"outbound" envPrefix:"OUTBOUND_"`
	Website  WebsiteConfig  `yaml:"website" envPrefix:"WEBSITE_"`
	Audit    AuditConfig    `yaml:"audit" envPrefix:"AUDIT_"`
}

// ServiceConfig defines process-level settings.
type ServiceConfig struct {
	Name     string `yaml:"name" env:"NAME"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// StateConfig defines where the SQLite database lives.
type StateConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// BotConfig controls command dispatch.
type BotConfig struct {
	// UserID is the bot's own chat identity.
	UserID          string        `yaml:"user_id" env:"USER_ID"`
	GlobalPrefix    string        `yaml:"global_prefix" env:"GLOBAL_PREFIX"`
	DefaultCooldown time.Duration `yaml:"default_cooldown" env:"DEFAULT_COOLDOWN"`
	CommandTimeout  time.Duration `yaml:"command_timeout" env:"COMMAND_TIMEOUT"`
	MaxConcurrent   int           `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
}

// FilterConfig controls outgoing content filtering.
type FilterConfig struct {
	// GlobalPatterns are regular expressions applied to every non-exempt reply.
	GlobalPatterns    []string      `yaml:"global_patterns"`
	ModerationTimeout time.Duration `yaml:"moderation_timeout" env:"MODERATION_TIMEOUT"`
}

// OutboundConfig paces messages handed to the chat transport.
type OutboundConfig struct {
	// Rate is the minimum spacing between two sends once the burst is spent.
	Rate      time.Duration `yaml:"rate" env:"RATE"`
	Burst     int           `yaml:"burst" env:"BURST"`
	QueueSize int           `yaml:"queue_size" env:"QUEUE_SIZE"`
}

// WebsiteConfig defines the HTTP server exposing commands and logs.
type WebsiteConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Listen    string `yaml:"listen" env:"LISTEN"`
	PublicURL string `yaml:"public_url" env:"PUBLIC_URL"`
	// APIKey protects /logs. Empty disables the endpoint.
	APIKey string `yaml:"api_key" env:"API_KEY"`
}

// AuditConfig controls the command execution log.
type AuditConfig struct {
	Retention time.Duration `yaml:"retention" env:"RETENTION"`
	// PruneSchedule is a cron expression for deleting records older than
	// Retention.
	PruneSchedule string `yaml:"prune_schedule" env:"PRUNE_SCHEDULE"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "fumo",
			LogLevel: "info",
		},
		State: StateConfig{
			Path: "./data/fumo.db",
		},
		Bot: BotConfig{
			GlobalPrefix:    "!",
			DefaultCooldown: 5 * time.Second,
			CommandTimeout:  30 * time.Second,
			MaxConcurrent:   64,
		},
		Filter: FilterConfig{
			ModerationTimeout: 5 * time.Second,
		},
		Outbound: OutboundConfig{
			Rate:      1500 * time.Millisecond,
			Burst:     20,
			QueueSize: 256,
		},
		Website: WebsiteConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
		Audit: AuditConfig{
			Retention:     30 * 24 * time.Hour,
			PruneSchedule: "@hourly",
		},
	}
}
