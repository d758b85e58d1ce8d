package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configFilename = "config.yaml"
	dotenvFilename = ".env"

	// EnvPrefix namespaces environment overrides, e.g. FUMO_BOT_GLOBAL_PREFIX.
	EnvPrefix = "FUMO_"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ResolvePath turns a file or directory argument into the absolute config file path.
func ResolvePath(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, configFilename)
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but %s not found: %s", configFilename, absPath)
		}
	}
	return absPath, nil
}

// Load reads configuration from a file or a directory containing config.yaml.
//
// Order of precedence, lowest first: Defaults, the YAML file (after ${VAR}
// interpolation), then FUMO_* environment variables. A .env file next to the
// config is loaded first and never overrides variables already set.
func Load(configPath string) (*Config, error) {
	absPath, err := ResolvePath(configPath)
	if err != nil {
		return nil, err
	}
	configDir := filepath.Dir(absPath)

	if err := godotenv.Load(filepath.Join(configDir, dotenvFilename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotenvFilename, err)
	}

	if err := verifyConfigHashes(configDir, []string{absPath}); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg = applyConfigDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML over Defaults after ${VAR} interpolation. It does not
// apply environment overrides or validation.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	interpolated := interpolateEnv(string(data))
	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

func verifyConfigHashes(configDir string, paths []string) error {
	checksums, err := LoadChecksums(configDir)
	if err != nil {
		// No .checksums: integrity verification is opt-in.
		return nil
	}

	for _, path := range paths {
		basename := filepath.Base(path)
		expectedHash, ok := checksums.Hashes[basename]
		if !ok {
			return fmt.Errorf("config file %s has no hash in checksums at %s\n"+
				"Run: fumo config lock --config %s", basename, configDir, configDir)
		}

		if err := VerifyFileHash(path, expectedHash); err != nil {
			return fmt.Errorf("config verification failed for %s: %w\n"+
				"If you edited this file intentionally, run: fumo config lock --config %s", path, err, configDir)
		}
	}
	return nil
}

// applyConfigDefaults fills values that were explicitly zeroed in YAML or env.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.State.Path == "" {
		cfg.State.Path = defaults.State.Path
	}
	if cfg.Bot.DefaultCooldown == 0 {
		cfg.Bot.DefaultCooldown = defaults.Bot.DefaultCooldown
	}
	if cfg.Bot.CommandTimeout == 0 {
		cfg.Bot.CommandTimeout = defaults.Bot.CommandTimeout
	}
	if cfg.Bot.MaxConcurrent == 0 {
		cfg.Bot.MaxConcurrent = defaults.Bot.MaxConcurrent
	}
	if cfg.Filter.ModerationTimeout == 0 {
		cfg.Filter.ModerationTimeout = defaults.Filter.ModerationTimeout
	}
	if cfg.Outbound.Rate == 0 {
		cfg.Outbound.Rate = defaults.Outbound.Rate
	}
	if cfg.Outbound.Burst == 0 {
		cfg.Outbound.Burst = defaults.Outbound.Burst
	}
	if cfg.Outbound.QueueSize == 0 {
		cfg.Outbound.QueueSize = defaults.Outbound.QueueSize
	}
	if cfg.Website.Listen == "" {
		cfg.Website.Listen = defaults.Website.Listen
	}
	if cfg.Audit.Retention == 0 {
		cfg.Audit.Retention = defaults.Audit.Retention
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = defaults.Audit.PruneSchedule
	}
	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}

	if cfg.Bot.GlobalPrefix == "" {
		return fmt.Errorf("bot.global_prefix is required")
	}
	if err := positive("bot.default_cooldown", cfg.Bot.DefaultCooldown); err != nil {
		return err
	}
	if err := positive("bot.command_timeout", cfg.Bot.CommandTimeout); err != nil {
		return err
	}
	if cfg.Bot.MaxConcurrent < 1 {
		return fmt.Errorf("bot.max_concurrent must be at least 1")
	}

	for i, pattern := range cfg.Filter.GlobalPatterns {
		if pattern == "" {
			return fmt.Errorf("filter.global_patterns[%d] is empty", i)
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("filter.global_patterns[%d]: %w", i, err)
		}
	}
	if err := positive("filter.moderation_timeout", cfg.Filter.ModerationTimeout); err != nil {
		return err
	}

	if err := positive("outbound.rate", cfg.Outbound.Rate); err != nil {
		return err
	}
	if cfg.Outbound.Burst < 1 || cfg.Outbound.QueueSize < 1 {
		return fmt.Errorf("outbound.burst and outbound.queue_size must be at least 1")
	}

	if cfg.Website.Enabled && cfg.Website.Listen == "" {
		return fmt.Errorf("website.listen is required when the website is enabled")
	}
	if envVarPattern.MatchString(cfg.Website.APIKey) {
		matches := envVarPattern.FindStringSubmatch(cfg.Website.APIKey)
		return fmt.Errorf("website.api_key: environment variable ${%s} is not set", matches[1])
	}

	if !gronx.New().IsValid(cfg.Audit.PruneSchedule) {
		return fmt.Errorf("audit.prune_schedule: invalid cron expression %q", cfg.Audit.PruneSchedule)
	}
	return positive("audit.retention", cfg.Audit.Retention)
}

func positive(field string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}
