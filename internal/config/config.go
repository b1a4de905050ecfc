package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8085"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBPath      string `envconfig:"DB_PATH" default:"lexibridge.db"`

	SupabaseURL     string `envconfig:"SUPABASE_URL" default:""`
	SupabaseAnonKey string `envconfig:"SUPABASE_ANON_KEY" default:""`
	SupabaseToken   string `envconfig:"SUPABASE_TOKEN" default:""`
	SyncSchedule    string `envconfig:"SYNC_SCHEDULE" default:"*/5 * * * *"`

	DictionaryPath string `envconfig:"DICTIONARY_PATH" default:"result.json"`

	SecretsKey string `envconfig:"SECRETS_KEY" default:""`

	TargetLang          string `envconfig:"TARGET_LANG" default:"zh"`
	SourceLang          string `envconfig:"SOURCE_LANG" default:"auto"`
	PriorityOrder       string `envconfig:"PRIORITY_ORDER" default:""`
	DictionaryExclusive bool   `envconfig:"DICTIONARY_EXCLUSIVE" default:"false"`
	MinIntervalMS       int    `envconfig:"MIN_INTERVAL_MS" default:"500"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" && strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("either DATABASE_URL or DB_PATH is required")
	}
	if c.MinIntervalMS < 0 {
		return fmt.Errorf("MIN_INTERVAL_MS must be >= 0")
	}
	if strings.TrimSpace(c.TargetLang) == "" {
		return fmt.Errorf("TARGET_LANG is required")
	}
	if (c.SupabaseURL == "") != (c.SupabaseAnonKey == "") {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY must be set together")
	}
	return nil
}

// PriorityOrderList splits PRIORITY_ORDER into provider names, dropping
// blanks and duplicates.
func (c *Config) PriorityOrderList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.PriorityOrder, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// CORSAllowedOriginsList splits CORS_ALLOWED_ORIGINS into origins,
// dropping blanks and duplicates.
func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
