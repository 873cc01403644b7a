// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScrapeConfig governs the web-scrape tool and its reader service.
type ScrapeConfig struct {
	ReaderBaseURL  string `mapstructure:"reader_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	DelayMs        int    `mapstructure:"delay_ms"`
	UserAgent      string `mapstructure:"user_agent"`
}

// KnowledgeConfig governs the knowledge-base query tool.
type KnowledgeConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOOLHOST")
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("scrape.reader_base_url", "https://r.jina.ai")
	v.SetDefault("scrape.timeout_seconds", 30)
	v.SetDefault("scrape.delay_ms", 0)
	v.SetDefault("scrape.user_agent", "assistant-tools/0.1")
	v.SetDefault("knowledge.base_url", "http://0.0.0.0:8082")
	v.SetDefault("knowledge.timeout_seconds", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scrape.ReaderBaseURL == "" {
		return fmt.Errorf("scrape.reader_base_url must be set")
	}
	if c.Scrape.TimeoutSeconds <= 0 {
		return fmt.Errorf("scrape.timeout_seconds must be > 0")
	}
	if c.Knowledge.BaseURL == "" {
		return fmt.Errorf("knowledge.base_url must be set")
	}
	if c.Knowledge.TimeoutSeconds <= 0 {
		return fmt.Errorf("knowledge.timeout_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// ScrapeTimeout converts the scrape timeout into a duration.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

// ScrapeDelay converts the inter-URL delay into a duration.
func (c Config) ScrapeDelay() time.Duration {
	return time.Duration(c.Scrape.DelayMs) * time.Millisecond
}

// KnowledgeTimeout converts the knowledge-base timeout into a duration.
func (c Config) KnowledgeTimeout() time.Duration {
	return time.Duration(c.Knowledge.TimeoutSeconds) * time.Second
}
