package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	API     API     `mapstructure:"api" yaml:"api"`
	Client  Client  `mapstructure:"client" yaml:"client"`
	Limits  Limits  `mapstructure:"limits" yaml:"limits"`
	Storage Storage `mapstructure:"storage" yaml:"storage"`
	MCP     MCP     `mapstructure:"mcp" yaml:"mcp"`
}

// API holds connection settings for the classification service.
type API struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SummaryTimeout time.Duration `mapstructure:"summary_timeout" yaml:"summary_timeout"`
	Retry          Retry         `mapstructure:"retry" yaml:"retry"`
}

// Retry holds the retry and circuit breaker settings applied to read calls.
type Retry struct {
	MaxAttempts    int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
	BreakerEnabled bool          `mapstructure:"breaker_enabled" yaml:"breaker_enabled"`
}

// Client holds local behaviour settings.
type Client struct {
	DataDir              string        `mapstructure:"data_dir" yaml:"data_dir"`
	ExportDir            string        `mapstructure:"export_dir" yaml:"export_dir"`
	LoginDelay           time.Duration `mapstructure:"login_delay" yaml:"login_delay"`
	NotificationDuration time.Duration `mapstructure:"notification_duration" yaml:"notification_duration"`
}

// Limits mirrors server-side quotas on the client.
type Limits struct {
	SummariesPerHour int `mapstructure:"summaries_per_hour" yaml:"summaries_per_hour"`
}

// Storage holds the optional S3/MinIO mirror for exported archives.
type Storage struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Version string `mapstructure:"version" yaml:"version"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		API: API{
			BaseURL:        "http://localhost:8000",
			Timeout:        60 * time.Second,
			SummaryTimeout: 120 * time.Second, // LLM summaries are slow
			Retry: Retry{
				MaxAttempts:    3,
				InitialBackoff: 200 * time.Millisecond,
				MaxBackoff:     2 * time.Second,
				BreakerEnabled: true,
			},
		},
		Client: Client{
			DataDir:              defaultDataDir(),
			ExportDir:            ".",
			LoginDelay:           500 * time.Millisecond,
			NotificationDuration: 4 * time.Second,
		},
		Limits: Limits{
			SummariesPerHour: 20, // matches the service's /summarize rate limit
		},
		Storage: Storage{
			Enabled:         false,
			Endpoint:        "localhost:9000",
			Bucket:          "smart-organizer",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		MCP: MCP{
			Name:    "smart-organizer",
			Version: "1.0.0",
		},
	}
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c Config) Redacted() Config {
	out := c
	if out.Storage.SecretAccessKey != "" {
		out.Storage.SecretAccessKey = "********"
	}
	return out
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "smart-organizer")
	}
	return ".smart-organizer"
}
