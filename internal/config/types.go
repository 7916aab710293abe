package config

import (
	"fmt"
	"time"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int         `yaml:"port"`
	Env            string      `yaml:"env"` // "development" | "production"
	DBPath         string      `yaml:"db_path"`
	StorageDir     string      `yaml:"storage_dir"` // artifact storage root
	JWTSecret      string      `yaml:"jwt_secret"`
	AllowedOrigins []string    `yaml:"allowed_origins"`
	Fetch          FetchConfig `yaml:"fetch"`
	AI             AIConfig    `yaml:"ai"`
}

// FetchConfig controls the scheduled paper fetch job.
type FetchConfig struct {
	Interval   Duration `yaml:"interval"`
	MaxResults int      `yaml:"max_results"`
}

// AIConfig configures the language-model provider.
type AIConfig struct {
	Provider string `yaml:"provider"` // "openai" | "anthropic" | "openai-compatible"
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }

// Duration wraps time.Duration for YAML values like "24h" or "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}
