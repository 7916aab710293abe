package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort          = 5006
	defaultEnv           = "development"
	defaultDBPath        = "paperbase.db"
	defaultStorageDir    = "./papers"
	defaultFetchInterval = 24 * time.Hour
	defaultMaxResults    = 5
	defaultAIProvider    = "openai-compatible"
	defaultAIEndpoint    = "https://api.deepseek.com"
	defaultAIModel       = "deepseek-chat"
)

// Load reads the YAML config file and applies defaults and environment
// overrides. A missing file is not an error; the defaults plus environment
// are enough to run.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = defaultStorageDir
	}
	if cfg.Fetch.Interval.Duration <= 0 {
		cfg.Fetch.Interval.Duration = defaultFetchInterval
	}
	if cfg.Fetch.MaxResults <= 0 {
		cfg.Fetch.MaxResults = defaultMaxResults
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = defaultAIProvider
	}
	if cfg.AI.Endpoint == "" {
		cfg.AI.Endpoint = defaultAIEndpoint
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultAIModel
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := envString("PAPERBASE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := envString("PAPERBASE_ENV"); v != "" {
		cfg.Env = v
	}
	if v := envString("PAPERBASE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := envString("PAPERBASE_STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := envString("PAPERBASE_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := envString("PAPERBASE_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := envString("PAPERBASE_AI_ENDPOINT"); v != "" {
		cfg.AI.Endpoint = v
	}
	if v := envString("PAPERBASE_AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := envString("PAPERBASE_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := envString("PAPERBASE_FETCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Fetch.Interval.Duration = d
		}
	}
	if v := envString("PAPERBASE_FETCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Fetch.MaxResults = n
		}
	}
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
