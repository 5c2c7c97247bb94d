package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/zhaobenny/babylog/internal/publisher"
)

// DefaultSyncSchedule is the cron spec used by the sync service when none is configured
const DefaultSyncSchedule = "@hourly"

// Config holds the CLI configuration
type Config struct {
	Server       string           `yaml:"server,omitempty"`
	APIKey       string           `yaml:"api_key,omitempty"`
	ClientID     string           `yaml:"client_id,omitempty"`
	File         string           `yaml:"file,omitempty"`          // default log file (CSV or XLSX)
	SyncSchedule string           `yaml:"sync_schedule,omitempty"` // cron spec, e.g. "@every 30m"
	MQTT         publisher.Config `yaml:"mqtt,omitempty"`
}

// Path returns the path to the config file. BABYLOG_CONFIG overrides
// the default of ~/.babylog.yaml.
func Path() (string, error) {
	if p := os.Getenv("BABYLOG_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".babylog.yaml"), nil
}

// Load loads the configuration from disk; a missing file yields an empty config
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save saves the configuration to disk
func Save(cfg *Config) error {
	// Generate client ID if not set
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}

	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// GetSyncSchedule returns the configured sync schedule or the hourly default
func (c *Config) GetSyncSchedule() string {
	if c.SyncSchedule == "" {
		return DefaultSyncSchedule
	}
	return c.SyncSchedule
}

// CanSync reports whether a server and API key are configured
func (c *Config) CanSync() bool {
	return c.Server != "" && c.APIKey != ""
}
