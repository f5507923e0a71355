package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigPathEnvVar overrides the default configuration file location.
	ConfigPathEnvVar = "SNOWNODE_CONFIG"

	// PasswordEnvVar supplies the Wi-Fi passphrase without storing it on disk.
	PasswordEnvVar = "SNOWNODE_WIFI_PASSWORD"

	defaultConfigPath = "/etc/snownode/config.yaml"
)

// DefaultPath returns the configuration file path: $SNOWNODE_CONFIG when set,
// otherwise /etc/snownode/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	return defaultConfigPath
}

// Load reads, defaults and validates the configuration at path.
// Fields missing from the file keep their Default() values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML on top of Default(), applies environment overrides
// and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if pw, ok := os.LookupEnv(PasswordEnvVar); ok {
		c.WiFi.Password = pw
	}
}

// Save writes the configuration to path atomically.
// The Wi-Fi password is never written; supply it via SNOWNODE_WIFI_PASSWORD.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.WiFi.Password = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# snownode configuration
#
# The Wi-Fi passphrase is not stored here. Provide it through the
# ` + PasswordEnvVar + ` environment variable (e.g. a systemd EnvironmentFile).
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Template returns a configuration suitable for `snownode config init`:
// the defaults plus placeholder values for the required fields.
func Template() *Config {
	cfg := Default()
	cfg.WiFi.SSID = "my-network"
	cfg.Webhook.URL = "https://collector.example.com/hooks/snow"
	cfg.Indicator.FaultPins = []string{"GPIO17"}
	cfg.OTA.Files = []string{"snownode"}
	return cfg
}
