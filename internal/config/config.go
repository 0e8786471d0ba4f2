// Package config manages the Prism CLI state under ~/.prism.
//
// The paths and the JSON shape are a fixed contract with the dashboard CLI;
// neither is platform-relocatable.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotConfigured indicates no config file exists yet; `prism sync` needs
// one to know the API endpoint and token.
var ErrNotConfigured = errors.New("prism is not configured, run the dashboard login first")

// Config is the local CLI state written by the dashboard login flow and
// consumed here. The core only reads it; auth flows are out of scope.
type Config struct {
	APIURL   string    `json:"api_url"`
	Token    string    `json:"token,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	Tier     string    `json:"tier,omitempty"`
	LastSync time.Time `json:"last_sync,omitempty"`
}

// Dir returns ~/.prism, creating nothing.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".prism"), nil
}

// Path returns the config file path ~/.prism/config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// SnapshotPath returns the rule cache path ~/.prism/rules/rules.json.
func SnapshotPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rules", "rules.json"), nil
}

// Load reads the config file. Returns ErrNotConfigured when absent.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config file with owner-only permissions; it carries a
// bearer token.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
