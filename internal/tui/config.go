package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes the terminal client. Loaded from YAML; every field has a default.
type Config struct {
	ServerURL      string
	DataDir        string
	RequestTimeout time.Duration
	Theme          string
	LogFile        string
}

// fileConfig is the on-disk shape; the timeout is a duration string like "90s".
type fileConfig struct {
	ServerURL      string `yaml:"server_url"`
	DataDir        string `yaml:"data_dir"`
	RequestTimeout string `yaml:"request_timeout"`
	Theme          string `yaml:"theme"`
	LogFile        string `yaml:"log_file"`
}

// LoadConfig reads the YAML config at path. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	var raw fileConfig

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg := &Config{
		ServerURL: raw.ServerURL,
		DataDir:   raw.DataDir,
		Theme:     raw.Theme,
		LogFile:   raw.LogFile,
	}
	if raw.RequestTimeout != "" {
		timeout, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse request_timeout: %w", err)
		}
		cfg.RequestTimeout = timeout
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = "http://localhost:8000"
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.DataDir = filepath.Join(home, ".docuchat")
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 120 * time.Second
	}
	if c.Theme == "" {
		c.Theme = "dark"
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "docuchat.log")
	}
}
