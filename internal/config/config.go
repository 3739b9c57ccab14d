// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package config loads aptx settings from config.yaml in the data directory.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DataDirEnv overrides the default data directory.
	DataDirEnv = "APTX_DATA"

	// NodeURLEnv overrides node_url from config.yaml.
	NodeURLEnv = "APTX_NODE_URL"

	// DefaultDataDir is used when neither -d nor APTX_DATA is given.
	DefaultDataDir = "~/.aptx"

	// DefaultKeyFile is the key file name, relative to the data directory.
	DefaultKeyFile = "account.key"

	// DefaultTimeoutSeconds bounds every ledger request.
	DefaultTimeoutSeconds = 30

	configFileName = "config.yaml"
)

// Config holds aptx configuration settings
type Config struct {
	NodeURL             string `yaml:"node_url" description:"Ledger node base URL, e.g. http://localhost:8080/v1"`
	TimeoutSeconds      int    `yaml:"timeout_seconds" description:"Per-request timeout for ledger calls" default:"30"`
	KeyFile             string `yaml:"key_file" description:"Key file path (relative to data dir)" default:"account.key"`
	LocalSigningMessage bool   `yaml:"local_signing_message" description:"Compute the signing message locally and reject mismatching ledger responses" default:"false"`
}

// DefaultConfig returns the default configuration.
// NodeURL is intentionally empty - it must be configured explicitly.
func DefaultConfig() Config {
	return Config{
		TimeoutSeconds: DefaultTimeoutSeconds,
		KeyFile:        DefaultKeyFile,
	}
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// ResolveDataDir returns the data directory from: flag > env var > default.
func ResolveDataDir(flagValue string) string {
	if flagValue != "" {
		return ExpandPath(flagValue)
	}
	if envDir := os.Getenv(DataDirEnv); envDir != "" {
		return ExpandPath(envDir)
	}
	return ExpandPath(DefaultDataDir)
}

// ResolvePath makes path absolute relative to dataDir.
func ResolvePath(path, dataDir string) string {
	path = ExpandPath(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dataDir, path)
}

// Load reads config.yaml from dataDir. A missing file yields the defaults.
// Relative paths are resolved against dataDir and APTX_NODE_URL overrides node_url.
func Load(dataDir string) (Config, error) {
	cfg, err := LoadFromPath(filepath.Join(dataDir, configFileName))
	if err != nil {
		return cfg, err
	}

	if env := os.Getenv(NodeURLEnv); env != "" {
		cfg.NodeURL = env
		if err := validateNodeURL(cfg.NodeURL); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", NodeURLEnv, err)
		}
	}

	cfg.KeyFile = ResolvePath(cfg.KeyFile, dataDir)
	return cfg, nil
}

// LoadFromPath loads configuration from the specified path.
// If the file doesn't exist, returns default config.
func LoadFromPath(path string) (Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay config file values
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.TimeoutSeconds < 0 {
		return Config{}, fmt.Errorf("timeout_seconds must not be negative, got %d", cfg.TimeoutSeconds)
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.KeyFile == "" {
		cfg.KeyFile = DefaultKeyFile
	}
	if cfg.NodeURL != "" {
		if err := validateNodeURL(cfg.NodeURL); err != nil {
			return Config{}, fmt.Errorf("invalid node_url: %w", err)
		}
	}

	return cfg, nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RequireNodeURL returns NodeURL or an error explaining how to set it.
func (c *Config) RequireNodeURL() (string, error) {
	if c.NodeURL == "" {
		return "", fmt.Errorf("ledger node not configured: set node_url in %s or %s", configFileName, NodeURLEnv)
	}
	return c.NodeURL, nil
}

func validateNodeURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q must be an absolute http(s) URL", raw)
	}
	return nil
}
