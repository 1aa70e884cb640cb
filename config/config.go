// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the client configuration from a YAML file,
// falling back to defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is everything the client needs to run: where the local
// database lives, how to reach the backend, and how the sync loop
// behaves. ListenAddr only matters to the reference server command.
type Config struct {
	DatabasePath string   `yaml:"database_path"`
	ServerURL    string   `yaml:"server_url"`
	JWTSecret    string   `yaml:"jwt_secret"`
	Owner        string   `yaml:"owner"`
	SyncInterval Duration `yaml:"sync_interval"`
	TokenTTL     Duration `yaml:"token_ttl"`
	ListenAddr   string   `yaml:"listen_addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DatabasePath: "ranked.db",
		ServerURL:    "http://localhost:8080",
		JWTSecret:    "dev-secret-change-me",
		SyncInterval: Duration(30 * time.Second),
		TokenTTL:     Duration(time.Hour),
		ListenAddr:   ":8080",
	}
}

// Load reads path and overlays it on Default. A missing file is not an
// error; the defaults stand. path == "" skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("config: database_path is required")
	}
	if c.ServerURL == "" {
		return fmt.Errorf("config: server_url is required")
	}
	if c.SyncInterval.Std() <= 0 {
		return fmt.Errorf("config: sync_interval must be positive")
	}
	if c.TokenTTL.Std() <= 0 {
		return fmt.Errorf("config: token_ttl must be positive")
	}
	return nil
}
