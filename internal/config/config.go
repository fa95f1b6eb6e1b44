// Package config loads the per-user envsync configuration and the optional
// per-directory scan options file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jenian/envsync/internal/envfile"
)

// Keys recognized in the user config file.
const (
	keyCentralProject     = "SECRETS_CENTRAL_PROJECT"
	keyDefaultEnvironment = "DEFAULT_ENVIRONMENT"
)

// Config is the (central namespace, default environment) pair written by
// `envsync init` and read by every other command.
type Config struct {
	CentralProject     string
	DefaultEnvironment string
}

// Path returns the fixed per-user config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "envsync", "config"), nil
}

// Load reads the user config file. A missing file yields a zero Config and
// no error; callers decide whether an unset central project is fatal.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	entries, err := envfile.ParseFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	for _, e := range entries {
		switch e.Key {
		case keyCentralProject:
			cfg.CentralProject = e.Value
		case keyDefaultEnvironment:
			cfg.DefaultEnvironment = e.Value
		}
	}
	return cfg, nil
}

// Save writes the user config file, creating its directory if needed.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return saveTo(path, cfg)
}

func saveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	content := envfile.Render([]envfile.Entry{
		{Key: keyCentralProject, Value: cfg.CentralProject},
		{Key: keyDefaultEnvironment, Value: cfg.DefaultEnvironment},
	})
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ScanOptions is the optional .envsync.yaml file at a scan root.
type ScanOptions struct {
	Ignores IgnoresOptions `yaml:"ignores"`
}

// IgnoresOptions contains ignore rules applied during discovery.
type IgnoresOptions struct {
	// Folders lists extra directory names discovery should skip.
	Folders []string `yaml:"folders"`
}

// LoadScanOptions loads .envsync.yaml from rootPath. A missing file returns
// default options.
func LoadScanOptions(rootPath string) (*ScanOptions, error) {
	optionsPath := filepath.Join(rootPath, ".envsync.yaml")

	data, err := os.ReadFile(optionsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &ScanOptions{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", optionsPath, err)
	}

	var opts ScanOptions
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", optionsPath, err)
	}
	return &opts, nil
}
