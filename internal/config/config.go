// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the companionctl controller configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ctlerrors "github.com/tombee/companionctl/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config is the complete controller configuration.
type Config struct {
	// Home is the companion installation directory. Relative paths in the
	// rest of the configuration resolve against it.
	// Environment: COMPANIONCTL_HOME
	Home string `yaml:"home"`

	// Identity is the name used to find the companion in the process table.
	// Environment: COMPANIONCTL_IDENTITY
	Identity string `yaml:"identity"`

	// Launch describes how the companion is executed.
	Launch LaunchConfig `yaml:"launch"`

	// StartTimeout bounds the wait for the companion to appear after spawn.
	// Environment: COMPANIONCTL_START_TIMEOUT
	StartTimeout time.Duration `yaml:"start_timeout"`

	// LockTimeout bounds the wait for a concurrent start to release the lock.
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// Layout names the files the controller manages under Home.
	Layout LayoutConfig `yaml:"layout"`

	// UserConfig is the minimal user config written on first run.
	UserConfig UserConfigDefaults `yaml:"user_config"`

	// Metadata locates the version query.
	Metadata MetadataConfig `yaml:"metadata"`

	// Log configures diagnostic logging.
	Log LogConfig `yaml:"log"`
}

// LaunchConfig describes the companion command line and environment.
type LaunchConfig struct {
	// Interpreter runs the entrypoint.
	// Environment: COMPANIONCTL_PYTHON
	Interpreter string `yaml:"interpreter"`

	// Entrypoint is the script passed to the interpreter.
	Entrypoint string `yaml:"entrypoint"`

	// ConfigFlag precedes the config path argument. Empty passes the path
	// as a bare positional argument.
	ConfigFlag string `yaml:"config_flag"`

	// LibraryPathVar is the environment variable pointing at bundled
	// dependencies.
	LibraryPathVar string `yaml:"library_path_var"`

	// LibraryDir holds the bundled dependencies.
	LibraryDir string `yaml:"library_dir"`

	// Env holds extra environment variables for the companion.
	Env map[string]string `yaml:"env,omitempty"`
}

// LayoutConfig names the managed files.
type LayoutConfig struct {
	LogDir          string `yaml:"log_dir"`
	LogFile         string `yaml:"log_file"`
	LifecycleLog    string `yaml:"lifecycle_log"`
	GeneratedDir    string `yaml:"generated_dir"`
	GeneratedConfig string `yaml:"generated_config"`
	ConfigLink      string `yaml:"config_link"`
	UserConfig      string `yaml:"user_config"`
	LockFile        string `yaml:"lock_file"`
}

// UserConfigDefaults is the single section/key written to a fresh user config.
type UserConfigDefaults struct {
	Section string `yaml:"section"`
	Key     string `yaml:"key"`

	// MoonrakerURI is the connection endpoint value.
	// Environment: COMPANIONCTL_MOONRAKER_URI
	MoonrakerURI string `yaml:"moonraker_uri"`
}

// MetadataConfig locates the metadata document and the version field.
type MetadataConfig struct {
	File         string `yaml:"file"`
	VersionQuery string `yaml:"version_query"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Home:     defaultHome(),
		Identity: "mobileraker.py",
		Launch: LaunchConfig{
			Interpreter:    "python3",
			Entrypoint:     "mobileraker.py",
			ConfigFlag:     "-c",
			LibraryPathVar: "PYTHONPATH",
			LibraryDir:     "lib",
		},
		StartTimeout: 10 * time.Second,
		LockTimeout:  15 * time.Second,
		Layout: LayoutConfig{
			LogDir:          "logs",
			LogFile:         "logs/companion.log",
			LifecycleLog:    "logs/lifecycle.log",
			GeneratedDir:    "generated",
			GeneratedConfig: "generated/companion.conf",
			ConfigLink:      "companion.conf",
			UserConfig:      "companion.user.conf",
			LockFile:        ".companionctl.lock",
		},
		UserConfig: UserConfigDefaults{
			Section:      "printer default",
			Key:          "moonraker_uri",
			MoonrakerURI: "ws://127.0.0.1:7125/websocket",
		},
		Metadata: MetadataConfig{
			File:         "app.json",
			VersionQuery: ".version",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads configuration from configPath (if non-empty), fills defaults,
// applies environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &ctlerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	// Minimal files leave most fields zero
	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, &ctlerrors.ConfigError{
			Key:    "environment",
			Reason: "invalid environment override",
			Cause:  err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ctlerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values with defaults. Keys set to "" in the
// file get their default back; launch.config_flag is the exception since
// an empty flag is meaningful.
func (c *Config) applyDefaults() {
	d := Default()

	setDefault(&c.Home, d.Home)
	setDefault(&c.Identity, d.Identity)

	setDefault(&c.Launch.Interpreter, d.Launch.Interpreter)
	setDefault(&c.Launch.Entrypoint, d.Launch.Entrypoint)
	setDefault(&c.Launch.LibraryPathVar, d.Launch.LibraryPathVar)
	setDefault(&c.Launch.LibraryDir, d.Launch.LibraryDir)

	if c.StartTimeout == 0 {
		c.StartTimeout = d.StartTimeout
	}
	if c.LockTimeout == 0 {
		c.LockTimeout = d.LockTimeout
	}

	setDefault(&c.Layout.LogDir, d.Layout.LogDir)
	setDefault(&c.Layout.LogFile, d.Layout.LogFile)
	setDefault(&c.Layout.LifecycleLog, d.Layout.LifecycleLog)
	setDefault(&c.Layout.GeneratedDir, d.Layout.GeneratedDir)
	setDefault(&c.Layout.GeneratedConfig, d.Layout.GeneratedConfig)
	setDefault(&c.Layout.ConfigLink, d.Layout.ConfigLink)
	setDefault(&c.Layout.UserConfig, d.Layout.UserConfig)
	setDefault(&c.Layout.LockFile, d.Layout.LockFile)

	setDefault(&c.UserConfig.Section, d.UserConfig.Section)
	setDefault(&c.UserConfig.Key, d.UserConfig.Key)
	setDefault(&c.UserConfig.MoonrakerURI, d.UserConfig.MoonrakerURI)

	setDefault(&c.Metadata.File, d.Metadata.File)
	setDefault(&c.Metadata.VersionQuery, d.Metadata.VersionQuery)

	setDefault(&c.Log.Level, d.Log.Level)
	setDefault(&c.Log.Format, d.Log.Format)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (c *Config) loadFromFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ctlerrors.Wrap(err, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return ctlerrors.Wrapf(err, "failed to parse YAML in %s", path)
	}

	return nil
}

// loadFromEnv applies COMPANIONCTL_* overrides.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv("COMPANIONCTL_HOME"); val != "" {
		c.Home = val
	}
	if val := os.Getenv("COMPANIONCTL_IDENTITY"); val != "" {
		c.Identity = val
	}
	if val := os.Getenv("COMPANIONCTL_PYTHON"); val != "" {
		c.Launch.Interpreter = val
	}
	if val := os.Getenv("COMPANIONCTL_MOONRAKER_URI"); val != "" {
		c.UserConfig.MoonrakerURI = val
	}
	if val := os.Getenv("COMPANIONCTL_START_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return &ctlerrors.ValidationError{
				Field:   "COMPANIONCTL_START_TIMEOUT",
				Message: err.Error(),
				Hint:    "use a Go duration such as 10s or 1m",
			}
		}
		c.StartTimeout = d
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	home, err := expandHome(c.Home)
	if err != nil {
		errs = append(errs, &ctlerrors.ValidationError{Field: "home", Message: err.Error()})
	} else {
		c.Home = home
	}
	if strings.TrimSpace(c.Home) == "" {
		errs = append(errs, &ctlerrors.ValidationError{
			Field:   "home",
			Message: "is required",
			Hint:    "set home in config.yaml or COMPANIONCTL_HOME",
		})
	}

	if strings.TrimSpace(c.Identity) == "" {
		errs = append(errs, &ctlerrors.ValidationError{Field: "identity", Message: "is required"})
	}
	if strings.TrimSpace(c.Launch.Interpreter) == "" {
		errs = append(errs, &ctlerrors.ValidationError{Field: "launch.interpreter", Message: "is required"})
	}

	if c.StartTimeout < 0 {
		errs = append(errs, &ctlerrors.ValidationError{Field: "start_timeout", Message: "must be positive"})
	}
	if c.LockTimeout < 0 {
		errs = append(errs, &ctlerrors.ValidationError{Field: "lock_timeout", Message: "must be positive"})
	}

	if strings.ContainsAny(c.UserConfig.Section, "[]\n") {
		errs = append(errs, &ctlerrors.ValidationError{Field: "user_config.section", Message: "must not contain brackets or newlines"})
	}
	if strings.ContainsAny(c.UserConfig.Key, ":=\n") {
		errs = append(errs, &ctlerrors.ValidationError{Field: "user_config.key", Message: "must not contain ':', '=' or newlines"})
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, &ctlerrors.ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("unsupported format %q", c.Log.Format),
			Hint:    "use json or text",
		})
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "mobileraker")
}
