// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads the Gitomaster settings file. Settings come from,
// in increasing precedence: defaults, gitomaster.yaml (system-wide, user,
// or current directory), environment variables prefixed GITOMASTER, and
// command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	// Repo is the URI of the gitolite-admin repository.
	Repo string `mapstructure:"repo" yaml:"repo"`
	// Workdir is where the repository is checked out. Empty means a
	// directory under the user cache dir.
	Workdir string `mapstructure:"workdir" yaml:"workdir"`
	// Language selects the CLI output language ("en", "de").
	Language string `mapstructure:"language" yaml:"language"`
	// Debug enables debug logging.
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Gitomaster")
		default: // Linux, macOS, etc.
			configDir = "/etc/gitomaster"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "gitomaster")
	}

	return filepath.Join(configDir, "gitomaster.yaml"), nil
}

// Load resolves the configuration for a command invocation. An explicit
// config file path (from the --config flag) takes precedence over the
// standard search locations.
func Load(cmd *cobra.Command, defaults map[string]any, explicitFile string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("gitomaster")
	v.SetConfigType("yaml")

	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// Running without a config file is fine; everything can come
		// from flags and environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("gitomaster")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}
	// The flag is spelled --lang, the config key is "language".
	if f := cmd.Flags().Lookup("lang"); f != nil {
		if err := v.BindPFlag("language", f); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// Write persists the configuration to the user (or system) config file.
func Write(c *Config, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, 0o600)
}
