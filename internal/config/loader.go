package config

import (
	"fmt"
	"path/filepath"

	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/internal/fileutil"
	"github.com/spf13/viper"
)

// Load reads configuration from configPath, applies defaults, and validates
// the result. Environment variables prefixed BERTH_ override file values
// via Viper's AutomaticEnv binding. Cwd defaults to configPath's containing
// directory when the file doesn't set one.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("BERTH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, berrors.NewConfigurationError("", fmt.Sprintf("failed to read config from %s", configPath), err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, berrors.NewConfigurationError("", "failed to unmarshal config", err)
	}
	if cfg.Cwd == "" {
		cfg.Cwd = filepath.Dir(configPath)
	}

	result := cfg.WithDefaults()
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoadFromDir reads the .berth config file in dir with its own viper
// instance (the content is always parsed as YAML), applies BERTH_-prefixed
// environment overrides, then defaults and validation. It does not call Load.
func LoadFromDir(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".berth")
	v.AddConfigPath(dir)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BERTH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, berrors.NewConfigurationError("", fmt.Sprintf("failed to read config from %s", dir), err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, berrors.NewConfigurationError("", "failed to unmarshal config", err)
	}
	if cfg.Cwd == "" {
		cfg.Cwd = dir
	}

	result := cfg.WithDefaults()
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindConfig searches dir and its parents for a .berth.yaml file, stopping
// at the filesystem root.
func FindConfig(startDir string) (string, error) {
	dir := startDir
	names := []string{".berth.yaml", ".berth.yml", ".berth.json"}

	for {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if fileutil.PathExists(candidate) {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", berrors.NewConfigurationError("cwd", fmt.Sprintf("no .berth.yaml found in %s or parent directories", startDir), nil)
}
