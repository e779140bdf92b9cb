package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

var ErrConfigNotFound = errors.New("config not found")

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	appDir := filepath.Join(configDir, "speechpipe")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(appDir, "config.toml"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: run speechpipe configure", ErrConfigNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	log.Printf("config: loading configuration from %s", configPath)
	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if config.Backends == nil {
		config.Backends = make(map[string]BackendConfig)
	}
	if config.SharedKeys == nil {
		config.SharedKeys = make(map[string]string)
	}
	config.applyThreadsDefault()

	return &config, nil
}

// Save writes the config atomically: to a temp file in the same directory,
// then renamed over the target.
func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(config, configPath)
}

func SaveTo(config *Config, configPath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(configPath), "config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(config); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), configPath); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configPath, err)
	}
	log.Printf("config: configuration saved to %s", configPath)
	return nil
}

// applyThreadsDefault picks a thread count for local recognition when the
// user left it at zero.
func (c *Config) applyThreadsDefault() {
	if c.Offline.Threads == 0 {
		threads := runtime.NumCPU() - 1
		if threads < 1 {
			threads = 1
		}
		c.Offline.Threads = threads
	}
}
