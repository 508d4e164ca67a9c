package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - DROPOUT_CONFIG_PATH: config file location (default: ~/.config/dropout.toml)
//   - DROPOUT_HOME: base directory for dropout data (default: ~/.local/share/dropout)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking DROPOUT_CONFIG_PATH env var
// first, then falling back to the default ~/.config/dropout.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("DROPOUT_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "dropout.toml"), nil
}

// getBaseDir returns the base directory for dropout data, checking DROPOUT_HOME
// env var first, then falling back to the XDG default ~/.local/share/dropout.
func getBaseDir() (string, error) {
	if path := os.Getenv("DROPOUT_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "dropout"), nil
}
