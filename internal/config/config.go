package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults applied by NewConfig and normalize.
const (
	DefaultMinMemoryMB = 1024
	DefaultMaxMemoryMB = 2048
	DefaultThreads     = 32
	DefaultJavaPath    = "java"
)

// Config represents the main configuration for dropout.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	GameDir    string           `toml:"game_dir"`
	LogDir     string           `toml:"log_dir"`
	Game       GameConfig       `toml:"game"`
	Download   DownloadConfig   `toml:"download"`
	Accounts   AccountsConfig   `toml:"accounts"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// GameConfig holds the JVM and launch settings.
type GameConfig struct {
	JavaPath    string `toml:"java_path"`
	MinMemoryMB int    `toml:"min_memory_mb"`
	MaxMemoryMB int    `toml:"max_memory_mb"`
}

// DownloadConfig holds artifact download settings.
type DownloadConfig struct {
	Threads int `toml:"threads"` // concurrent downloads; clamped at run time
}

// AccountsConfig represents configuration for the account store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type AccountsConfig struct {
	Type    string `toml:"type"`               // "sqlite" (default) or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// EncryptionConfig represents configuration for token encryption at rest.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type EncryptionConfig struct {
	Type         string `toml:"type"`                    // "age" (default), "none", or "test"
	IdentityPath string `toml:"identity_path,omitempty"` // only used for type=age
}

// NewConfig creates a new Config with the provided base directory and
// default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		GameDir: filepath.Join(baseDir, "minecraft"),
		LogDir:  filepath.Join(baseDir, "log"),
		Game: GameConfig{
			JavaPath:    DefaultJavaPath,
			MinMemoryMB: DefaultMinMemoryMB,
			MaxMemoryMB: DefaultMaxMemoryMB,
		},
		Download: DownloadConfig{Threads: DefaultThreads},
		Accounts: AccountsConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Encryption: EncryptionConfig{
			Type:         "age",
			IdentityPath: filepath.Join(baseDir, "keys", "dropout.key"),
		},
	}
}

// normalize fills in zero values so a sparse config file still yields a
// usable configuration.
func (c *Config) normalize() {
	if c.GameDir == "" && c.BaseDir != "" {
		c.GameDir = filepath.Join(c.BaseDir, "minecraft")
	}
	if c.LogDir == "" && c.BaseDir != "" {
		c.LogDir = filepath.Join(c.BaseDir, "log")
	}
	if c.Game.JavaPath == "" {
		c.Game.JavaPath = DefaultJavaPath
	}
	if c.Game.MinMemoryMB <= 0 {
		c.Game.MinMemoryMB = DefaultMinMemoryMB
	}
	if c.Game.MaxMemoryMB <= 0 {
		c.Game.MaxMemoryMB = DefaultMaxMemoryMB
	}
	if c.Download.Threads <= 0 {
		c.Download.Threads = DefaultThreads
	}
	if c.Accounts.Type == "" {
		c.Accounts.Type = "sqlite"
	}
	if c.Accounts.Type == "sqlite" && c.Accounts.DataDir == "" && c.BaseDir != "" {
		c.Accounts.DataDir = filepath.Join(c.BaseDir, "db")
	}
	if c.Encryption.Type == "" {
		c.Encryption.Type = "age"
	}
	if c.Encryption.Type == "age" && c.Encryption.IdentityPath == "" && c.BaseDir != "" {
		c.Encryption.IdentityPath = filepath.Join(c.BaseDir, "keys", "dropout.key")
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
