package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/dropout",
		GameDir: "/home/user/.local/share/dropout/minecraft",
		LogDir:  "/home/user/.local/share/dropout/log",
		Game: GameConfig{
			JavaPath:    "/usr/lib/jvm/java-21/bin/java",
			MinMemoryMB: 2048,
			MaxMemoryMB: 8192,
		},
		Download: DownloadConfig{Threads: 16},
		Accounts: AccountsConfig{Type: "sqlite", DataDir: "/home/user/.local/share/dropout/db"},
		Encryption: EncryptionConfig{
			Type:         "age",
			IdentityPath: "/home/user/.local/share/dropout/keys/dropout.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.GameDir != original.GameDir {
		t.Errorf("GameDir = %q, want %q", got.GameDir, original.GameDir)
	}
	if got.Game.JavaPath != original.Game.JavaPath {
		t.Errorf("Game.JavaPath = %q, want %q", got.Game.JavaPath, original.Game.JavaPath)
	}
	if got.Game.MinMemoryMB != 2048 || got.Game.MaxMemoryMB != 8192 {
		t.Errorf("memory = %d/%d, want 2048/8192", got.Game.MinMemoryMB, got.Game.MaxMemoryMB)
	}
	if got.Download.Threads != 16 {
		t.Errorf("Download.Threads = %d, want 16", got.Download.Threads)
	}
	if got.Accounts.Type != "sqlite" {
		t.Errorf("Accounts.Type = %q, want %q", got.Accounts.Type, "sqlite")
	}
	if got.Encryption.IdentityPath != original.Encryption.IdentityPath {
		t.Errorf("Encryption.IdentityPath = %q, want %q", got.Encryption.IdentityPath, original.Encryption.IdentityPath)
	}
}

func TestManager_Read_SparseConfigGetsDefaults(t *testing.T) {
	src := strings.NewReader(`base_dir = "/data/dropout"` + "\n")
	m := &Manager{}

	got, err := m.Read(src)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.GameDir != "/data/dropout/minecraft" {
		t.Errorf("GameDir = %q, want derived default", got.GameDir)
	}
	if got.Game.JavaPath != DefaultJavaPath {
		t.Errorf("Game.JavaPath = %q, want %q", got.Game.JavaPath, DefaultJavaPath)
	}
	if got.Game.MinMemoryMB != DefaultMinMemoryMB || got.Game.MaxMemoryMB != DefaultMaxMemoryMB {
		t.Errorf("memory = %d/%d, want defaults", got.Game.MinMemoryMB, got.Game.MaxMemoryMB)
	}
	if got.Download.Threads != DefaultThreads {
		t.Errorf("Download.Threads = %d, want %d", got.Download.Threads, DefaultThreads)
	}
	if got.Accounts.Type != "sqlite" || got.Accounts.DataDir != "/data/dropout/db" {
		t.Errorf("Accounts = %+v, want sqlite with derived data dir", got.Accounts)
	}
	if got.Encryption.Type != "age" || got.Encryption.IdentityPath != "/data/dropout/keys/dropout.key" {
		t.Errorf("Encryption = %+v, want age with derived identity path", got.Encryption)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/dropout")

	if cfg.BaseDir != "/data/dropout" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/dropout")
	}
	if cfg.GameDir != "/data/dropout/minecraft" {
		t.Errorf("GameDir = %q, want %q", cfg.GameDir, "/data/dropout/minecraft")
	}
	if cfg.LogDir != "/data/dropout/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/dropout/log")
	}
	if cfg.Game.MinMemoryMB != DefaultMinMemoryMB {
		t.Errorf("Game.MinMemoryMB = %d, want %d", cfg.Game.MinMemoryMB, DefaultMinMemoryMB)
	}
	if cfg.Encryption.IdentityPath != "/data/dropout/keys/dropout.key" {
		t.Errorf("Encryption.IdentityPath = %q, want %q", cfg.Encryption.IdentityPath, "/data/dropout/keys/dropout.key")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "dropout.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", got.BaseDir, dir)
		}
	})

	t.Run("refuses to overwrite existing config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "dropout.toml")
		if err := os.WriteFile(path, []byte("base_dir = \"/x\"\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := Init(path, NewConfig(dir)); err == nil {
			t.Fatal("Init() expected error for existing file")
		}
	})

	t.Run("creates missing parent directory", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "dropout.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("config file not created: %v", err)
		}
	})
}
