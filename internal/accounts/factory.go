package accounts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fossabot/DropOut/internal/config"
	"github.com/fossabot/DropOut/internal/encryption"
	"github.com/fossabot/DropOut/internal/launcher"
)

// NewStoreFromConfig creates an AccountStore implementation based on the
// accounts config type.
func NewStoreFromConfig(cfg config.AccountsConfig, enc encryption.Encryptor) (launcher.AccountStore, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite account store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating account data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "accounts.db"), enc)
	case "memory":
		return NewSQLiteStore(":memory:", enc)
	default:
		return nil, fmt.Errorf("unknown account store type: %s", cfg.Type)
	}
}
