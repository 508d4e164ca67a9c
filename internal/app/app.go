// Package app is the application layer between the CLI and the launch
// service. It constructs all dependencies from config, exposes high-level
// operations, and manages resource lifecycles on Close.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fossabot/DropOut/internal/accounts"
	"github.com/fossabot/DropOut/internal/assets"
	"github.com/fossabot/DropOut/internal/auth"
	"github.com/fossabot/DropOut/internal/config"
	"github.com/fossabot/DropOut/internal/download"
	"github.com/fossabot/DropOut/internal/encryption"
	"github.com/fossabot/DropOut/internal/fabric"
	"github.com/fossabot/DropOut/internal/forge"
	"github.com/fossabot/DropOut/internal/game"
	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
	"github.com/fossabot/DropOut/internal/process"
	"github.com/fossabot/DropOut/internal/rules"
	"github.com/fossabot/DropOut/internal/version"
)

const (
	launcherName    = "DropOut"
	launcherVersion = "0.1.0"
)

// App wires config into a ready-to-use launcher: account store, credential
// chain, version resolution, download engine, and the launch service.
// The caller must call Close when done.
type App struct {
	cfg      *config.Config
	store    launcher.AccountStore
	auth     *auth.Client
	versions *version.Store
	fabric   *fabric.Client
	forge    *forge.Client
	service  *launcher.Service
	sink     launcher.EventSink
	logger   launcher.Logger
	logFile  *os.File
}

// NewApp creates a fully wired App from the given config. sink receives
// launch progress and game output; nil means all events are discarded.
func NewApp(cfg *config.Config, sink launcher.EventSink) (*App, error) {
	if sink == nil {
		sink = launcher.NopSink{}
	}

	logger, logFile, err := newLogger(cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if !enc.IsConfigured() {
		if err := enc.Setup(); err != nil {
			logFile.Close()
			return nil, fmt.Errorf("setting up encryption: %w", err)
		}
		logger.Info("encryption identity generated", "path", cfg.Encryption.IdentityPath)
	}

	store, err := accounts.NewStoreFromConfig(cfg.Accounts, enc)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening account store: %w", err)
	}

	authClient := auth.NewClient(auth.Options{
		VerifyOwnership: true,
		Logger:          logger,
	})

	versionStore := version.NewStore(cfg.GameDir)
	manifest := version.NewManifestClient("")
	resolver := version.NewResolver(versionStore, manifest, logger)

	settings := launcher.Settings{
		GameDir:         cfg.GameDir,
		JavaPath:        cfg.Game.JavaPath,
		MinMemoryMB:     cfg.Game.MinMemoryMB,
		MaxMemoryMB:     cfg.Game.MaxMemoryMB,
		Concurrency:     cfg.Download.Threads,
		LauncherName:    launcherName,
		LauncherVersion: launcherVersion,
	}
	service := launcher.NewService(settings, launcher.Deps{
		Accounts:   store,
		Auth:       authClient,
		Versions:   resolver,
		Assets:     assets.NewResolver(cfg.GameDir, "", logger),
		Downloader: download.NewEngine(logger),
		Natives:    game.ZipExtractor{},
		Runner:     process.NewExecRunner(logger),
		Platform:   rules.CurrentPlatform(),
		Sink:       sink,
		Logger:     logger,
	})

	return &App{
		cfg:      cfg,
		store:    store,
		auth:     authClient,
		versions: versionStore,
		fabric:   fabric.NewClient("", versionStore, logger),
		forge:    forge.NewClient("", "", versionStore, logger),
		service:  service,
		sink:     sink,
		logger:   logger,
		logFile:  logFile,
	}, nil
}

// Login runs the interactive device-code sign-in: it requests a device code,
// surfaces the verification instructions through the sink, and polls the
// token endpoint until the user approves (or the code expires). The signed-in
// account is persisted and becomes active.
func (a *App) Login(ctx context.Context) (*model.Account, error) {
	code, err := a.auth.BeginDeviceFlow(ctx)
	if err != nil {
		return nil, err
	}

	if code.Message != "" {
		a.sink.Log(code.Message)
	} else {
		a.sink.Log(fmt.Sprintf("Visit %s and enter code %s", code.VerificationURI, code.UserCode))
	}

	interval := time.Duration(code.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(code.ExpiresIn) * time.Second)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("device code expired before sign-in completed")
		}

		account, err := a.auth.PollOnce(ctx, code.DeviceCode)
		if err != nil {
			var pending *auth.PendingError
			if errors.As(err, &pending) && !pending.Terminal() {
				if pending.Reason == "slow_down" {
					interval += 5 * time.Second
				}
				continue
			}
			return nil, err
		}

		if err := a.store.Save(account); err != nil {
			return nil, fmt.Errorf("persisting account: %w", err)
		}
		a.logger.Info("signed in", "username", account.Username, "uuid", account.UUID)
		return account, nil
	}
}

// LoginOffline creates an offline account for the given username, persists
// it, and makes it active.
func (a *App) LoginOffline(username string) (*model.Account, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	account := auth.OfflineAccount(username)
	if err := a.store.Save(account); err != nil {
		return nil, fmt.Errorf("persisting account: %w", err)
	}
	return account, nil
}

// Accounts lists all stored accounts, most recently used first.
func (a *App) Accounts() ([]*model.Account, error) {
	return a.store.List()
}

// ActiveAccount returns the active account, or nil when none is signed in.
func (a *App) ActiveAccount() (*model.Account, error) {
	return a.store.Active()
}

// UseAccount makes the account with the given UUID active.
func (a *App) UseAccount(id string) error {
	return a.store.SetActive(id)
}

// Logout removes the account with the given UUID. Removing the active
// account promotes the most recently used remaining one.
func (a *App) Logout(id string) error {
	return a.store.Remove(id)
}

// RefreshAccount forces a credential refresh for the active account and
// persists the result. Offline accounts have nothing to refresh.
func (a *App) RefreshAccount(ctx context.Context) (*model.Account, error) {
	account, err := a.store.Active()
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("no active account; sign in first")
	}
	if account.Type != model.AccountMicrosoft {
		return nil, fmt.Errorf("account %s is offline and has no credential to refresh", account.Username)
	}

	refreshed, err := a.auth.Refresh(ctx, account.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refreshing credential: %w", err)
	}
	if err := a.store.Save(refreshed); err != nil {
		return nil, fmt.Errorf("persisting refreshed credential: %w", err)
	}
	return refreshed, nil
}

// LocalVersions lists the version IDs installed under the game directory.
func (a *App) LocalVersions() ([]string, error) {
	return a.versions.List()
}

// RemoteVersions fetches the published version index. When releasesOnly is
// set, snapshots and legacy versions are filtered out.
func (a *App) RemoteVersions(ctx context.Context, releasesOnly bool) (*version.Manifest, error) {
	manifest, err := version.NewManifestClient("").Manifest(ctx)
	if err != nil {
		return nil, err
	}
	if !releasesOnly {
		return manifest, nil
	}

	filtered := *manifest
	filtered.Versions = nil
	for _, entry := range manifest.Versions {
		if entry.Type == "release" {
			filtered.Versions = append(filtered.Versions, entry)
		}
	}
	return &filtered, nil
}

// FabricGameVersions lists the Minecraft versions Fabric supports.
func (a *App) FabricGameVersions(ctx context.Context) ([]fabric.GameVersion, error) {
	return a.fabric.GameVersions(ctx)
}

// FabricLoaders lists the Fabric loader builds available for a game version.
func (a *App) FabricLoaders(ctx context.Context, gameVersion string) ([]fabric.LoaderEntry, error) {
	return a.fabric.Loaders(ctx, gameVersion)
}

// InstallFabric installs the Fabric loader profile for the pair. An empty
// loaderVersion selects the newest stable build.
func (a *App) InstallFabric(ctx context.Context, gameVersion, loaderVersion string) (*fabric.Installed, error) {
	if loaderVersion == "" {
		entries, err := a.fabric.Loaders(ctx, gameVersion)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Loader.Stable {
				loaderVersion = e.Loader.Version
				break
			}
		}
		if loaderVersion == "" {
			loaderVersion = entries[0].Loader.Version
		}
	}
	return a.fabric.Install(ctx, gameVersion, loaderVersion)
}

// InstalledFabric lists installed Fabric profile IDs.
func (a *App) InstalledFabric() ([]string, error) {
	return a.fabric.ListInstalled()
}

// ForgeGameVersions lists the Minecraft versions with a promoted Forge build.
func (a *App) ForgeGameVersions(ctx context.Context) ([]string, error) {
	return a.forge.GameVersions(ctx)
}

// ForgeVersions lists the promoted Forge builds for a game version.
func (a *App) ForgeVersions(ctx context.Context, gameVersion string) ([]forge.Version, error) {
	return a.forge.Versions(ctx, gameVersion)
}

// InstallForge installs the Forge profile for the pair. An empty forgeVersion
// selects the recommended build, falling back to the latest.
func (a *App) InstallForge(ctx context.Context, gameVersion, forgeVersion string) (*forge.Installed, error) {
	if forgeVersion == "" {
		builds, err := a.forge.Versions(ctx, gameVersion)
		if err != nil {
			return nil, err
		}
		for _, b := range builds {
			if b.Recommended {
				forgeVersion = b.Version
				break
			}
		}
		if forgeVersion == "" {
			forgeVersion = builds[0].Version
		}
	}
	return a.forge.Install(ctx, gameVersion, forgeVersion)
}

// InstalledForge lists installed Forge profile IDs.
func (a *App) InstalledForge() ([]string, error) {
	return a.forge.ListInstalled()
}

// Launch prepares and starts the given version. It returns once the game
// process is running; output and exit are streamed through the sink.
func (a *App) Launch(ctx context.Context, versionID string) (*launcher.Handle, error) {
	return a.service.Launch(ctx, versionID)
}

// Close releases the account store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing account store: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}
