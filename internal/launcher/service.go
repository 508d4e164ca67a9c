package launcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fossabot/DropOut/internal/game"
	"github.com/fossabot/DropOut/internal/model"
	"github.com/fossabot/DropOut/internal/rules"
)

// Settings carries the per-invocation launch parameters derived from config.
type Settings struct {
	GameDir         string
	JavaPath        string
	MinMemoryMB     int
	MaxMemoryMB     int
	Concurrency     int
	LauncherName    string
	LauncherVersion string
}

// Deps are the collaborators the launch pipeline coordinates.
type Deps struct {
	Accounts   AccountStore
	Auth       Authenticator
	Versions   VersionResolver
	Assets     AssetResolver
	Downloader Downloader
	Natives    NativesExtractor
	Runner     Runner
	Platform   rules.Platform
	Sink       EventSink
	Logger     Logger
	Clock      Clock
}

// Service is the orchestration layer that coordinates credential freshness,
// version resolution, artifact acquisition, argument assembly, and process
// supervision into one launch operation.
type Service struct {
	settings Settings
	deps     Deps
	eval     *rules.Evaluator
}

// NewService creates a launch service. Nil Sink and Logger default to no-ops.
func NewService(settings Settings, deps Deps) *Service {
	if deps.Sink == nil {
		deps.Sink = NopSink{}
	}
	if deps.Logger == nil {
		deps.Logger = NewNopLogger()
	}
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	return &Service{
		settings: settings,
		deps:     deps,
		eval:     rules.NewEvaluator(deps.Platform),
	}
}

// Launch prepares and starts the given version: freshens the credential,
// resolves the version graph, downloads and verifies every required artifact,
// extracts natives, assembles the command line, and spawns the process.
// It returns once the process is running; output and exit are streamed
// through the event sink.
func (s *Service) Launch(ctx context.Context, versionID string) (*Handle, error) {
	if s.settings.JavaPath == "" {
		return nil, &ConfigurationError{Msg: "java path is not configured"}
	}

	account, err := s.ensureAccount(ctx)
	if err != nil {
		return nil, err
	}
	s.deps.Sink.Log(fmt.Sprintf("Launching %s as %s (%s)", versionID, account.Username, account.Type))

	desc, err := s.deps.Versions.Resolve(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("resolving version %s: %w", versionID, err)
	}
	if !desc.Complete() {
		return nil, fmt.Errorf("version %s is incomplete after resolution (missing downloads or asset index)", versionID)
	}
	s.deps.Logger.Info("version resolved", "id", desc.ID, "mainClass", desc.MainClass, "libraries", len(desc.Libraries))
	if desc.JavaVersion != nil {
		s.deps.Logger.Info("version requires java", "major", desc.JavaVersion.MajorVersion)
	}

	libs, err := game.CollectLibraries(desc.Libraries, s.eval, s.deps.Platform, s.librariesDir())
	if err != nil {
		return nil, fmt.Errorf("collecting libraries: %w", err)
	}

	tasks, err := s.buildTasks(ctx, versionID, desc, libs)
	if err != nil {
		return nil, err
	}
	s.deps.Sink.Log(fmt.Sprintf("Fetching %d files", len(tasks)))

	if err := s.deps.Downloader.Run(ctx, tasks, s.settings.Concurrency, s.deps.Sink.Download); err != nil {
		return nil, fmt.Errorf("downloading artifacts: %w", err)
	}

	nativesDir := s.nativesDir(versionID)
	if err := s.deps.Natives.Extract(game.NativeJars(libs), nativesDir); err != nil {
		return nil, fmt.Errorf("extracting natives: %w", err)
	}

	clientJar := s.clientJarPath(versionID)
	args := game.Build(game.BuildInput{
		Version:         desc,
		Classpath:       game.BuildClasspath(libs, clientJar),
		NativesDir:      nativesDir,
		GameDir:         s.settings.GameDir,
		AssetsDir:       s.assetsDir(),
		Account:         account,
		Platform:        s.deps.Platform,
		MinMemoryMB:     s.settings.MinMemoryMB,
		MaxMemoryMB:     s.settings.MaxMemoryMB,
		LauncherName:    s.settings.LauncherName,
		LauncherVersion: s.settings.LauncherVersion,
	})
	s.deps.Logger.Info("arguments assembled", "count", len(args))

	handle, err := s.deps.Runner.Start(ctx, ProcessSpec{
		Executable: s.settings.JavaPath,
		Args:       args,
		Dir:        s.settings.GameDir,
	}, s.deps.Sink)
	if err != nil {
		return nil, err
	}

	s.deps.Sink.Log(fmt.Sprintf("Game process started (pid %d)", handle.PID))
	return handle, nil
}

// ensureAccount returns the active account, refreshing its credential first
// when it is about to expire. A refreshed credential supersedes the stored
// one wholesale.
func (s *Service) ensureAccount(ctx context.Context) (*model.Account, error) {
	account, err := s.deps.Accounts.Active()
	if err != nil {
		return nil, fmt.Errorf("loading active account: %w", err)
	}
	if account == nil {
		return nil, &ConfigurationError{Msg: "no active account; sign in first"}
	}

	if !account.NeedsRefresh(s.deps.Clock.Now()) {
		return account, nil
	}

	if account.RefreshToken == "" {
		return nil, &ConfigurationError{Msg: "credential expired and no refresh token is stored; sign in again"}
	}
	s.deps.Sink.Log("Credential is stale, refreshing")

	refreshed, err := s.deps.Auth.Refresh(ctx, account.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refreshing credential: %w", err)
	}
	if err := s.deps.Accounts.Save(refreshed); err != nil {
		return nil, fmt.Errorf("persisting refreshed credential: %w", err)
	}
	return refreshed, nil
}

// buildTasks flattens the resolved descriptor into the full download list:
// the client jar, every allowed library artifact (natives included), and one
// task per asset object.
func (s *Service) buildTasks(ctx context.Context, versionID string, desc *model.VersionDescriptor, libs []game.LibraryFile) ([]Task, error) {
	var tasks []Task

	client := desc.Downloads.Client
	if client == nil {
		return nil, fmt.Errorf("version %s has no client artifact", versionID)
	}
	tasks = append(tasks, Task{
		URL:  client.URL,
		Path: s.clientJarPath(versionID),
		SHA1: client.SHA1,
	})

	for _, lib := range libs {
		tasks = append(tasks, Task{URL: lib.URL, Path: lib.Path, SHA1: lib.SHA1})
	}

	assetTasks, err := s.deps.Assets.Tasks(ctx, desc.AssetIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving asset index %s: %w", desc.AssetIndex.ID, err)
	}
	return append(tasks, assetTasks...), nil
}

func (s *Service) librariesDir() string {
	return filepath.Join(s.settings.GameDir, "libraries")
}

func (s *Service) assetsDir() string {
	return filepath.Join(s.settings.GameDir, "assets")
}

func (s *Service) nativesDir(versionID string) string {
	return filepath.Join(s.settings.GameDir, "versions", versionID, "natives")
}

func (s *Service) clientJarPath(versionID string) string {
	return filepath.Join(s.settings.GameDir, "versions", versionID, versionID+".jar")
}
