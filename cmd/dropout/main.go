package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fossabot/DropOut/internal/app"
	"github.com/fossabot/DropOut/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a wired App. The caller must defer
// a.Close().
func newApp() (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run `dropout config init` first?): %w", err)
	}

	a, err := app.NewApp(cfg, app.NewCLISink())
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "dropout",
	Short: "Minecraft launcher",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Game Dir: %s\n", cfg.GameDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Game Dir:  %s\n", cfg.GameDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Java Path: %s\n", cfg.Game.JavaPath)
		fmt.Printf("Memory:    %d-%d MB\n", cfg.Game.MinMemoryMB, cfg.Game.MaxMemoryMB)
		fmt.Printf("Threads:   %d\n", cfg.Download.Threads)
		return nil
	},
}

// account command
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

var accountLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a Microsoft account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		account, err := a.Login(cmd.Context())
		if err != nil {
			return fmt.Errorf("sign-in failed: %w", err)
		}

		fmt.Printf("Signed in as %s (%s)\n", account.Username, account.UUID)
		return nil
	},
}

var accountOfflineCmd = &cobra.Command{
	Use:   "offline USERNAME",
	Short: "Add an offline account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		account, err := a.LoginOffline(args[0])
		if err != nil {
			return fmt.Errorf("adding offline account: %w", err)
		}

		fmt.Printf("Added offline account %s (%s)\n", account.Username, account.UUID)
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		accounts, err := a.Accounts()
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts. Run `dropout account login` or `dropout account offline USERNAME`.")
			return nil
		}

		active, err := a.ActiveAccount()
		if err != nil {
			return err
		}

		for _, acc := range accounts {
			marker := " "
			if active != nil && acc.UUID == active.UUID {
				marker = "*"
			}
			fmt.Printf("%s %-16s  %-9s  %s\n", marker, acc.Username, acc.Type, acc.UUID)
		}
		return nil
	},
}

var accountUseCmd = &cobra.Command{
	Use:   "use UUID",
	Short: "Switch the active account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UseAccount(args[0]); err != nil {
			return err
		}
		fmt.Printf("Active account: %s\n", args[0])
		return nil
	},
}

var accountLogoutCmd = &cobra.Command{
	Use:   "logout [UUID]",
	Short: "Remove an account (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id := ""
		if len(args) > 0 {
			id = args[0]
		} else {
			active, err := a.ActiveAccount()
			if err != nil {
				return err
			}
			if active == nil {
				fmt.Println("No active account.")
				return nil
			}
			id = active.UUID
		}

		if err := a.Logout(id); err != nil {
			return err
		}
		fmt.Printf("Removed account %s\n", id)
		return nil
	},
}

var accountRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the active account's credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		account, err := a.RefreshAccount(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed credential for %s (expires %s)\n",
			account.Username,
			time.Unix(account.ExpiresAt, 0).Format("2006-01-02 15:04:05"),
		)
		return nil
	},
}

// versions command
var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List game versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, _ := cmd.Flags().GetBool("remote")
		releases, _ := cmd.Flags().GetBool("releases")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !remote {
			ids, err := a.LocalVersions()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No versions installed. Use `dropout versions --remote` to browse.")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		}

		manifest, err := a.RemoteVersions(cmd.Context(), releases)
		if err != nil {
			return err
		}
		fmt.Printf("Latest release: %s\nLatest snapshot: %s\n\n", manifest.Latest.Release, manifest.Latest.Snapshot)
		for _, entry := range manifest.Versions {
			fmt.Printf("%-24s  %s\n", entry.ID, entry.Type)
		}
		return nil
	},
}

// fabric command
var fabricCmd = &cobra.Command{
	Use:   "fabric",
	Short: "Manage the Fabric mod loader",
}

var fabricLoadersCmd = &cobra.Command{
	Use:   "loaders GAME_VERSION",
	Short: "List Fabric loader builds for a game version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.FabricLoaders(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, e := range entries {
			stable := ""
			if e.Loader.Stable {
				stable = "  stable"
			}
			fmt.Printf("%s%s\n", e.Loader.Version, stable)
		}
		return nil
	},
}

var fabricInstallCmd = &cobra.Command{
	Use:   "install GAME_VERSION [LOADER_VERSION]",
	Short: "Install a Fabric loader profile",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		loader := ""
		if len(args) > 1 {
			loader = args[1]
		}

		installed, err := a.InstallFabric(cmd.Context(), args[0], loader)
		if err != nil {
			return err
		}
		fmt.Printf("Installed %s\nLaunch it with `dropout launch %s`\n", installed.ID, installed.ID)
		return nil
	},
}

var fabricListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed Fabric profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.InstalledFabric()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No Fabric profiles installed.")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

// forge command
var forgeCmd = &cobra.Command{
	Use:   "forge",
	Short: "Manage the Forge mod loader",
}

var forgeVersionsCmd = &cobra.Command{
	Use:   "versions GAME_VERSION",
	Short: "List promoted Forge builds for a game version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		builds, err := a.ForgeVersions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, b := range builds {
			tags := ""
			if b.Latest {
				tags += "  latest"
			}
			if b.Recommended {
				tags += "  recommended"
			}
			fmt.Printf("%s%s\n", b.Version, tags)
		}
		return nil
	},
}

var forgeInstallCmd = &cobra.Command{
	Use:   "install GAME_VERSION [FORGE_VERSION]",
	Short: "Install a Forge profile",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		build := ""
		if len(args) > 1 {
			build = args[1]
		}

		installed, err := a.InstallForge(cmd.Context(), args[0], build)
		if err != nil {
			return err
		}
		fmt.Printf("Installed %s\nLaunch it with `dropout launch %s`\n", installed.ID, installed.ID)
		return nil
	},
}

var forgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed Forge profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.InstalledForge()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No Forge profiles installed.")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

// launch command
var launchCmd = &cobra.Command{
	Use:   "launch VERSION",
	Short: "Launch the game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetBool("wait")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		handle, err := a.Launch(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("launch failed: %w", err)
		}

		if !wait {
			return nil
		}
		if code := <-handle.Done; code != 0 {
			return fmt.Errorf("game exited with code %d", code)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// account subcommands
	accountCmd.AddCommand(accountLoginCmd)
	accountCmd.AddCommand(accountOfflineCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountUseCmd)
	accountCmd.AddCommand(accountLogoutCmd)
	accountCmd.AddCommand(accountRefreshCmd)

	// fabric subcommands
	fabricCmd.AddCommand(fabricLoadersCmd)
	fabricCmd.AddCommand(fabricInstallCmd)
	fabricCmd.AddCommand(fabricListCmd)

	// forge subcommands
	forgeCmd.AddCommand(forgeVersionsCmd)
	forgeCmd.AddCommand(forgeInstallCmd)
	forgeCmd.AddCommand(forgeListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.Flags().Bool("remote", false, "List versions from the published manifest")
	versionsCmd.Flags().Bool("releases", false, "With --remote, show releases only")
	rootCmd.AddCommand(fabricCmd)
	rootCmd.AddCommand(forgeCmd)
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().BoolP("wait", "w", false, "Wait for the game to exit")
}
