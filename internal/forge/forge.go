// Package forge installs the Forge mod loader. Instead of running the
// upstream installer, it extracts the version descriptor embedded in the
// installer jar and writes it into the local versions directory; the launch
// pipeline then acquires the listed libraries like any other version.
package forge

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
	"github.com/fossabot/DropOut/internal/version"
)

// Default upstream endpoints.
const (
	DefaultPromotionsURL = "https://files.minecraftforge.net/net/minecraftforge/forge/promotions_slim.json"
	DefaultMavenURL      = "https://maven.minecraftforge.net/"
)

// Version is one promoted Forge build for a game version.
type Version struct {
	Version     string
	GameVersion string
	Recommended bool
	Latest      bool
}

// Installed describes a Forge profile written to the versions directory.
type Installed struct {
	ID           string
	GameVersion  string
	ForgeVersion string
	Path         string
}

// promotions is the promotions_slim.json shape: keys are
// "<game>-latest" / "<game>-recommended", values are Forge build versions.
type promotions struct {
	Promos map[string]string `json:"promos"`
}

// Client talks to the Forge promotions API and maven repository and installs
// profiles through a version store.
type Client struct {
	http          *resty.Client
	promotionsURL string
	mavenURL      string
	store         *version.Store
	logger        launcher.Logger
}

// NewClient creates a Forge client. Empty URLs mean the production
// promotions API and maven repository.
func NewClient(promotionsURL, mavenURL string, store *version.Store, logger launcher.Logger) *Client {
	if promotionsURL == "" {
		promotionsURL = DefaultPromotionsURL
	}
	if mavenURL == "" {
		mavenURL = DefaultMavenURL
	}
	if logger == nil {
		logger = launcher.NewNopLogger()
	}
	return &Client{
		http:          resty.New().SetTimeout(30 * time.Second),
		promotionsURL: promotionsURL,
		mavenURL:      mavenURL,
		store:         store,
		logger:        logger,
	}
}

// VersionID returns the canonical version directory name for a game and
// Forge version pair.
func VersionID(gameVersion, forgeVersion string) string {
	return fmt.Sprintf("%s-forge-%s", gameVersion, forgeVersion)
}

// GameVersions lists the Minecraft versions with a promoted Forge build,
// newest first.
func (c *Client) GameVersions(ctx context.Context) ([]string, error) {
	promos, err := c.fetchPromotions(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var versions []string
	for key := range promos.Promos {
		game := strings.TrimSuffix(strings.TrimSuffix(key, "-latest"), "-recommended")
		if game == key || seen[game] {
			continue
		}
		seen[game] = true
		versions = append(versions, game)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions, nil
}

// Versions lists the promoted Forge builds for a game version: the latest
// build and, when distinct, the recommended one.
func (c *Client) Versions(ctx context.Context, gameVersion string) ([]Version, error) {
	promos, err := c.fetchPromotions(ctx)
	if err != nil {
		return nil, err
	}

	var versions []Version
	if latest, ok := promos.Promos[gameVersion+"-latest"]; ok {
		versions = append(versions, Version{
			Version:     latest,
			GameVersion: gameVersion,
			Latest:      true,
		})
	}
	if recommended, ok := promos.Promos[gameVersion+"-recommended"]; ok {
		merged := false
		for i := range versions {
			if versions[i].Version == recommended {
				versions[i].Recommended = true
				merged = true
			}
		}
		if !merged {
			versions = append(versions, Version{
				Version:     recommended,
				GameVersion: gameVersion,
				Recommended: true,
			})
		}
	}
	if len(versions) == 0 {
		return nil, &launcher.NotFoundError{Kind: "forge builds for game version", ID: gameVersion}
	}
	return versions, nil
}

func (c *Client) fetchPromotions(ctx context.Context) (*promotions, error) {
	var promos promotions
	resp, err := c.http.R().SetContext(ctx).SetResult(&promos).Get(c.promotionsURL)
	if err != nil {
		return nil, &launcher.NetworkError{URL: c.promotionsURL, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &launcher.NetworkError{URL: c.promotionsURL, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if len(promos.Promos) == 0 {
		return nil, &launcher.ProtocolError{Endpoint: c.promotionsURL, Err: fmt.Errorf("promotions list is empty")}
	}
	return &promos, nil
}

// Install downloads the installer jar for the pair, extracts the version
// descriptor embedded in it, and writes the descriptor to the versions
// directory. Libraries are not downloaded here; the launch pipeline acquires
// them on demand.
func (c *Client) Install(ctx context.Context, gameVersion, forgeVersion string) (*Installed, error) {
	full := gameVersion + "-" + forgeVersion
	url := fmt.Sprintf("%snet/minecraftforge/forge/%s/forge-%s-installer.jar", c.mavenURL, full, full)

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &launcher.NetworkError{URL: url, Err: err}
	}
	if resp.StatusCode() == 404 {
		return nil, &launcher.NotFoundError{Kind: "forge installer", ID: full}
	}
	if !resp.IsSuccess() {
		return nil, &launcher.NetworkError{URL: url, Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	desc, err := c.descriptorFromInstaller(resp.Body(), url)
	if err != nil {
		return nil, err
	}

	if desc.ID == "" {
		desc.ID = VersionID(gameVersion, forgeVersion)
	}
	if desc.InheritsFrom == "" {
		desc.InheritsFrom = gameVersion
	}
	if desc.Type == "" {
		desc.Type = "release"
	}
	if desc.MainClass == "" {
		desc.MainClass = defaultMainClass(gameVersion)
	}
	for i := range desc.Libraries {
		lib := &desc.Libraries[i]
		if lib.URL == "" && lib.Downloads == nil {
			lib.URL = c.mavenURL
		}
	}

	if err := c.store.Save(desc); err != nil {
		return nil, fmt.Errorf("writing forge profile: %w", err)
	}
	c.logger.Info("forge profile installed", "id", desc.ID)

	return &Installed{
		ID:           desc.ID,
		GameVersion:  gameVersion,
		ForgeVersion: forgeVersion,
		Path:         c.store.Path(desc.ID),
	}, nil
}

// descriptorFromInstaller pulls version.json out of the installer jar.
func (c *Client) descriptorFromInstaller(jar []byte, url string) (*model.VersionDescriptor, error) {
	archive, err := zip.NewReader(bytes.NewReader(jar), int64(len(jar)))
	if err != nil {
		return nil, &launcher.ProtocolError{Endpoint: url, Err: fmt.Errorf("installer is not a jar: %w", err)}
	}

	for _, f := range archive.File {
		if f.Name != "version.json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &launcher.ProtocolError{Endpoint: url, Err: fmt.Errorf("opening version.json: %w", err)}
		}
		defer rc.Close()

		var desc model.VersionDescriptor
		if err := json.NewDecoder(rc).Decode(&desc); err != nil {
			return nil, &launcher.ProtocolError{Endpoint: url, Err: fmt.Errorf("decoding version.json: %w", err)}
		}
		return &desc, nil
	}
	return nil, &launcher.ProtocolError{Endpoint: url, Err: fmt.Errorf("installer has no version.json")}
}

// defaultMainClass picks the main class for installers whose descriptor
// omits it: the bootstrap launcher for 1.13+, launchwrapper before that.
func defaultMainClass(gameVersion string) string {
	if modernForge(gameVersion) {
		return "cpw.mods.bootstraplauncher.BootstrapLauncher"
	}
	return "net.minecraft.launchwrapper.Launch"
}

// modernForge reports whether the game version uses the 1.13+ toolchain.
func modernForge(gameVersion string) bool {
	parts := strings.Split(gameVersion, ".")
	if len(parts) < 2 {
		return false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return major > 1 || (major == 1 && minor >= 13)
}

// Installed reports whether the profile for the pair is already present.
func (c *Client) Installed(gameVersion, forgeVersion string) bool {
	_, err := c.store.Load(VersionID(gameVersion, forgeVersion))
	return err == nil
}

// ListInstalled returns the IDs of every installed Forge profile.
func (c *Client) ListInstalled() ([]string, error) {
	ids, err := c.store.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range ids {
		if strings.Contains(id, "-forge-") {
			out = append(out, id)
		}
	}
	return out, nil
}
