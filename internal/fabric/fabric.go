// Package fabric installs the Fabric mod loader by writing profile
// descriptors from the Fabric Meta service into the local versions directory.
package fabric

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
	"github.com/fossabot/DropOut/internal/version"
)

// DefaultMetaURL is the Fabric Meta API.
const DefaultMetaURL = "https://meta.fabricmc.net/v2"

// LoaderVersion is one published loader build.
type LoaderVersion struct {
	Separator string `json:"separator"`
	Build     int    `json:"build"`
	Maven     string `json:"maven"`
	Version   string `json:"version"`
	Stable    bool   `json:"stable"`
}

// GameVersion is one Minecraft version Fabric supports.
type GameVersion struct {
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

// LoaderEntry pairs a loader build with its intermediary mappings for one
// game version.
type LoaderEntry struct {
	Loader       LoaderVersion `json:"loader"`
	Intermediary struct {
		Maven   string `json:"maven"`
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	} `json:"intermediary"`
}

// Installed describes a loader profile written to the versions directory.
type Installed struct {
	ID            string
	GameVersion   string
	LoaderVersion string
	Path          string
}

// Client talks to the Fabric Meta API and installs profiles through a
// version store.
type Client struct {
	http    *resty.Client
	metaURL string
	store   *version.Store
	logger  launcher.Logger
}

// NewClient creates a Fabric client. An empty metaURL means the production
// Meta API.
func NewClient(metaURL string, store *version.Store, logger launcher.Logger) *Client {
	if metaURL == "" {
		metaURL = DefaultMetaURL
	}
	if logger == nil {
		logger = launcher.NewNopLogger()
	}
	return &Client{
		http:    resty.New().SetTimeout(30 * time.Second),
		metaURL: metaURL,
		store:   store,
		logger:  logger,
	}
}

// VersionID returns the canonical version directory name for a loader and
// game version pair.
func VersionID(gameVersion, loaderVersion string) string {
	return fmt.Sprintf("fabric-loader-%s-%s", loaderVersion, gameVersion)
}

// GameVersions lists the Minecraft versions Fabric supports.
func (c *Client) GameVersions(ctx context.Context) ([]GameVersion, error) {
	var versions []GameVersion
	url := c.metaURL + "/versions/game"
	resp, err := c.http.R().SetContext(ctx).SetResult(&versions).Get(url)
	if err != nil {
		return nil, &launcher.NetworkError{URL: url, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &launcher.NetworkError{URL: url, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	return versions, nil
}

// Loaders lists the loader builds available for a game version, newest
// first.
func (c *Client) Loaders(ctx context.Context, gameVersion string) ([]LoaderEntry, error) {
	var entries []LoaderEntry
	url := c.metaURL + "/versions/loader/" + gameVersion
	resp, err := c.http.R().SetContext(ctx).SetResult(&entries).Get(url)
	if err != nil {
		return nil, &launcher.NetworkError{URL: url, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &launcher.NetworkError{URL: url, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if len(entries) == 0 {
		return nil, &launcher.NotFoundError{Kind: "fabric loaders for game version", ID: gameVersion}
	}
	return entries, nil
}

// Install fetches the profile descriptor for the pair and writes it to the
// versions directory. Libraries are not downloaded here; the launch pipeline
// acquires them on demand.
func (c *Client) Install(ctx context.Context, gameVersion, loaderVersion string) (*Installed, error) {
	var desc model.VersionDescriptor
	url := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json", c.metaURL, gameVersion, loaderVersion)
	resp, err := c.http.R().SetContext(ctx).SetResult(&desc).Get(url)
	if err != nil {
		return nil, &launcher.NetworkError{URL: url, Err: err}
	}
	if resp.StatusCode() == 400 || resp.StatusCode() == 404 {
		return nil, &launcher.NotFoundError{Kind: "fabric profile", ID: VersionID(gameVersion, loaderVersion)}
	}
	if !resp.IsSuccess() {
		return nil, &launcher.NetworkError{URL: url, Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	if desc.ID == "" {
		desc.ID = VersionID(gameVersion, loaderVersion)
	}
	if err := c.store.Save(&desc); err != nil {
		return nil, fmt.Errorf("writing fabric profile: %w", err)
	}
	c.logger.Info("fabric profile installed", "id", desc.ID)

	return &Installed{
		ID:            desc.ID,
		GameVersion:   gameVersion,
		LoaderVersion: loaderVersion,
		Path:          c.store.Path(desc.ID),
	}, nil
}

// Installed reports whether the profile for the pair is already present.
func (c *Client) Installed(gameVersion, loaderVersion string) bool {
	_, err := c.store.Load(VersionID(gameVersion, loaderVersion))
	return err == nil
}

// ListInstalled returns the IDs of every installed Fabric profile.
func (c *Client) ListInstalled() ([]string, error) {
	ids, err := c.store.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range ids {
		if strings.HasPrefix(id, "fabric-loader-") {
			out = append(out, id)
		}
	}
	return out, nil
}
