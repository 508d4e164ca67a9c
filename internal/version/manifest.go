package version

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
)

// DefaultManifestURL is Mojang's v2 version manifest.
const DefaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

// Manifest is the index of every published version.
type Manifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []ManifestEntry `json:"versions"`
}

// ManifestEntry is one version in the manifest, pointing at its full
// descriptor.
type ManifestEntry struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Time        string `json:"time"`
	ReleaseTime string `json:"releaseTime"`
}

// ManifestClient fetches the version manifest and individual descriptors.
type ManifestClient struct {
	http        *resty.Client
	manifestURL string
}

// NewManifestClient creates a manifest client. An empty manifestURL means the
// production manifest.
func NewManifestClient(manifestURL string) *ManifestClient {
	if manifestURL == "" {
		manifestURL = DefaultManifestURL
	}
	return &ManifestClient{
		http:        resty.New().SetTimeout(30 * time.Second),
		manifestURL: manifestURL,
	}
}

// Manifest fetches the full version index.
func (c *ManifestClient) Manifest(ctx context.Context) (*Manifest, error) {
	var manifest Manifest
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&manifest).
		Get(c.manifestURL)
	if err != nil {
		return nil, &launcher.NetworkError{URL: c.manifestURL, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &launcher.NetworkError{URL: c.manifestURL, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if len(manifest.Versions) == 0 {
		return nil, &launcher.ProtocolError{Endpoint: c.manifestURL, Err: fmt.Errorf("manifest lists no versions")}
	}
	return &manifest, nil
}

// FetchDescriptor looks up id in the manifest and downloads its descriptor.
func (c *ManifestClient) FetchDescriptor(ctx context.Context, id string) (*model.VersionDescriptor, error) {
	manifest, err := c.Manifest(ctx)
	if err != nil {
		return nil, err
	}

	for _, entry := range manifest.Versions {
		if entry.ID == id {
			return c.fetch(ctx, entry.URL)
		}
	}
	return nil, &launcher.NotFoundError{Kind: "version", ID: id}
}

func (c *ManifestClient) fetch(ctx context.Context, url string) (*model.VersionDescriptor, error) {
	var desc model.VersionDescriptor
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&desc).
		Get(url)
	if err != nil {
		return nil, &launcher.NetworkError{URL: url, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &launcher.NetworkError{URL: url, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if desc.ID == "" {
		return nil, &launcher.ProtocolError{Endpoint: url, Err: fmt.Errorf("descriptor missing id")}
	}
	return &desc, nil
}
