// Package assets expands an asset index into download tasks for the
// content-addressed objects store.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
)

// DefaultObjectsURL is the content-addressed asset store.
const DefaultObjectsURL = "https://resources.download.minecraft.net"

// assetIndex is the on-wire index format: a map of logical names to
// hash-addressed objects.
type assetIndex struct {
	Objects map[string]assetObject `json:"objects"`
}

type assetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Resolver implements launcher.AssetResolver. It caches index files under
// assets/indexes/<id>.json and derives one task per unique object hash.
type Resolver struct {
	http       *resty.Client
	assetsDir  string
	objectsURL string
	logger     launcher.Logger
}

var _ launcher.AssetResolver = (*Resolver)(nil)

// NewResolver creates an asset resolver rooted at the given game directory.
// An empty objectsURL means the production object store.
func NewResolver(gameDir, objectsURL string, logger launcher.Logger) *Resolver {
	if objectsURL == "" {
		objectsURL = DefaultObjectsURL
	}
	if logger == nil {
		logger = launcher.NewNopLogger()
	}
	return &Resolver{
		http:       resty.New().SetTimeout(30 * time.Second),
		assetsDir:  filepath.Join(gameDir, "assets"),
		objectsURL: objectsURL,
		logger:     logger,
	}
}

// Tasks loads the index named by ref (from the local cache when present,
// otherwise from ref.URL, caching it) and returns one download task per
// unique object. Objects shared by several logical names appear once.
func (r *Resolver) Tasks(ctx context.Context, ref *model.AssetIndexRef) ([]launcher.Task, error) {
	if ref == nil {
		return nil, fmt.Errorf("version has no asset index")
	}

	data, err := r.loadIndex(ctx, ref)
	if err != nil {
		return nil, err
	}

	var index assetIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, &launcher.ProtocolError{Endpoint: ref.URL, Err: fmt.Errorf("parsing asset index %s: %w", ref.ID, err)}
	}

	seen := make(map[string]bool, len(index.Objects))
	tasks := make([]launcher.Task, 0, len(index.Objects))
	for name, obj := range index.Objects {
		if len(obj.Hash) < 2 {
			return nil, &launcher.ProtocolError{Endpoint: ref.URL, Err: fmt.Errorf("asset %q has malformed hash %q", name, obj.Hash)}
		}
		if seen[obj.Hash] {
			continue
		}
		seen[obj.Hash] = true

		prefix := obj.Hash[:2]
		tasks = append(tasks, launcher.Task{
			URL:  fmt.Sprintf("%s/%s/%s", r.objectsURL, prefix, obj.Hash),
			Path: filepath.Join(r.assetsDir, "objects", prefix, obj.Hash),
			SHA1: obj.Hash,
		})
	}
	r.logger.Info("asset index expanded", "id", ref.ID, "objects", len(index.Objects), "unique", len(tasks))
	return tasks, nil
}

// loadIndex returns the cached index bytes, fetching and caching on a miss.
func (r *Resolver) loadIndex(ctx context.Context, ref *model.AssetIndexRef) ([]byte, error) {
	indexPath := filepath.Join(r.assetsDir, "indexes", ref.ID+".json")

	data, err := os.ReadFile(indexPath)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading cached asset index: %w", err)
	}

	resp, err := r.http.R().SetContext(ctx).Get(ref.URL)
	if err != nil {
		return nil, &launcher.NetworkError{URL: ref.URL, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &launcher.NetworkError{URL: ref.URL, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	data = resp.Body()

	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("creating indexes directory: %w", err)
	}
	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		return nil, fmt.Errorf("caching asset index: %w", err)
	}
	return data, nil
}
