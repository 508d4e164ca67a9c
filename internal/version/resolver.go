// Package version loads version descriptors, resolves their inheritance
// chains, and maintains the local versions directory.
package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
)

// Resolver implements launcher.VersionResolver. It loads descriptors local
// first, falls back to the Mojang manifest, and folds inheritsFrom chains
// into a single complete descriptor.
type Resolver struct {
	store    *Store
	manifest *ManifestClient
	logger   launcher.Logger
}

var _ launcher.VersionResolver = (*Resolver)(nil)

// NewResolver creates a resolver. A nil logger defaults to a no-op.
func NewResolver(store *Store, manifest *ManifestClient, logger launcher.Logger) *Resolver {
	if logger == nil {
		logger = launcher.NewNopLogger()
	}
	return &Resolver{store: store, manifest: manifest, logger: logger}
}

// Resolve loads id and merges its inheritance chain. Loader descriptors only
// exist locally; base releases may be fetched from the manifest. A cycle in
// the chain is reported rather than looped.
func (r *Resolver) Resolve(ctx context.Context, id string) (*model.VersionDescriptor, error) {
	desc, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{id: true}
	for desc.InheritsFrom != "" {
		parentID := desc.InheritsFrom
		if visited[parentID] {
			return nil, fmt.Errorf("version %s: inheritance cycle through %s", id, parentID)
		}
		visited[parentID] = true

		parent, err := r.load(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("loading parent %s of %s: %w", parentID, desc.ID, err)
		}
		r.logger.Debug("merging version", "child", desc.ID, "parent", parentID)
		merged := merge(desc, parent)
		merged.InheritsFrom = parent.InheritsFrom
		desc = merged
	}

	return desc, nil
}

// load returns the local descriptor when installed, otherwise fetches it from
// the manifest.
func (r *Resolver) load(ctx context.Context, id string) (*model.VersionDescriptor, error) {
	desc, err := r.store.Load(id)
	if err == nil {
		return desc, nil
	}
	var nf *launcher.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}

	r.logger.Info("version not installed locally, fetching", "id", id)
	return r.manifest.FetchDescriptor(ctx, id)
}
