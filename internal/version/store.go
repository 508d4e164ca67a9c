package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
)

// Store reads and writes version descriptors in the standard on-disk layout:
// <gameDir>/versions/<id>/<id>.json. Loader installers write through it and
// the resolver prefers it over the network.
type Store struct {
	gameDir string
}

// NewStore creates a store rooted at the given game directory.
func NewStore(gameDir string) *Store {
	return &Store{gameDir: gameDir}
}

// Path returns where the descriptor for id lives (whether or not it exists).
func (s *Store) Path(id string) string {
	return filepath.Join(s.gameDir, "versions", id, id+".json")
}

// Load reads a locally installed descriptor. A missing file is a
// NotFoundError so callers can fall back to the network.
func (s *Store) Load(id string) (*model.VersionDescriptor, error) {
	data, err := os.ReadFile(s.Path(id))
	if os.IsNotExist(err) {
		return nil, &launcher.NotFoundError{Kind: "version", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("reading version %s: %w", id, err)
	}

	var desc model.VersionDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parsing version %s: %w", id, err)
	}
	return &desc, nil
}

// Save writes the descriptor to its canonical location, creating the version
// directory as needed.
func (s *Store) Save(desc *model.VersionDescriptor) error {
	if desc.ID == "" {
		return fmt.Errorf("cannot save a version without an id")
	}
	dir := filepath.Dir(s.Path(desc.ID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating version directory: %w", err)
	}

	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding version %s: %w", desc.ID, err)
	}
	if err := os.WriteFile(s.Path(desc.ID), data, 0644); err != nil {
		return fmt.Errorf("writing version %s: %w", desc.ID, err)
	}
	return nil
}

// List returns the IDs of all locally installed versions, sorted. A version
// counts as installed when its directory contains the matching JSON file.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.gameDir, "versions"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if _, err := os.Stat(s.Path(id)); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
