// Package game turns a resolved version descriptor into the concrete pieces
// of a launch: the library file set, the classpath, the argument vector, and
// the extracted native libraries.
package game

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fossabot/DropOut/internal/maven"
	"github.com/fossabot/DropOut/internal/model"
	"github.com/fossabot/DropOut/internal/rules"
)

// LibraryFile is one concrete library artifact selected for this platform.
// Native files are downloaded and extracted but kept off the classpath.
type LibraryFile struct {
	URL    string
	Path   string
	SHA1   string
	Native bool
}

// CollectLibraries filters a descriptor's library list through the rule
// evaluator and resolves each surviving entry to concrete files: the main
// artifact (explicit or derived from the Maven coordinate) plus the
// platform's native classifier when one is declared. Order is preserved —
// the merge step put loader libraries first, and the classpath depends on it.
func CollectLibraries(libs []model.Library, eval *rules.Evaluator, platform rules.Platform, librariesDir string) ([]LibraryFile, error) {
	var out []LibraryFile

	for _, lib := range libs {
		if !eval.Allowed(lib.Rules) {
			continue
		}

		main, err := mainArtifact(lib, librariesDir)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", lib.Name, err)
		}
		if main != nil {
			out = append(out, *main)
		}

		if native := nativeArtifact(lib, platform, librariesDir); native != nil {
			out = append(out, *native)
		}
	}

	return out, nil
}

// mainArtifact resolves the non-native artifact of a library. Explicit
// download metadata wins; otherwise the Maven coordinate supplies both the
// path and the URL (loader descriptors ship coordinates plus a repo hint).
func mainArtifact(lib model.Library, librariesDir string) (*LibraryFile, error) {
	if lib.Downloads != nil {
		art := lib.Downloads.Artifact
		if art == nil {
			return nil, nil // natives-only library
		}
		path := art.Path
		if path == "" {
			coord, err := maven.ParseCoordinate(lib.Name)
			if err != nil {
				return nil, err
			}
			path = coord.RelativePath()
		}
		return &LibraryFile{
			URL:  art.URL,
			Path: filepath.Join(librariesDir, filepath.FromSlash(path)),
			SHA1: art.SHA1,
		}, nil
	}

	coord, err := maven.ParseCoordinate(lib.Name)
	if err != nil {
		return nil, err
	}
	url, err := maven.ResolveLibraryURL(lib.Name, "", lib.URL)
	if err != nil {
		return nil, err
	}
	return &LibraryFile{URL: url, Path: coord.LocalPath(librariesDir)}, nil
}

// nativeArtifact picks the platform's native classifier artifact, if the
// library declares one for this OS.
func nativeArtifact(lib model.Library, platform rules.Platform, librariesDir string) *LibraryFile {
	if lib.Downloads == nil || len(lib.Downloads.Classifiers) == 0 {
		return nil
	}

	key := nativeClassifier(lib, platform)
	art, ok := lib.Downloads.Classifiers[key]
	if !ok || art.Path == "" {
		return nil
	}

	return &LibraryFile{
		URL:    art.URL,
		Path:   filepath.Join(librariesDir, filepath.FromSlash(art.Path)),
		SHA1:   art.SHA1,
		Native: true,
	}
}

// nativeClassifier returns the classifier key for this platform. The natives
// map, when present, names it per OS (with an ${arch} placeholder in older
// manifests); the conventional "natives-<os>" key is the fallback.
func nativeClassifier(lib model.Library, platform rules.Platform) string {
	if key, ok := lib.Natives[platform.OS]; ok {
		arch := "64"
		if platform.Arch == "x86" {
			arch = "32"
		}
		return strings.ReplaceAll(key, "${arch}", arch)
	}
	return "natives-" + platform.OS
}

// NativeJars returns the local paths of the native artifacts in files.
func NativeJars(files []LibraryFile) []string {
	var jars []string
	for _, f := range files {
		if f.Native {
			jars = append(jars, f.Path)
		}
	}
	return jars
}
