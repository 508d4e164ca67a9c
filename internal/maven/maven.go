// Package maven parses Maven coordinates and maps them to repository paths
// and download URLs. Mod loaders ship libraries as bare coordinates
// (e.g. net.fabricmc:fabric-loader:0.14.21) instead of explicit artifacts.
package maven

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Known repository base URLs.
const (
	MavenCentral    = "https://repo1.maven.org/maven2/"
	FabricMaven     = "https://maven.fabricmc.net/"
	ForgeMaven      = "https://maven.minecraftforge.net/"
	MojangLibraries = "https://libraries.minecraft.net/"
)

// Coordinate is a parsed Maven coordinate:
// group:artifact:version[:classifier][@extension].
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

// ParseCoordinate parses a coordinate string. Three colon-separated segments
// give group/artifact/version; a fourth adds a classifier. A trailing
// "@ext" suffix overrides the default "jar" extension. Anything else is an
// error.
func ParseCoordinate(s string) (Coordinate, error) {
	ext := "jar"
	if at := strings.LastIndex(s, "@"); at >= 0 {
		ext = s[at+1:]
		s = s[:at]
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 3:
		return Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2], Extension: ext}, nil
	case 4:
		return Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2], Classifier: parts[3], Extension: ext}, nil
	default:
		return Coordinate{}, fmt.Errorf("invalid maven coordinate %q: want 3 or 4 segments, got %d", s, len(parts))
	}
}

// FileName returns artifact-version[-classifier].extension.
func (c Coordinate) FileName() string {
	if c.Classifier != "" {
		return fmt.Sprintf("%s-%s-%s.%s", c.Artifact, c.Version, c.Classifier, c.Extension)
	}
	return fmt.Sprintf("%s-%s.%s", c.Artifact, c.Version, c.Extension)
}

// RelativePath returns the repository-relative path of the artifact, with the
// group's dots expanded to slashes.
func (c Coordinate) RelativePath() string {
	group := strings.ReplaceAll(c.Group, ".", "/")
	return fmt.Sprintf("%s/%s/%s/%s", group, c.Artifact, c.Version, c.FileName())
}

// URL joins a repository base URL with the artifact's relative path.
func (c Coordinate) URL(baseRepo string) string {
	return strings.TrimSuffix(baseRepo, "/") + "/" + c.RelativePath()
}

// LocalPath returns the on-disk location of the artifact under a libraries
// directory, using the host path separator.
func (c Coordinate) LocalPath(librariesDir string) string {
	return filepath.Join(librariesDir, filepath.FromSlash(c.RelativePath()))
}

// ResolveLibraryURL resolves the download URL for a library. An explicit URL
// always wins. Otherwise the coordinate is parsed and a repository is picked:
// the repoHint if given, else a default chosen by group prefix (loader groups
// route to their own repositories, everything else to the Mojang library
// repository).
func ResolveLibraryURL(name, explicitURL, repoHint string) (string, error) {
	if explicitURL != "" {
		return explicitURL, nil
	}

	coord, err := ParseCoordinate(name)
	if err != nil {
		return "", err
	}

	base := repoHint
	if base == "" {
		base = defaultRepository(coord.Group)
	}
	return coord.URL(base), nil
}

func defaultRepository(group string) string {
	switch {
	case strings.HasPrefix(group, "net.fabricmc"):
		return FabricMaven
	case strings.HasPrefix(group, "net.minecraftforge"), strings.HasPrefix(group, "cpw.mods"):
		return ForgeMaven
	default:
		return MojangLibraries
	}
}
