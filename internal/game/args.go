package game

import (
	"fmt"
	"strings"

	"github.com/fossabot/DropOut/internal/model"
	"github.com/fossabot/DropOut/internal/rules"
)

// BuildInput is everything the argument builder needs to produce the final
// process argument vector for a resolved version.
type BuildInput struct {
	Version         *model.VersionDescriptor
	Classpath       string
	NativesDir      string
	GameDir         string
	AssetsDir       string
	Account         *model.Account
	Platform        rules.Platform
	MinMemoryMB     int
	MaxMemoryMB     int
	LauncherName    string
	LauncherVersion string
}

// Build assembles the ordered argument vector: JVM arguments (template,
// then explicit memory bounds, then natives/classpath flags when the
// template did not supply them), the main class, and the game arguments
// (legacy string or structured list). Placeholder tokens are substituted;
// any argument still containing an unresolved ${...} token is dropped so the
// game never sees a malformed argument.
func Build(in BuildInput) []string {
	eval := rules.NewEvaluator(in.Platform)
	var args []string

	jvmRepl := map[string]string{
		"${natives_directory}": in.NativesDir,
		"${classpath}":         in.Classpath,
		"${launcher_name}":     in.LauncherName,
		"${launcher_version}":  in.LauncherVersion,
	}

	if in.Version.Arguments != nil {
		for _, entry := range in.Version.Arguments.JVM {
			if !eval.Allowed(entry.Rules) {
				continue
			}
			for _, v := range entry.Values {
				arg := substitute(v, jvmRepl)
				// Memory bounds are set explicitly below and always win.
				if strings.HasPrefix(arg, "-Xmx") || strings.HasPrefix(arg, "-Xms") {
					continue
				}
				if hasUnresolvedPlaceholder(arg) {
					continue
				}
				args = append(args, arg)
			}
		}
	}

	args = append(args, fmt.Sprintf("-Xmx%dM", in.MaxMemoryMB))
	args = append(args, fmt.Sprintf("-Xms%dM", in.MinMemoryMB))

	if !containsPrefix(args, "-Djava.library.path") {
		args = append(args, "-Djava.library.path="+in.NativesDir)
	}
	if !containsFlag(args, "-cp") && !containsFlag(args, "-classpath") {
		args = append(args, "-cp", in.Classpath)
	}

	args = append(args, in.Version.MainClass)

	gameRepl := map[string]string{
		"${auth_player_name}":  in.Account.Username,
		"${version_name}":      in.Version.ID,
		"${game_directory}":    in.GameDir,
		"${assets_root}":       in.AssetsDir,
		"${assets_index_name}": assetIndexID(in.Version),
		"${auth_uuid}":         in.Account.UUID,
		"${auth_access_token}": in.Account.GameToken(),
		"${user_type}":         "mojang",
		"${version_type}":      versionType(in.Version),
		"${user_properties}":   "{}",
	}

	switch {
	case in.Version.MinecraftArguments != "":
		// Legacy single-string template, whitespace-delimited.
		for _, part := range strings.Fields(in.Version.MinecraftArguments) {
			arg := substitute(part, gameRepl)
			if hasUnresolvedPlaceholder(arg) {
				continue
			}
			args = append(args, arg)
		}
	case in.Version.Arguments != nil:
		for _, entry := range in.Version.Arguments.Game {
			if !eval.Allowed(entry.Rules) {
				continue
			}
			for _, v := range entry.Values {
				arg := substitute(v, gameRepl)
				if hasUnresolvedPlaceholder(arg) {
					continue
				}
				args = append(args, arg)
			}
		}
	}

	return args
}

func substitute(s string, repl map[string]string) string {
	for key, val := range repl {
		s = strings.ReplaceAll(s, key, val)
	}
	return s
}

// hasUnresolvedPlaceholder reports whether s still contains a ${ sequence
// after substitution. A dangling "${" without a closing brace is also
// treated as unresolved.
func hasUnresolvedPlaceholder(s string) bool {
	return strings.Contains(s, "${")
}

func containsPrefix(args []string, prefix string) bool {
	for _, a := range args {
		if strings.HasPrefix(a, prefix) {
			return true
		}
	}
	return false
}

func containsFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func assetIndexID(v *model.VersionDescriptor) string {
	if v.AssetIndex != nil {
		return v.AssetIndex.ID
	}
	return v.Assets
}

func versionType(v *model.VersionDescriptor) string {
	if v.Type != "" {
		return v.Type
	}
	return "release"
}
