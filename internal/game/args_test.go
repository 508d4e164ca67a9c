package game_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/fossabot/DropOut/internal/game"
	"github.com/fossabot/DropOut/internal/model"
	"github.com/fossabot/DropOut/internal/rules"
)

func arg(values ...string) model.Argument {
	return model.Argument{Values: values}
}

func testInput(v *model.VersionDescriptor) game.BuildInput {
	return game.BuildInput{
		Version:         v,
		Classpath:       "/libs/a.jar:/versions/1.20.4/1.20.4.jar",
		NativesDir:      "/versions/1.20.4/natives",
		GameDir:         "/game",
		AssetsDir:       "/game/assets",
		Account:         &model.Account{Type: model.AccountOffline, Username: "steve", UUID: "u-u-i-d"},
		Platform:        rules.Platform{OS: "linux", Arch: "x86_64"},
		MinMemoryMB:     1024,
		MaxMemoryMB:     2048,
		LauncherName:    "DropOut",
		LauncherVersion: "1.0.0",
	}
}

func TestBuild(t *testing.T) {
	t.Run("structured arguments with substitution", func(t *testing.T) {
		v := &model.VersionDescriptor{
			ID:         "1.20.4",
			MainClass:  "net.minecraft.client.main.Main",
			AssetIndex: &model.AssetIndexRef{ID: "12"},
			Type:       "release",
			Arguments: &model.Arguments{
				JVM: []model.Argument{
					arg("-Djava.library.path=${natives_directory}"),
					arg("-cp", "${classpath}"),
				},
				Game: []model.Argument{
					arg("--username", "${auth_player_name}"),
					arg("--assetIndex", "${assets_index_name}"),
				},
			},
		}
		in := testInput(v)
		args := game.Build(in)

		if !slices.Contains(args, "-Djava.library.path="+in.NativesDir) {
			t.Errorf("missing natives flag in %v", args)
		}
		// The template supplied -cp, so only one instance must exist.
		if n := countFlag(args, "-cp"); n != 1 {
			t.Errorf("-cp appears %d times, want 1", n)
		}
		if !slices.Contains(args, "--username") || !slices.Contains(args, "steve") {
			t.Errorf("username args missing: %v", args)
		}
		if !slices.Contains(args, "12") {
			t.Errorf("asset index id not substituted: %v", args)
		}

		mainIdx := slices.Index(args, v.MainClass)
		if mainIdx < 0 {
			t.Fatalf("main class missing: %v", args)
		}
		if userIdx := slices.Index(args, "--username"); userIdx < mainIdx {
			t.Error("game arguments must come after the main class")
		}
	})

	t.Run("memory bounds always appended and override template", func(t *testing.T) {
		v := &model.VersionDescriptor{
			ID:        "1.20.4",
			MainClass: "Main",
			Arguments: &model.Arguments{JVM: []model.Argument{arg("-Xmx16G"), arg("-Xms8G")}},
		}
		args := game.Build(testInput(v))

		if slices.Contains(args, "-Xmx16G") || slices.Contains(args, "-Xms8G") {
			t.Errorf("template memory flags should be dropped: %v", args)
		}
		if !slices.Contains(args, "-Xmx2048M") || !slices.Contains(args, "-Xms1024M") {
			t.Errorf("explicit memory flags missing: %v", args)
		}
	})

	t.Run("natives and classpath flags added when template omits them", func(t *testing.T) {
		v := &model.VersionDescriptor{ID: "1.8.9", MainClass: "Main"}
		in := testInput(v)
		args := game.Build(in)

		if !slices.Contains(args, "-Djava.library.path="+in.NativesDir) {
			t.Errorf("natives flag missing: %v", args)
		}
		cpIdx := slices.Index(args, "-cp")
		if cpIdx < 0 || cpIdx+1 >= len(args) || args[cpIdx+1] != in.Classpath {
			t.Errorf("classpath flag missing or wrong: %v", args)
		}
	})

	t.Run("unresolved placeholders are dropped", func(t *testing.T) {
		v := &model.VersionDescriptor{
			ID:        "1.20.4",
			MainClass: "Main",
			Arguments: &model.Arguments{
				Game: []model.Argument{
					arg("--clientId", "${clientid}"),
					arg("--username", "${auth_player_name}"),
				},
			},
		}
		args := game.Build(testInput(v))

		for _, a := range args {
			if strings.Contains(a, "${") {
				t.Errorf("unresolved placeholder leaked: %q", a)
			}
		}
		if !slices.Contains(args, "steve") {
			t.Errorf("resolved argument missing: %v", args)
		}
	})

	t.Run("rule-gated game arguments", func(t *testing.T) {
		v := &model.VersionDescriptor{
			ID:        "1.20.4",
			MainClass: "Main",
			Arguments: &model.Arguments{
				Game: []model.Argument{
					{Values: []string{"--demo"}, Rules: []model.Rule{
						{Action: "allow", Features: map[string]bool{"is_demo_user": true}},
					}},
					{Values: []string{"--only-osx"}, Rules: []model.Rule{
						{Action: "allow", OS: &model.OSRule{Name: "osx"}},
					}},
				},
			},
		}
		args := game.Build(testInput(v))

		if slices.Contains(args, "--demo") {
			t.Error("feature-gated argument must not appear")
		}
		if slices.Contains(args, "--only-osx") {
			t.Error("osx-only argument must not appear on linux")
		}
	})

	t.Run("legacy argument string", func(t *testing.T) {
		v := &model.VersionDescriptor{
			ID:                 "1.7.10",
			MainClass:          "Main",
			Assets:             "legacy",
			MinecraftArguments: "--username ${auth_player_name} --gameDir ${game_directory} --assetIndex ${assets_index_name} --tweakClass ${unknown}",
		}
		args := game.Build(testInput(v))

		if !slices.Contains(args, "steve") || !slices.Contains(args, "/game") {
			t.Errorf("legacy substitution failed: %v", args)
		}
		for _, a := range args {
			if strings.Contains(a, "${") {
				t.Errorf("unresolved placeholder leaked: %q", a)
			}
		}
		if !slices.Contains(args, "legacy") {
			// assets field backs the index id for legacy versions
			t.Errorf("assets fallback not used: %v", args)
		}
	})

	t.Run("offline account passes null token", func(t *testing.T) {
		v := &model.VersionDescriptor{
			ID:        "1.20.4",
			MainClass: "Main",
			Arguments: &model.Arguments{Game: []model.Argument{arg("--accessToken", "${auth_access_token}")}},
		}
		args := game.Build(testInput(v))
		if !slices.Contains(args, "null") {
			t.Errorf("offline token should be the literal null: %v", args)
		}
	})
}

func countFlag(args []string, flag string) int {
	n := 0
	for _, a := range args {
		if a == flag {
			n++
		}
	}
	return n
}
