package version

import (
	"testing"

	"github.com/fossabot/DropOut/internal/model"
)

func lib(name string) model.Library {
	return model.Library{Name: name}
}

func TestMerge(t *testing.T) {
	parent := &model.VersionDescriptor{
		ID:        "1.20.4",
		Type:      "release",
		MainClass: "net.minecraft.client.main.Main",
		Libraries: []model.Library{lib("com.mojang:brigadier:1.2.9"), lib("org.ow2.asm:asm:9.3")},
		Downloads: &model.Downloads{
			Client: &model.Artifact{URL: "https://example.com/client.jar", SHA1: "abc"},
		},
		AssetIndex: &model.AssetIndexRef{ID: "12", URL: "https://example.com/12.json"},
		Assets:     "12",
		JavaVersion: &model.JavaVersion{
			Component:    "java-runtime-gamma",
			MajorVersion: 17,
		},
		Arguments: &model.Arguments{
			Game: []model.Argument{{Values: []string{"--username", "${auth_player_name}"}}},
			JVM:  []model.Argument{{Values: []string{"-cp", "${classpath}"}}},
		},
	}

	child := &model.VersionDescriptor{
		ID:           "fabric-loader-0.15.6-1.20.4",
		InheritsFrom: "1.20.4",
		MainClass:    "net.fabricmc.loader.impl.launch.knot.KnotClient",
		Libraries:    []model.Library{lib("net.fabricmc:fabric-loader:0.15.6")},
		Arguments: &model.Arguments{
			JVM: []model.Argument{{Values: []string{"-DFabricMcEmu=net.minecraft.client.main.Main"}}},
		},
	}

	merged := merge(child, parent)

	t.Run("child identity wins", func(t *testing.T) {
		if merged.ID != "fabric-loader-0.15.6-1.20.4" {
			t.Errorf("ID = %q", merged.ID)
		}
		if merged.MainClass != "net.fabricmc.loader.impl.launch.knot.KnotClient" {
			t.Errorf("MainClass = %q, want the loader entry point", merged.MainClass)
		}
	})

	t.Run("child libraries come first", func(t *testing.T) {
		if len(merged.Libraries) != 3 {
			t.Fatalf("len(Libraries) = %d, want 3", len(merged.Libraries))
		}
		if merged.Libraries[0].Name != "net.fabricmc:fabric-loader:0.15.6" {
			t.Errorf("Libraries[0] = %q, want the loader library", merged.Libraries[0].Name)
		}
		if merged.Libraries[1].Name != "com.mojang:brigadier:1.2.9" {
			t.Errorf("Libraries[1] = %q, parent order not preserved", merged.Libraries[1].Name)
		}
	})

	t.Run("parent arguments precede child additions", func(t *testing.T) {
		if len(merged.Arguments.JVM) != 2 {
			t.Fatalf("len(JVM) = %d, want 2", len(merged.Arguments.JVM))
		}
		if merged.Arguments.JVM[0].Values[0] != "-cp" {
			t.Errorf("JVM[0] = %v, want parent argument first", merged.Arguments.JVM[0].Values)
		}
		if merged.Arguments.JVM[1].Values[0] != "-DFabricMcEmu=net.minecraft.client.main.Main" {
			t.Errorf("JVM[1] = %v, want child addition last", merged.Arguments.JVM[1].Values)
		}
		// Child has no game args, so the parent's survive unchanged.
		if len(merged.Arguments.Game) != 1 {
			t.Errorf("len(Game) = %d, want 1", len(merged.Arguments.Game))
		}
	})

	t.Run("parent fills the gaps", func(t *testing.T) {
		if merged.Downloads == nil || merged.Downloads.Client.SHA1 != "abc" {
			t.Error("parent downloads not inherited")
		}
		if merged.AssetIndex == nil || merged.AssetIndex.ID != "12" {
			t.Error("parent asset index not inherited")
		}
		if merged.Assets != "12" {
			t.Errorf("Assets = %q, want inherited %q", merged.Assets, "12")
		}
		if merged.JavaVersion == nil || merged.JavaVersion.MajorVersion != 17 {
			t.Error("parent java version not inherited")
		}
		if merged.Type != "release" {
			t.Errorf("Type = %q, want inherited %q", merged.Type, "release")
		}
	})

	t.Run("result is complete", func(t *testing.T) {
		if merged.InheritsFrom != "" {
			t.Errorf("InheritsFrom = %q, want cleared", merged.InheritsFrom)
		}
		if !merged.Complete() {
			t.Error("merged descriptor should be complete")
		}
	})
}

func TestMerge_ChildOverrides(t *testing.T) {
	parent := &model.VersionDescriptor{
		ID:         "1.20.4",
		Type:       "release",
		AssetIndex: &model.AssetIndexRef{ID: "12"},
		JavaVersion: &model.JavaVersion{
			MajorVersion: 17,
		},
	}
	child := &model.VersionDescriptor{
		ID:           "custom",
		InheritsFrom: "1.20.4",
		Type:         "snapshot",
		AssetIndex:   &model.AssetIndexRef{ID: "13"},
		JavaVersion: &model.JavaVersion{
			MajorVersion: 21,
		},
	}

	merged := merge(child, parent)

	if merged.Type != "snapshot" {
		t.Errorf("Type = %q, want child value", merged.Type)
	}
	if merged.AssetIndex.ID != "13" {
		t.Errorf("AssetIndex.ID = %q, want child value", merged.AssetIndex.ID)
	}
	if merged.JavaVersion.MajorVersion != 21 {
		t.Errorf("JavaVersion = %d, want child value", merged.JavaVersion.MajorVersion)
	}
}

func TestMerge_LegacyArguments(t *testing.T) {
	parent := &model.VersionDescriptor{
		ID:                 "1.7.10",
		MinecraftArguments: "--username ${auth_player_name}",
	}
	child := &model.VersionDescriptor{
		ID:           "forge-1.7.10",
		InheritsFrom: "1.7.10",
	}

	merged := merge(child, parent)
	if merged.MinecraftArguments != "--username ${auth_player_name}" {
		t.Errorf("MinecraftArguments = %q, want inherited legacy string", merged.MinecraftArguments)
	}
}
