package game_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/fossabot/DropOut/internal/game"
)

func writeNativeJar(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating jar: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		ew, err := w.Create(name)
		if err != nil {
			t.Fatalf("adding entry: %v", err)
		}
		if _, err := ew.Write([]byte(content)); err != nil {
			t.Fatalf("writing entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing jar: %v", err)
	}
}

func TestZipExtractor_Extract(t *testing.T) {
	t.Run("extracts entries and skips META-INF", func(t *testing.T) {
		dir := t.TempDir()
		jar := filepath.Join(dir, "natives.jar")
		writeNativeJar(t, jar, map[string]string{
			"liblwjgl.so":          "elf",
			"META-INF/MANIFEST.MF": "manifest",
		})

		dest := filepath.Join(dir, "natives")
		if err := (game.ZipExtractor{}).Extract([]string{jar}, dest); err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dest, "liblwjgl.so"))
		if err != nil {
			t.Fatalf("extracted file missing: %v", err)
		}
		if string(data) != "elf" {
			t.Errorf("content = %q, want elf", data)
		}
		if _, err := os.Stat(filepath.Join(dest, "META-INF")); !os.IsNotExist(err) {
			t.Error("META-INF should not be extracted")
		}
	})

	t.Run("clears stale natives from a previous launch", func(t *testing.T) {
		dir := t.TempDir()
		dest := filepath.Join(dir, "natives")
		if err := os.MkdirAll(dest, 0755); err != nil {
			t.Fatal(err)
		}
		stale := filepath.Join(dest, "old.so")
		if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := (game.ZipExtractor{}).Extract(nil, dest); err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if _, err := os.Stat(stale); !os.IsNotExist(err) {
			t.Error("stale native should have been removed")
		}
	})
}
