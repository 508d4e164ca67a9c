package game

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZipExtractor unpacks native-library jars. It satisfies the launch
// pipeline's NativesExtractor dependency.
type ZipExtractor struct{}

// Extract unpacks every jar into dest, replacing whatever a previous launch
// left there. META-INF entries are skipped; entries escaping dest are
// rejected.
func (ZipExtractor) Extract(jars []string, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clearing natives directory: %w", err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating natives directory: %w", err)
	}

	for _, jar := range jars {
		if err := extractOne(jar, dest); err != nil {
			return fmt.Errorf("extracting %s: %w", jar, err)
		}
	}
	return nil
}

func extractOne(jar, dest string) error {
	r, err := zip.OpenReader(jar)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		if err := extractEntry(f, dest); err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractEntry(f *zip.File, dest string) error {
	target := filepath.Join(dest, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("entry escapes destination")
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
