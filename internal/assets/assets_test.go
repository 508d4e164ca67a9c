package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
)

const indexJSON = `{
	"objects": {
		"minecraft/sounds/ambient/cave/cave1.ogg": {"hash": "aabbccddeeff00112233445566778899aabbccdd", "size": 100},
		"minecraft/lang/en_us.json": {"hash": "ffeeddccbbaa99887766554433221100ffeeddcc", "size": 200},
		"minecraft/lang/en_gb.json": {"hash": "ffeeddccbbaa99887766554433221100ffeeddcc", "size": 200}
	}
}`

func newIndexServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, indexJSON)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestResolver_Tasks(t *testing.T) {
	gameDir := t.TempDir()
	srv, _ := newIndexServer(t)
	r := NewResolver(gameDir, "https://resources.test", nil)

	tasks, err := r.Tasks(context.Background(), &model.AssetIndexRef{ID: "12", URL: srv.URL})
	if err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}

	// Three logical names, two unique hashes.
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2 (duplicate hash collapsed)", len(tasks))
	}

	byHash := map[string]launcher.Task{}
	for _, task := range tasks {
		byHash[task.SHA1] = task
	}
	task, ok := byHash["aabbccddeeff00112233445566778899aabbccdd"]
	if !ok {
		t.Fatal("missing task for cave1.ogg hash")
	}
	if task.URL != "https://resources.test/aa/aabbccddeeff00112233445566778899aabbccdd" {
		t.Errorf("URL = %q", task.URL)
	}
	wantPath := filepath.Join(gameDir, "assets", "objects", "aa", "aabbccddeeff00112233445566778899aabbccdd")
	if task.Path != wantPath {
		t.Errorf("Path = %q, want %q", task.Path, wantPath)
	}
}

func TestResolver_Tasks_CachesIndex(t *testing.T) {
	gameDir := t.TempDir()
	srv, requests := newIndexServer(t)
	r := NewResolver(gameDir, "", nil)
	ref := &model.AssetIndexRef{ID: "12", URL: srv.URL}

	if _, err := r.Tasks(context.Background(), ref); err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}

	// Cached on disk now.
	if _, err := os.Stat(filepath.Join(gameDir, "assets", "indexes", "12.json")); err != nil {
		t.Fatalf("index not cached: %v", err)
	}

	if _, err := r.Tasks(context.Background(), ref); err != nil {
		t.Fatalf("second Tasks() error = %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("requests = %d after second call, want still 1", n)
	}
}

func TestResolver_Tasks_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	r := NewResolver(t.TempDir(), "", nil)

	_, err := r.Tasks(context.Background(), &model.AssetIndexRef{ID: "12", URL: srv.URL})
	var ne *launcher.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
}

func TestResolver_Tasks_MalformedIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"objects": {"thing": {"hash": "x"}}}`)
	}))
	defer srv.Close()
	r := NewResolver(t.TempDir(), "", nil)

	_, err := r.Tasks(context.Background(), &model.AssetIndexRef{ID: "12", URL: srv.URL})
	var pe *launcher.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ProtocolError for malformed hash", err)
	}
}

func TestResolver_Tasks_NilRef(t *testing.T) {
	r := NewResolver(t.TempDir(), "", nil)
	if _, err := r.Tasks(context.Background(), nil); err == nil {
		t.Fatal("Tasks(nil) should fail")
	}
}
