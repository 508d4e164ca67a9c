package download

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fossabot/DropOut/internal/launcher"
)

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fileServer serves fixed content per path and counts requests.
type fileServer struct {
	*httptest.Server
	files    map[string][]byte
	requests atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	delay    time.Duration
}

func newFileServer(t *testing.T) *fileServer {
	t.Helper()
	s := &fileServer{files: map[string][]byte{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		cur := s.inFlight.Add(1)
		defer s.inFlight.Add(-1)
		for {
			max := s.maxSeen.Load()
			if cur <= max || s.maxSeen.CompareAndSwap(max, cur) {
				break
			}
		}
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		data, ok := s.files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

type eventLog struct {
	mu     sync.Mutex
	events []launcher.DownloadEvent
}

func (l *eventLog) record(ev launcher.DownloadEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) statuses(file string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, ev := range l.events {
		if ev.File == file {
			out = append(out, ev.Status)
		}
	}
	return out
}

func (l *eventLog) last() launcher.DownloadEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

func TestEngine_Run(t *testing.T) {
	t.Run("downloads and verifies", func(t *testing.T) {
		server := newFileServer(t)
		content := []byte("client jar bytes")
		server.files["/client.jar"] = content

		dir := t.TempDir()
		dest := filepath.Join(dir, "versions", "1.20.4", "1.20.4.jar")
		log := &eventLog{}

		err := NewEngine(nil).Run(context.Background(), []launcher.Task{
			{URL: server.URL + "/client.jar", Path: dest, SHA1: sha1Hex(content)},
		}, 4, log.record)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		got, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("file not written: %v", err)
		}
		if string(got) != string(content) {
			t.Error("content mismatch")
		}

		statuses := log.statuses("1.20.4.jar")
		if statuses[len(statuses)-1] != launcher.StatusFinished {
			t.Errorf("last status = %q, want finished", statuses[len(statuses)-1])
		}
		final := log.last()
		if final.Progress.CompletedFiles != 1 || final.Progress.TotalFiles != 1 {
			t.Errorf("progress = %+v", final.Progress)
		}
		if final.Progress.DownloadedBytes != int64(len(content)) {
			t.Errorf("DownloadedBytes = %d, want %d", final.Progress.DownloadedBytes, len(content))
		}
	})

	t.Run("valid existing file is skipped without a request", func(t *testing.T) {
		server := newFileServer(t)
		content := []byte("already here")
		server.files["/lib.jar"] = content

		dir := t.TempDir()
		dest := filepath.Join(dir, "lib.jar")
		if err := os.WriteFile(dest, content, 0644); err != nil {
			t.Fatal(err)
		}
		log := &eventLog{}

		err := NewEngine(nil).Run(context.Background(), []launcher.Task{
			{URL: server.URL + "/lib.jar", Path: dest, SHA1: sha1Hex(content)},
		}, 4, log.record)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if n := server.requests.Load(); n != 0 {
			t.Errorf("server saw %d requests, want 0", n)
		}
		statuses := log.statuses("lib.jar")
		if statuses[len(statuses)-1] != launcher.StatusSkipped {
			t.Errorf("statuses = %v, want skip", statuses)
		}
		// Skipped bytes still count into the aggregate.
		if got := log.last().Progress.DownloadedBytes; got != int64(len(content)) {
			t.Errorf("DownloadedBytes = %d, want %d", got, len(content))
		}
	})

	t.Run("corrupted existing file is re-downloaded", func(t *testing.T) {
		server := newFileServer(t)
		content := []byte("the real content")
		server.files["/lib.jar"] = content

		dir := t.TempDir()
		dest := filepath.Join(dir, "lib.jar")
		if err := os.WriteFile(dest, []byte("tampered"), 0644); err != nil {
			t.Fatal(err)
		}

		err := NewEngine(nil).Run(context.Background(), []launcher.Task{
			{URL: server.URL + "/lib.jar", Path: dest, SHA1: sha1Hex(content)},
		}, 4, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if n := server.requests.Load(); n != 1 {
			t.Errorf("server saw %d requests, want 1", n)
		}
		got, _ := os.ReadFile(dest)
		if string(got) != string(content) {
			t.Error("corrupted file was not replaced")
		}
	})

	t.Run("sha256 preferred over sha1", func(t *testing.T) {
		server := newFileServer(t)
		content := []byte("dual digest")
		server.files["/lib.jar"] = content

		dest := filepath.Join(t.TempDir(), "lib.jar")
		if err := os.WriteFile(dest, content, 0644); err != nil {
			t.Fatal(err)
		}

		// SHA-1 deliberately wrong: with a valid SHA-256 the file must
		// still verify, proving SHA-256 took precedence.
		err := NewEngine(nil).Run(context.Background(), []launcher.Task{
			{URL: server.URL + "/lib.jar", Path: dest, SHA1: strings.Repeat("0", 40), SHA256: sha256Hex(content)},
		}, 4, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if n := server.requests.Load(); n != 0 {
			t.Errorf("server saw %d requests, want 0", n)
		}
	})

	t.Run("digest mismatch from server is an integrity error", func(t *testing.T) {
		server := newFileServer(t)
		server.files["/lib.jar"] = []byte("what the server has")

		dest := filepath.Join(t.TempDir(), "lib.jar")
		err := NewEngine(nil).Run(context.Background(), []launcher.Task{
			{URL: server.URL + "/lib.jar", Path: dest, SHA1: sha1Hex([]byte("what we expected"))},
		}, 4, nil)

		var ie *launcher.IntegrityError
		if !errors.As(err, &ie) {
			t.Fatalf("error = %v, want IntegrityError", err)
		}
		if ie.Algo != "sha1" {
			t.Errorf("Algo = %q", ie.Algo)
		}
	})

	t.Run("one failure does not cancel siblings", func(t *testing.T) {
		server := newFileServer(t)
		good := []byte("good file")
		server.files["/good.jar"] = good

		dir := t.TempDir()
		goodDest := filepath.Join(dir, "good.jar")
		badDest := filepath.Join(dir, "bad.jar")

		err := NewEngine(nil).Run(context.Background(), []launcher.Task{
			{URL: server.URL + "/missing.jar", Path: badDest, SHA1: strings.Repeat("0", 40)},
			{URL: server.URL + "/good.jar", Path: goodDest, SHA1: sha1Hex(good)},
		}, 4, nil)

		if err == nil {
			t.Fatal("Run() expected error for the missing file")
		}
		var ne *launcher.NetworkError
		if !errors.As(err, &ne) {
			t.Errorf("error = %v, want to unwrap to NetworkError", err)
		}
		if _, statErr := os.Stat(goodDest); statErr != nil {
			t.Error("sibling download should have completed despite the failure")
		}
	})

	t.Run("concurrency is bounded", func(t *testing.T) {
		server := newFileServer(t)
		server.delay = 20 * time.Millisecond
		var tasks []launcher.Task
		dir := t.TempDir()
		for i := 0; i < 12; i++ {
			path := fmt.Sprintf("/f%d", i)
			content := []byte(fmt.Sprintf("file %d", i))
			server.files[path] = content
			tasks = append(tasks, launcher.Task{
				URL:  server.URL + path,
				Path: filepath.Join(dir, fmt.Sprintf("f%d", i)),
				SHA1: sha1Hex(content),
			})
		}

		if err := NewEngine(nil).Run(context.Background(), tasks, 3, nil); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if max := server.maxSeen.Load(); max > 3 {
			t.Errorf("observed %d concurrent requests, want at most 3", max)
		}
	})

	t.Run("concurrency below one is clamped up", func(t *testing.T) {
		server := newFileServer(t)
		content := []byte("x")
		server.files["/f"] = content

		err := NewEngine(nil).Run(context.Background(), []launcher.Task{
			{URL: server.URL + "/f", Path: filepath.Join(t.TempDir(), "f"), SHA1: sha1Hex(content)},
		}, 0, nil)
		if err != nil {
			t.Fatalf("Run() error = %v (zero concurrency must clamp to 1)", err)
		}
	})

	t.Run("no digest means existence is enough", func(t *testing.T) {
		server := newFileServer(t)
		dest := filepath.Join(t.TempDir(), "f")
		if err := os.WriteFile(dest, []byte("anything"), 0644); err != nil {
			t.Fatal(err)
		}

		err := NewEngine(nil).Run(context.Background(), []launcher.Task{
			{URL: server.URL + "/f", Path: dest},
		}, 4, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if n := server.requests.Load(); n != 0 {
			t.Errorf("server saw %d requests, want 0", n)
		}
	})

	t.Run("empty task list is a no-op", func(t *testing.T) {
		if err := NewEngine(nil).Run(context.Background(), nil, 4, nil); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	})

	t.Run("cancelled context aborts the run", func(t *testing.T) {
		server := newFileServer(t)
		server.files["/f"] = []byte("x")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewEngine(nil).Run(ctx, []launcher.Task{
			{URL: server.URL + "/f", Path: filepath.Join(t.TempDir(), "f")},
		}, 4, nil)
		if err == nil {
			t.Fatal("Run() with a cancelled context should fail")
		}
	})
}
