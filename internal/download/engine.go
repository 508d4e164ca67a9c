// Package download implements the bounded-concurrency artifact engine:
// digest pre-verification, streaming fetch, and aggregate progress counters.
package download

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"

	"github.com/fossabot/DropOut/internal/launcher"
)

// Concurrency bounds. Requests outside this range are clamped, not rejected.
const (
	minConcurrent = 1
	maxConcurrent = 128
)

// Engine implements launcher.Downloader.
type Engine struct {
	http   *resty.Client
	logger launcher.Logger
}

var _ launcher.Downloader = (*Engine)(nil)

// NewEngine creates a download engine. A nil logger defaults to a no-op.
func NewEngine(logger launcher.Logger) *Engine {
	if logger == nil {
		logger = launcher.NewNopLogger()
	}
	return &Engine{
		// No overall request timeout: large artifacts on slow links are
		// legitimate. Cancellation comes from ctx.
		http:   resty.New(),
		logger: logger,
	}
}

// progress carries the run-wide counters shared by all workers.
type progress struct {
	completedFiles  atomic.Int64
	downloadedBytes atomic.Int64
	totalFiles      int
}

func (p *progress) snapshot() launcher.Progress {
	return launcher.Progress{
		CompletedFiles:  int(p.completedFiles.Load()),
		TotalFiles:      p.totalFiles,
		DownloadedBytes: p.downloadedBytes.Load(),
	}
}

// Run acquires every task under the concurrency bound. Each task is verified
// against its digest before downloading; files already on disk that verify
// are skipped (their size still counts into DownloadedBytes). One task's
// failure does not cancel its siblings; the returned error joins every
// per-task failure.
func (e *Engine) Run(ctx context.Context, tasks []launcher.Task, concurrent int, onEvent func(launcher.DownloadEvent)) error {
	if len(tasks) == 0 {
		return nil
	}
	if onEvent == nil {
		onEvent = func(launcher.DownloadEvent) {}
	}
	if concurrent < minConcurrent {
		concurrent = minConcurrent
	}
	if concurrent > maxConcurrent {
		concurrent = maxConcurrent
	}
	e.logger.Info("download run starting", "files", len(tasks), "concurrency", concurrent)

	prog := &progress{totalFiles: len(tasks)}
	sem := semaphore.NewWeighted(int64(concurrent))
	var wg sync.WaitGroup

	var mu sync.Mutex
	var failures []error

	for _, task := range tasks {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; stop dispatching.
			mu.Lock()
			failures = append(failures, fmt.Errorf("%s: %w", task.Path, err))
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(task launcher.Task) {
			defer wg.Done()
			defer sem.Release(1)

			if err := e.acquire(ctx, task, prog, onEvent); err != nil {
				onEvent(launcher.DownloadEvent{
					File:     filepath.Base(task.Path),
					Status:   launcher.StatusError,
					Progress: prog.snapshot(),
				})
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", filepath.Base(task.Path), err))
				mu.Unlock()
			}
		}(task)
	}
	wg.Wait()

	if len(failures) > 0 {
		// Deterministic order for error reporting.
		sort.Slice(failures, func(i, j int) bool { return failures[i].Error() < failures[j].Error() })
		e.logger.Error("download run finished with failures", "failed", len(failures))
		return errors.Join(failures...)
	}
	return nil
}

// acquire verifies, downloads, and persists a single task.
func (e *Engine) acquire(ctx context.Context, task launcher.Task, prog *progress, onEvent func(launcher.DownloadEvent)) error {
	name := filepath.Base(task.Path)

	if info, err := os.Stat(task.Path); err == nil {
		onEvent(launcher.DownloadEvent{File: name, Status: launcher.StatusVerifying, Progress: prog.snapshot()})
		ok, verr := e.verify(task)
		if verr != nil {
			return verr
		}
		if ok {
			// Existing valid file: its bytes count toward the total so the
			// aggregate reflects the full working set.
			prog.downloadedBytes.Add(info.Size())
			prog.completedFiles.Add(1)
			onEvent(launcher.DownloadEvent{File: name, Status: launcher.StatusSkipped, Progress: prog.snapshot()})
			return nil
		}
	}

	if err := e.fetch(ctx, task, prog, onEvent); err != nil {
		return err
	}

	// Post-download verification catches truncated or corrupted transfers.
	if task.SHA256 != "" || task.SHA1 != "" {
		ok, err := e.verify(task)
		if err != nil {
			return err
		}
		if !ok {
			algo, want := preferredDigest(task)
			got, _ := fileDigest(task.Path, algo)
			return &launcher.IntegrityError{Path: task.Path, Algo: algo, Want: want, Got: got}
		}
	}

	prog.completedFiles.Add(1)
	onEvent(launcher.DownloadEvent{File: name, Status: launcher.StatusFinished, Progress: prog.snapshot()})
	return nil
}

// fetch streams the artifact to disk, counting bytes as they arrive.
func (e *Engine) fetch(ctx context.Context, task launcher.Task, prog *progress, onEvent func(launcher.DownloadEvent)) error {
	if err := os.MkdirAll(filepath.Dir(task.Path), 0755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}

	resp, err := e.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(task.URL)
	if err != nil {
		return &launcher.NetworkError{URL: task.URL, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return &launcher.NetworkError{URL: task.URL, Status: resp.StatusCode()}
	}
	total := resp.RawResponse.ContentLength

	// Write to a temp file first so a failed transfer never leaves a
	// plausible-looking artifact behind.
	tmp, err := os.CreateTemp(filepath.Dir(task.Path), filepath.Base(task.Path)+".part*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	name := filepath.Base(task.Path)
	var downloaded int64
	buf := make([]byte, 64*1024)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				tmp.Close()
				return fmt.Errorf("writing %s: %w", task.Path, werr)
			}
			downloaded += int64(n)
			prog.downloadedBytes.Add(int64(n))
			onEvent(launcher.DownloadEvent{
				File:       name,
				Status:     launcher.StatusDownloading,
				Downloaded: downloaded,
				Total:      total,
				Progress:   prog.snapshot(),
			})
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			tmp.Close()
			return &launcher.NetworkError{URL: task.URL, Err: rerr}
		}
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, task.Path); err != nil {
		return fmt.Errorf("moving %s into place: %w", task.Path, err)
	}
	return nil
}

// verify checks the file on disk against the task's digest. SHA-256 is
// preferred when both are present; a task with no digest at all verifies
// trivially.
func (e *Engine) verify(task launcher.Task) (bool, error) {
	algo, want := preferredDigest(task)
	if want == "" {
		return true, nil
	}
	got, err := fileDigest(task.Path, algo)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

func preferredDigest(task launcher.Task) (algo, want string) {
	if task.SHA256 != "" {
		return "sha256", task.SHA256
	}
	if task.SHA1 != "" {
		return "sha1", task.SHA1
	}
	return "", ""
}

func fileDigest(path, algo string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for verification: %w", path, err)
	}
	defer f.Close()

	var h hash.Hash
	switch algo {
	case "sha256":
		h = sha256.New()
	default:
		h = sha1.New()
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
