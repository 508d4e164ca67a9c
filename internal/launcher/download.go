package launcher

import "context"

// Task is one file to acquire: where from, where to, and the expected digest.
// Tasks are ephemeral, built fresh per launch.
type Task struct {
	URL    string
	Path   string
	SHA1   string
	SHA256 string
}

// Download statuses as reported through DownloadEvent.
const (
	StatusVerifying   = "verifying"
	StatusDownloading = "downloading"
	StatusSkipped     = "skipped"
	StatusFinished    = "finished"
	StatusError       = "error"
)

// Progress is a snapshot of the aggregate counters of one engine run.
// Counters only ever grow; DownloadedBytes includes the size of files that
// were skipped because they already verified.
type Progress struct {
	CompletedFiles  int
	TotalFiles      int
	DownloadedBytes int64
}

// DownloadEvent is one per-file progress report plus the aggregate snapshot
// taken at the same moment.
type DownloadEvent struct {
	File       string
	Status     string
	Downloaded int64
	Total      int64
	Progress   Progress
}

// Downloader fetches, verifies, and persists a batch of tasks under a
// concurrency bound, reporting progress through onEvent. One task's failure
// does not cancel its siblings; the returned error joins all per-task
// failures.
type Downloader interface {
	Run(ctx context.Context, tasks []Task, maxConcurrent int, onEvent func(DownloadEvent)) error
}
