package app

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/fossabot/DropOut/internal/launcher"
)

// CLISink renders launch events on the terminal: launcher messages and game
// output as plain lines on stderr/stdout, download progress as a single
// progress bar when stderr is a TTY.
type CLISink struct {
	out  io.Writer // game output
	errw io.Writer // launcher messages and progress
	tty  bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewCLISink creates a sink writing game output to stdout and launcher
// messages to stderr.
func NewCLISink() *CLISink {
	return &CLISink{
		out:  os.Stdout,
		errw: os.Stderr,
		tty:  term.IsTerminal(int(os.Stderr.Fd())),
	}
}

func (s *CLISink) Log(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearBar()
	fmt.Fprintln(s.errw, msg)
}

func (s *CLISink) Download(ev launcher.DownloadEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Status == launcher.StatusError {
		s.clearBar()
		fmt.Fprintf(s.errw, "download failed: %s\n", ev.File)
		return
	}

	if !s.tty {
		// Non-interactive: stay quiet except for errors; the aggregate
		// outcome is reported by the launch service.
		return
	}

	if s.bar == nil {
		s.bar = progressbar.NewOptions(
			ev.Progress.TotalFiles,
			progressbar.OptionSetWriter(s.errw),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(15),
			progressbar.OptionSetDescription("fetching"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	s.bar.Set(ev.Progress.CompletedFiles)
	if ev.Progress.CompletedFiles >= ev.Progress.TotalFiles {
		s.clearBar()
	}
}

func (s *CLISink) GameOutput(stream string, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearBar()
	if stream == launcher.StreamStderr {
		fmt.Fprintln(s.errw, line)
		return
	}
	fmt.Fprintln(s.out, line)
}

func (s *CLISink) GameExited(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearBar()
	fmt.Fprintf(s.errw, "game exited with code %d\n", code)
}

// clearBar erases an active progress bar so plain lines don't interleave
// with it. Callers must hold mu.
func (s *CLISink) clearBar() {
	if s.bar != nil {
		s.bar.Clear()
		s.bar = nil
	}
}
