package testutil

import (
	"sync"

	"github.com/fossabot/DropOut/internal/launcher"
)

// RecordingSink captures every event for assertions. Safe for concurrent use.
type RecordingSink struct {
	mu        sync.Mutex
	logs      []string
	downloads []launcher.DownloadEvent
	output    []OutputLine
	exitCodes []int
}

// OutputLine is one captured game output line.
type OutputLine struct {
	Stream string
	Line   string
}

func NewRecordingSink() *RecordingSink { return &RecordingSink{} }

func (s *RecordingSink) Log(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, msg)
}

func (s *RecordingSink) Download(ev launcher.DownloadEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append(s.downloads, ev)
}

func (s *RecordingSink) GameOutput(stream, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = append(s.output, OutputLine{Stream: stream, Line: line})
}

func (s *RecordingSink) GameExited(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitCodes = append(s.exitCodes, code)
}

func (s *RecordingSink) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.logs...)
}

func (s *RecordingSink) Downloads() []launcher.DownloadEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]launcher.DownloadEvent(nil), s.downloads...)
}

func (s *RecordingSink) Output() []OutputLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OutputLine(nil), s.output...)
}

func (s *RecordingSink) ExitCodes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.exitCodes...)
}
