package launcher

// EventSink receives everything the presentation layer shows during a launch:
// launcher log lines, download progress, and the game's own output and exit.
// Implementations must tolerate calls from multiple goroutines.
type EventSink interface {
	Log(msg string)
	Download(ev DownloadEvent)
	GameOutput(stream string, line string)
	GameExited(code int)
}

// Game output stream names.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// NopSink discards all events. Use in tests.
type NopSink struct{}

func (NopSink) Log(string)              {}
func (NopSink) Download(DownloadEvent)  {}
func (NopSink) GameOutput(string, string) {}
func (NopSink) GameExited(int)          {}
