// Package process spawns and supervises the game process: output streaming,
// exit reporting, and platform-specific spawn flags.
package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/fossabot/DropOut/internal/launcher"
)

// ExecRunner implements launcher.Runner on top of os/exec.
type ExecRunner struct {
	logger launcher.Logger
}

var _ launcher.Runner = (*ExecRunner)(nil)

func NewExecRunner(logger launcher.Logger) *ExecRunner {
	if logger == nil {
		logger = launcher.NewNopLogger()
	}
	return &ExecRunner{logger: logger}
}

// Start spawns the process with piped stdout and stderr. Two goroutines
// stream each output line through the sink as it arrives; a third waits for
// both streams to drain, then for termination, and reports the exit code
// (-1 when unavailable). A spawn failure is returned synchronously; a
// failure while streaming ends only that stream's reporting.
func (r *ExecRunner) Start(ctx context.Context, spec launcher.ProcessSpec, sink launcher.EventSink) (*launcher.Handle, error) {
	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.SysProcAttr = spawnAttrs()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &launcher.ProcessError{Err: fmt.Errorf("piping stdout: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &launcher.ProcessError{Err: fmt.Errorf("piping stderr: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return nil, &launcher.ProcessError{Err: fmt.Errorf("spawning %s: %w", spec.Executable, err)}
	}
	r.logger.Info("process started", "executable", spec.Executable, "pid", cmd.Process.Pid)

	// Wait closes the pipes, so it must not run until both readers have
	// drained them; otherwise buffered tail output is lost.
	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		r.streamLines(stdout, launcher.StreamStdout, sink)
	}()
	go func() {
		defer readers.Done()
		r.streamLines(stderr, launcher.StreamStderr, sink)
	}()

	done := make(chan int, 1)
	go func() {
		readers.Wait()
		code := -1
		if err := cmd.Wait(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else {
				r.logger.Error("waiting for process", "error", err)
			}
		} else {
			code = cmd.ProcessState.ExitCode()
		}
		r.logger.Info("process exited", "code", code)
		sink.GameExited(code)
		done <- code
	}()

	return &launcher.Handle{PID: cmd.Process.Pid, Done: done}, nil
}

// streamLines forwards each line from r to the sink until EOF or a read
// error. A broken pipe terminates only this stream's reporting.
func (r *ExecRunner) streamLines(src io.Reader, stream string, sink launcher.EventSink) {
	scanner := bufio.NewScanner(src)
	// Game output lines can be long (stack traces, chat JSON).
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sink.GameOutput(stream, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warn("output stream ended", "stream", stream, "error", err)
	}
}
