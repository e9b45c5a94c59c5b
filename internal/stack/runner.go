package stack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// streamWaitDelay bounds how long a stopped stream waits for grandchildren
// still holding its output pipe.
const streamWaitDelay = 2 * time.Second

// Runner executes external commands. All docker invocations go through it so
// tests can substitute a fake.
type Runner interface {
	// Run executes a command and returns its stdout. A failing command yields
	// a *CommandError carrying stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// Stream starts a long-running command and returns its merged stdout and
	// stderr. Closing the reader stops the command.
	Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error)
}

// CommandError describes a command that exited unsuccessfully.
type CommandError struct {
	// Command is the command line that failed.
	Command string
	// Stderr is the trimmed standard error output.
	Stderr string
	// Err is the exec error.
	Err error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

// Unwrap returns the exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("run: %s %s", name, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return nil, &CommandError{
			Command: name + " " + strings.Join(args, " "),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.Bytes(), nil
}

// Stream starts name with args and pipes both output streams into the
// returned reader. The reader reports EOF when the command exits. Close kills
// the command and returns once it has been reaped.
func (r *ExecRunner) Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, name, args...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.WaitDelay = streamWaitDelay

	log.Debugf("stream: %s %s", name, strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := cmd.Wait()
		_ = pw.CloseWithError(err)
	}()

	return &commandStream{PipeReader: pr, cancel: cancel, done: done}, nil
}

type commandStream struct {
	*io.PipeReader
	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops the command, releases the pipe and waits for the process to exit.
func (s *commandStream) Close() error {
	s.cancel()
	err := s.PipeReader.Close()
	<-s.done
	return err
}
