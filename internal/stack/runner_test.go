package stack

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerRun(t *testing.T) {
	requireShell(t)
	r := NewExecRunner()

	out, err := r.Run(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	_, err = r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2; exit 3")
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "err", cmdErr.Stderr)
	assert.Equal(t, "sh -c echo out; echo err >&2; exit 3", cmdErr.Command)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestExecRunnerStreamMergesOutputAndStopsOnClose(t *testing.T) {
	requireShell(t)
	r := NewExecRunner()

	s, err := r.Stream(context.Background(), "sh", "-c", "echo a; echo b >&2; sleep 30")
	require.NoError(t, err)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(s)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	seen := map[string]bool{}
	timeout := time.After(5 * time.Second)
	for !seen["a"] || !seen["b"] {
		select {
		case l, ok := <-lines:
			require.True(t, ok, "stream ended early, saw %v", seen)
			seen[l] = true
		case <-timeout:
			t.Fatalf("timed out waiting for output, saw %v", seen)
		}
	}

	start := time.Now()
	require.NoError(t, s.Close())
	assert.Less(t, time.Since(start), streamWaitDelay+3*time.Second)

	cs, ok := s.(*commandStream)
	require.True(t, ok)
	select {
	case <-cs.done:
	default:
		t.Fatal("command still running after Close")
	}

	select {
	case _, ok := <-lines:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("reader not released after Close")
	}
}

func TestExecRunnerStreamStartFailure(t *testing.T) {
	_, err := NewExecRunner().Stream(context.Background(), "stackforge-no-such-binary")
	assert.Error(t, err)
}
