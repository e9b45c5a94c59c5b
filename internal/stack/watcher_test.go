package stack

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(progress io.Writer) WatcherConfig {
	return WatcherConfig{
		HealthInterval: 10 * time.Millisecond,
		GraceChecks:    3,
		DeployBackoff:  time.Millisecond,
		Progress:       progress,
	}
}

// feedLines returns a runner whose log stream emits lines and then stays open.
func feedLines(lines ...string) *MockRunner {
	return &MockRunner{
		StreamFunc: func(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
			pr, pw := io.Pipe()
			go func() {
				for _, l := range lines {
					if _, err := io.WriteString(pw, l+"\n"); err != nil {
						return
					}
				}
			}()
			return pr, nil
		},
	}
}

func TestWatcherCompletesAfterInitAndReady(t *testing.T) {
	runner := feedLines(
		"Initializing database",
		"2024-01-01 [Note] mysqld: ready for connections. port: 0",
		"MySQL init process in progress...",
		"MySQL init process done. Ready for start up.",
		"2024-01-01 [Note] mysqld: ready for connections. port: 3306",
	)
	var progress bytes.Buffer
	w := NewWatcher(NewDocker(runner, ""), fastConfig(&progress))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcome, err := w.Run(ctx, WatchOptions{Stack: "ab", ComposeFile: "dbinit-compose.yml", Services: []string{"mysql"}})
	require.NoError(t, err)
	assert.Equal(t, Completed, outcome)

	calls := runner.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "docker stack rm ab", calls[0])
	assert.Equal(t, "docker stack deploy -c dbinit-compose.yml ab", calls[1])
	assert.Equal(t, "docker service logs --follow --raw ab_mysql", calls[2])
	assert.Equal(t, "docker stack rm ab", calls[3])
}

func TestWatcherWaitsForInitScriptsOnCurrentEntrypoint(t *testing.T) {
	// The stream stops before the real server starts, so only End may finish the watch.
	runner := feedLines(
		"[Note] [Entrypoint]: Initializing database files",
		"[Note] mysqld: ready for connections.",
		"Version: '5.7.44'  socket: '/var/run/mysqld/mysqld.sock'  port: 0  MySQL Community Server (GPL)",
		"[Note] [Entrypoint]: Temporary server started.",
		"[Note] [Entrypoint]: running /docker-entrypoint-initdb.d/01-schema.sql",
	)
	var progress bytes.Buffer
	w := NewWatcher(NewDocker(runner, ""), fastConfig(&progress))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := w.Run(ctx, WatchOptions{Stack: "ab", ComposeFile: "c.yml", Services: []string{"mysql"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, progress.String(), "already initialized")
	assert.Equal(t, 2, runner.CountPrefix("docker stack rm ab"))
}

func TestWatcherKeepRunningSkipsTeardown(t *testing.T) {
	runner := feedLines("MySQL init process in progress...", "MySQL init process done.", "ready for connections")
	var progress bytes.Buffer
	w := NewWatcher(NewDocker(runner, ""), fastConfig(&progress))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcome, err := w.Run(ctx, WatchOptions{Stack: "ab", ComposeFile: "c.yml", Services: []string{"mysql"}, KeepRunning: true})
	require.NoError(t, err)
	assert.Equal(t, Completed, outcome)
	assert.Equal(t, 1, runner.CountPrefix("docker stack rm"))
	assert.Contains(t, progress.String(), "leaving stack ab running")
}

func TestWatcherRetriesNetworkRace(t *testing.T) {
	var deploys int32
	runner := feedLines("MySQL init process in progress...", "MySQL init process done.", "ready for connections")
	runner.RunFunc = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if len(args) > 1 && args[1] == "deploy" && atomic.AddInt32(&deploys, 1) < 3 {
			return nil, &CommandError{
				Command: "docker stack deploy",
				Stderr:  "failed to create network ab_default: network with name ab_default already exists",
				Err:     errors.New("exit status 1"),
			}
		}
		return nil, nil
	}
	w := NewWatcher(NewDocker(runner, ""), fastConfig(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := w.Run(ctx, WatchOptions{Stack: "ab", ComposeFile: "c.yml", Services: []string{"mysql"}})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&deploys))
}

func TestWatcherDeployFailure(t *testing.T) {
	runner := &MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			if len(args) > 1 && args[1] == "deploy" {
				return nil, &CommandError{Command: "docker stack deploy", Stderr: "yaml: line 3: mapping values are not allowed", Err: errors.New("exit status 1")}
			}
			return nil, nil
		},
	}
	w := NewWatcher(NewDocker(runner, ""), fastConfig(nil))

	_, err := w.Run(context.Background(), WatchOptions{Stack: "ab", ComposeFile: "c.yml", Services: []string{"mysql"}})
	require.Error(t, err)

	var stackErr *StackError
	require.True(t, errors.As(err, &stackErr))
	assert.Equal(t, DeployFailed, stackErr.Type)
	assert.Contains(t, stackErr.Stderr, "mapping values")
	assert.Equal(t, 0, runner.CountPrefix("docker service logs"))
}

func TestWatcherAssumesInitializedAfterGraceChecks(t *testing.T) {
	runner := feedLines("mysqld: ready for connections. port: 3306")
	var progress bytes.Buffer
	w := NewWatcher(NewDocker(runner, ""), fastConfig(&progress))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcome, err := w.Run(ctx, WatchOptions{Stack: "ab", ComposeFile: "c.yml", Services: []string{"mysql"}})
	require.NoError(t, err)
	assert.Equal(t, AssumedInitialized, outcome)
	assert.Contains(t, progress.String(), "already initialized")
	assert.Equal(t, 2, runner.CountPrefix("docker stack rm"))
}

func TestWatcherBlocksUntilCancelledWithoutReadiness(t *testing.T) {
	runner := feedLines("MySQL init process in progress...")
	w := NewWatcher(NewDocker(runner, ""), fastConfig(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := w.Run(ctx, WatchOptions{Stack: "ab", ComposeFile: "c.yml", Services: []string{"mysql"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatcherCancelRemovesStack(t *testing.T) {
	runner := feedLines("MySQL init process in progress...")
	var rmErr error
	runner.RunFunc = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if len(args) > 1 && args[1] == "rm" {
			rmErr = ctx.Err()
		}
		return nil, nil
	}
	var progress bytes.Buffer
	w := NewWatcher(NewDocker(runner, ""), fastConfig(&progress))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := w.Run(ctx, WatchOptions{Stack: "ab", ComposeFile: "c.yml", Services: []string{"mysql"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{
		"docker stack rm ab",
		"docker stack deploy -c c.yml ab",
		"docker service logs --follow --raw ab_mysql",
		"docker stack rm ab",
	}, runner.Calls())
	assert.NoError(t, rmErr, "teardown must not run on the cancelled context")
	assert.Contains(t, progress.String(), "removing stack ab")
}

func TestWatcherCancelKeepRunningLeavesStack(t *testing.T) {
	runner := feedLines("MySQL init process in progress...")
	w := NewWatcher(NewDocker(runner, ""), fastConfig(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := w.Run(ctx, WatchOptions{Stack: "ab", ComposeFile: "c.yml", Services: []string{"mysql"}, KeepRunning: true})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, runner.CountPrefix("docker stack rm"))
}

func TestWatcherLogStreamFailure(t *testing.T) {
	runner := &MockRunner{
		StreamFunc: func(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
			return nil, errors.New("no such service")
		},
	}
	w := NewWatcher(NewDocker(runner, ""), fastConfig(nil))

	_, err := w.Run(context.Background(), WatchOptions{Stack: "ab", ComposeFile: "c.yml", Services: []string{"mysql"}})
	var stackErr *StackError
	require.True(t, errors.As(err, &stackErr))
	assert.Equal(t, WatchFailed, stackErr.Type)
	assert.Equal(t, 2, runner.CountPrefix("docker stack rm ab"))
}

func TestWatcherCustomProcessData(t *testing.T) {
	runner := feedLines("booting", "DONE")
	w := NewWatcher(NewDocker(runner, ""), fastConfig(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcome, err := w.Run(ctx, WatchOptions{
		Stack:       "app",
		ComposeFile: "c.yml",
		Services:    []string{"worker"},
		ProcessData: func(w *WatchContext, chunk string) {
			if strings.Contains(chunk, "DONE") {
				w.End()
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Completed, outcome)
}
