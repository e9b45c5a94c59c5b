// Package stack deploys Docker Swarm stacks and waits for their services to
// finish bootstrapping.
package stack

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/sync/errgroup"

	"github.com/tacogips/stackforge/internal/debug"
)

var log = debug.For("stack")

// Defaults for WatcherConfig.
const (
	DefaultHealthInterval    = 15 * time.Second
	DefaultGraceChecks       = 3
	DefaultDeployBackoff     = time.Second
	DefaultNetworkRaceMarker = "network with name"
	DefaultTeardownTimeout   = 10 * time.Second
)

// WatcherConfig tunes the bootstrap watcher.
type WatcherConfig struct {
	// HealthInterval is the period of the readiness check.
	HealthInterval time.Duration
	// GraceChecks is how many checks after ReadyFound the watcher waits for
	// End before assuming no initialization is coming.
	GraceChecks int
	// DeployBackoff is the delay between deploy retries on a network race.
	DeployBackoff time.Duration
	// NetworkRaceMarker is the stderr substring identifying a deploy that
	// failed because the previous stack's network is still being removed.
	NetworkRaceMarker string
	// Progress receives status lines and the spinner. Nil discards them.
	Progress io.Writer
	// Spinner enables the animated spinner on Progress.
	Spinner bool
	// TeardownTimeout bounds the stack removal after a failed or cancelled watch.
	TeardownTimeout time.Duration
}

func (c WatcherConfig) withDefaults() WatcherConfig {
	if c.HealthInterval <= 0 {
		c.HealthInterval = DefaultHealthInterval
	}
	if c.GraceChecks <= 0 {
		c.GraceChecks = DefaultGraceChecks
	}
	if c.DeployBackoff <= 0 {
		c.DeployBackoff = DefaultDeployBackoff
	}
	if c.NetworkRaceMarker == "" {
		c.NetworkRaceMarker = DefaultNetworkRaceMarker
	}
	if c.TeardownTimeout <= 0 {
		c.TeardownTimeout = DefaultTeardownTimeout
	}
	if c.Progress == nil {
		c.Progress = io.Discard
	}
	return c
}

// WatchOptions describes one bootstrap run.
type WatchOptions struct {
	// Stack is the stack name.
	Stack string
	// ComposeFile is the stack definition to deploy.
	ComposeFile string
	// Services are the services whose logs are tailed.
	Services []string
	// ProcessData inspects each log line. Defaults to MySQLReadiness.
	ProcessData ProcessData
	// KeepRunning leaves the stack deployed after bootstrap.
	KeepRunning bool
}

// Outcome reports how a watch finished.
type Outcome int

const (
	// Completed means ProcessData called End.
	Completed Outcome = iota
	// AssumedInitialized means readiness was seen without End within the grace checks.
	AssumedInitialized
)

// Watcher deploys a stack, watches its logs and tears it down.
type Watcher struct {
	docker *Docker
	cfg    WatcherConfig
}

// NewWatcher creates a Watcher.
func NewWatcher(d *Docker, cfg WatcherConfig) *Watcher {
	return &Watcher{docker: d, cfg: cfg.withDefaults()}
}

// Run clears any previous stack of the same name, deploys it, waits for
// readiness and removes it again unless KeepRunning is set. It only returns
// early when ctx is cancelled; a service that never reports readiness blocks
// until then. A watch that fails or is cancelled still removes the stack,
// using a fresh context bounded by TeardownTimeout.
func (w *Watcher) Run(ctx context.Context, opts WatchOptions) (Outcome, error) {
	if opts.ProcessData == nil {
		opts.ProcessData = MySQLReadiness
	}

	log.Debugf("clearing stack %s", opts.Stack)
	if err := w.docker.StackRemove(ctx, opts.Stack); err != nil {
		log.Debugf("ignoring stack rm error: %v", err)
	}

	if err := w.deploy(ctx, opts); err != nil {
		return 0, err
	}

	outcome, err := w.watch(ctx, opts)
	if err != nil {
		if !opts.KeepRunning {
			w.abandon(ctx, opts.Stack)
		}
		return 0, err
	}

	if opts.KeepRunning {
		fmt.Fprintf(w.cfg.Progress, "leaving stack %s running\n", opts.Stack)
		return outcome, nil
	}

	log.Debugf("removing stack %s", opts.Stack)
	if err := w.docker.StackRemove(ctx, opts.Stack); err != nil {
		return outcome, &StackError{Type: TeardownFailed, Stack: opts.Stack, Message: "failed to remove stack", Cause: err}
	}
	return outcome, nil
}

// abandon removes a stack whose watch did not finish. Errors are only logged.
func (w *Watcher) abandon(ctx context.Context, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.TeardownTimeout)
	defer cancel()

	fmt.Fprintf(w.cfg.Progress, "removing stack %s\n", name)
	if err := w.docker.StackRemove(ctx, name); err != nil {
		log.Debugf("ignoring stack rm error after aborted watch: %v", err)
	}
}

func (w *Watcher) deploy(ctx context.Context, opts WatchOptions) error {
	for attempt := 1; ; attempt++ {
		err := w.docker.StackDeploy(ctx, opts.ComposeFile, opts.Stack)
		if err == nil {
			log.Debugf("stack %s deployed after %d attempt(s)", opts.Stack, attempt)
			return nil
		}

		stderr := err.Error()
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			stderr = cmdErr.Stderr
		}

		if !strings.Contains(stderr, w.cfg.NetworkRaceMarker) {
			return &StackError{Type: DeployFailed, Stack: opts.Stack, Message: "deploy failed", Stderr: stderr, Cause: err}
		}

		log.Debugf("network not ready (attempt %d), retrying in %s", attempt, w.cfg.DeployBackoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.DeployBackoff):
		}
	}
}

func (w *Watcher) watch(ctx context.Context, opts WatchOptions) (Outcome, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var streams []io.ReadCloser
	defer func() {
		for _, s := range streams {
			_ = s.Close()
		}
	}()
	for _, svc := range opts.Services {
		name := ServiceName(opts.Stack, svc)
		s, err := w.docker.ServiceLogs(watchCtx, name)
		if err != nil {
			return 0, &StackError{Type: WatchFailed, Stack: opts.Stack, Message: "failed to tail " + name, Cause: err}
		}
		streams = append(streams, s)
	}

	if w.cfg.Spinner {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w.cfg.Progress))
		s.Suffix = fmt.Sprintf(" Waiting for stack %s to initialize...", opts.Stack)
		s.Start()
		defer s.Stop()
	}

	lines := make(chan string)
	g, gctx := errgroup.WithContext(watchCtx)
	for _, s := range streams {
		s := s
		g.Go(func() error {
			return forwardLines(gctx, s, lines)
		})
	}

	outcome, err := w.loop(watchCtx, opts, lines)

	cancel()
	for _, s := range streams {
		_ = s.Close()
	}
	streams = nil
	_ = g.Wait()

	return outcome, err
}

// loop owns the WatchContext; log lines and health ticks are serialized here.
func (w *Watcher) loop(ctx context.Context, opts WatchOptions, lines <-chan string) (Outcome, error) {
	ticker := time.NewTicker(w.cfg.HealthInterval)
	defer ticker.Stop()

	wctx := &WatchContext{}
	readyChecks := 0
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()

		case line := <-lines:
			opts.ProcessData(wctx, line)
			if wctx.Ended() {
				log.Debugf("stack %s reported completion", opts.Stack)
				return Completed, nil
			}

		case <-ticker.C:
			if !wctx.ReadyFound {
				continue
			}
			readyChecks++
			log.Debugf("ready without completion, check %d/%d", readyChecks, w.cfg.GraceChecks)
			if readyChecks > w.cfg.GraceChecks {
				fmt.Fprintf(w.cfg.Progress, "stack %s already initialized\n", opts.Stack)
				return AssumedInitialized, nil
			}
		}
	}
}

// forwardLines sends each line read from r to lines until r is exhausted or
// ctx is done.
func forwardLines(ctx context.Context, r io.Reader, lines chan<- string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}
