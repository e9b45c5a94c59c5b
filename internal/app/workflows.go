package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/tacogips/stackforge/internal/compose"
	"github.com/tacogips/stackforge/internal/config"
	"github.com/tacogips/stackforge/internal/jsconfig"
	"github.com/tacogips/stackforge/internal/patch"
	"github.com/tacogips/stackforge/internal/render"
	"github.com/tacogips/stackforge/internal/scaffold"
	"github.com/tacogips/stackforge/internal/stack"
)

// Template names and the project files the workflows touch, relative to
// the destination directory.
const (
	SetupTemplate     = "setup"
	DBInitTemplate    = "dbinit"
	ComposeFile       = "docker-compose.yml"
	DBInitComposeFile = "dbinit-compose.yml"
	NginxConfigFile   = "nginx/default.conf"
	LocalConfigFile   = "config/local.js"
	PasswordFile      = "mysql/password"
)

// Service names in the shipped compose files.
const (
	WebService      = "nginx"
	DatabaseService = "mysql"
)

var (
	listenPattern     = regexp.MustCompile(`listen\s+\d+\s*;`)
	serverNamePattern = regexp.MustCompile(`server_name\s+[^;]*;`)
)

// Setup generates the project files and patches them with the answers.
// With DryRun set it only lists the files the templates would create.
func (a *App) Setup(ctx context.Context, opts *config.Options) error {
	if opts.DryRun {
		return a.RunSteps(ctx, opts, a.previewSteps())
	}
	return a.RunSteps(ctx, opts, a.SetupSteps())
}

// ConfigDB runs the one-shot database initialization stack.
func (a *App) ConfigDB(ctx context.Context, opts *config.Options) (stack.Outcome, error) {
	if opts.DryRun {
		return 0, NewValidationError("dry run is only supported by setup", nil)
	}
	var outcome stack.Outcome
	steps := a.configDBSteps(&outcome)
	err := a.RunSteps(ctx, opts, steps)
	return outcome, err
}

// Install checks dependencies, then runs Setup and ConfigDB as one pipeline.
func (a *App) Install(ctx context.Context, opts *config.Options) (stack.Outcome, error) {
	if opts.DryRun {
		return 0, NewValidationError("dry run is only supported by setup", nil)
	}
	var outcome stack.Outcome
	steps := []Step{a.checkStep()}
	steps = append(steps, a.SetupSteps()...)
	steps = append(steps, a.configDBSteps(&outcome)...)
	err := a.RunSteps(ctx, opts, steps)
	return outcome, err
}

// SetupSteps returns the setup pipeline.
func (a *App) SetupSteps() []Step {
	return []Step{
		{Name: "collect answers", Run: func(ctx context.Context, opts *config.Options) error {
			return a.Collect(opts, SetupQuestions())
		}},
		{Name: "database password", Run: a.ensurePassword},
		{Name: "copy setup templates", Run: a.copyTemplate(SetupTemplate)},
		{Name: "patch compose ports", Run: a.patchComposePorts},
		{Name: "patch nginx config", Run: a.patchNginx},
		{Name: "write database config", Run: a.writeDatabaseSection},
	}
}

func (a *App) previewSteps() []Step {
	return []Step{
		{Name: "collect answers", Run: func(ctx context.Context, opts *config.Options) error {
			return a.Collect(opts, SetupQuestions())
		}},
		{Name: "preview setup templates", Run: a.copyTemplate(SetupTemplate)},
	}
}

func (a *App) configDBSteps(outcome *stack.Outcome) []Step {
	return []Step{
		{Name: "read database password", Run: a.readPassword},
		{Name: "copy dbinit templates", Run: a.copyTemplate(DBInitTemplate)},
		{Name: "bootstrap database", Run: func(ctx context.Context, opts *config.Options) error {
			o, err := a.bootstrap(ctx, opts, DBInitComposeFile, []string{DatabaseService})
			*outcome = o
			return err
		}},
	}
}

func (a *App) copyTemplate(name string) func(context.Context, *config.Options) error {
	return func(ctx context.Context, opts *config.Options) error {
		_, err := a.copier(opts).CopyTree(ctx, name, RenderContext(opts), opts.Verbatim)
		return err
	}
}

// ensurePassword keeps an existing password file and otherwise generates one.
func (a *App) ensurePassword(ctx context.Context, opts *config.Options) error {
	path := filepath.Join(opts.DestDir, PasswordFile)
	w := scaffold.NewFileWriter()
	if w.Exists(path) {
		fmt.Fprintf(a.Out, "exists: %s\n", path)
		return a.readPassword(ctx, opts)
	}

	password := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := w.WriteFile(path, []byte(password+"\n"), 0600); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created: %s\n", path)
	opts.SetAnswer("db_password", password)
	return nil
}

func (a *App) readPassword(ctx context.Context, opts *config.Options) error {
	path := filepath.Join(opts.DestDir, PasswordFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read database password (run setup first): %w", err)
	}
	password := strings.TrimSpace(string(data))
	if password == "" {
		return fmt.Errorf("database password file %s is empty", path)
	}
	opts.SetAnswer("db_password", password)
	return nil
}

func (a *App) patchComposePorts(ctx context.Context, opts *config.Options) error {
	path := filepath.Join(opts.DestDir, ComposeFile)
	f, err := compose.Load(path)
	if err != nil {
		return err
	}
	port := render.ValueToString(opts.Answers["http_port"])
	if err := f.SetPorts(WebService, []string{port + ":" + port}); err != nil {
		return err
	}
	if err := f.AddVolume(WebService, "./nginx:/etc/nginx/conf.d:ro"); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "patched: %s\n", path)
	return nil
}

func (a *App) patchNginx(ctx context.Context, opts *config.Options) error {
	path := filepath.Join(opts.DestDir, NginxConfigFile)
	port := render.ValueToString(opts.Answers["http_port"])
	domain := render.ValueToString(opts.Answers["domain"])
	specs := []patch.Spec{
		{File: path, Tag: listenPattern, Replace: "listen " + port + ";", All: true, Silent: true},
		{File: path, Tag: serverNamePattern, Replace: "server_name " + domain + ";", All: true},
	}
	return patch.NewPatcher(a.Out).Apply(ctx, specs)
}

func (a *App) writeDatabaseSection(ctx context.Context, opts *config.Options) error {
	path := filepath.Join(opts.DestDir, LocalConfigFile)
	value := map[string]any{
		"host":     DatabaseService,
		"database": render.ValueToString(opts.Answers["db_name"]),
		"user":     render.ValueToString(opts.Answers["db_user"]),
		"password": render.ValueToString(opts.Answers["db_password"]),
	}
	if err := jsconfig.SetSection(path, "mysql", value); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "patched: %s (mysql)\n", path)
	return nil
}

func (a *App) bootstrap(ctx context.Context, opts *config.Options, composeFile string, services []string) (stack.Outcome, error) {
	w := stack.NewWatcher(a.docker(opts), stack.WatcherConfig{
		HealthInterval:    opts.HealthInterval,
		GraceChecks:       opts.GraceChecks,
		DeployBackoff:     opts.DeployBackoff,
		NetworkRaceMarker: opts.NetworkRaceMarker,
		Progress:          a.Out,
		Spinner:           a.Spinner,
	})
	return w.Run(ctx, stack.WatchOptions{
		Stack:       opts.StackName,
		ComposeFile: filepath.Join(opts.DestDir, composeFile),
		Services:    services,
		KeepRunning: opts.KeepRunning,
	})
}
