// Package app sequences scaffolding, patching and stack bootstrap into the
// workflows behind each command.
package app

import (
	"io"
	"os/exec"

	"github.com/tacogips/stackforge/internal/config"
	"github.com/tacogips/stackforge/internal/debug"
	"github.com/tacogips/stackforge/internal/render"
	"github.com/tacogips/stackforge/internal/scaffold"
	"github.com/tacogips/stackforge/internal/stack"
)

var log = debug.For("app")

// App holds the collaborators shared by all workflows.
type App struct {
	// Out receives progress lines from copiers, patchers and the watcher.
	Out io.Writer
	// Runner executes docker.
	Runner stack.Runner
	// Prompter asks for missing answers. Nil means defaults are used.
	Prompter Prompter
	// LookPath finds executables on PATH.
	LookPath func(file string) (string, error)
	// OnStep is called before each pipeline step runs.
	OnStep func(name string)
	// Spinner enables the watcher spinner.
	Spinner bool
}

// New creates an App with os/exec backed defaults.
func New(out io.Writer, prompter Prompter) *App {
	if out == nil {
		out = io.Discard
	}
	return &App{
		Out:      out,
		Runner:   stack.NewExecRunner(),
		Prompter: prompter,
		LookPath: exec.LookPath,
	}
}

func (a *App) copier(opts *config.Options) *scaffold.Copier {
	return scaffold.NewCopier(scaffold.Options{
		TemplatesDir:     opts.TemplatesDir,
		DestDir:          opts.DestDir,
		IgnorePatterns:   opts.IgnorePatterns,
		BinaryExtensions: opts.BinaryExtensions,
		DryRun:           opts.DryRun,
		Out:              a.Out,
	})
}

func (a *App) docker(opts *config.Options) *stack.Docker {
	return stack.NewDocker(a.Runner, opts.DockerBin)
}

// RenderContext builds the template context from the collected answers.
// The stack name is always available as "stack".
func RenderContext(opts *config.Options) render.Context {
	ctx := render.Context{}
	for k, v := range opts.Answers {
		ctx[k] = v
	}
	ctx["stack"] = opts.StackName
	return ctx
}
