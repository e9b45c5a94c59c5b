package app

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tacogips/stackforge/internal/config"
	"github.com/tacogips/stackforge/internal/jsconfig"
	"github.com/tacogips/stackforge/internal/patch"
	"github.com/tacogips/stackforge/internal/render"
	"github.com/tacogips/stackforge/internal/stack"
)

// Patch applies the patch specs listed in a YAML file. Answers are available
// to template-based specs.
func (a *App) Patch(ctx context.Context, opts *config.Options, specFile string) error {
	specs, err := patch.LoadSpecs(specFile, RenderContext(opts))
	if err != nil {
		return err
	}
	return patch.NewPatcher(a.Out).Apply(ctx, specs)
}

// SetSection replaces a named section of a config module. value is YAML or
// JSON and is written back as JSON.
func (a *App) SetSection(ctx context.Context, file, name, value string) error {
	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return NewValidationError("section value is not valid YAML or JSON", err)
	}
	if err := jsconfig.SetSection(file, name, v); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "patched: %s (%s)\n", file, name)
	return nil
}

// SetSectionRaw replaces a named section with a JavaScript object literal
// written verbatim, so unquoted keys and comments survive.
func (a *App) SetSectionRaw(ctx context.Context, file, name, body string) error {
	if err := jsconfig.SetSectionRaw(file, name, body); err != nil {
		if errors.Is(err, jsconfig.ErrInvalidBody) {
			return NewValidationError("section value is not an object literal", err)
		}
		return err
	}
	fmt.Fprintf(a.Out, "patched: %s (%s)\n", file, name)
	return nil
}

// Render renders a single template file with the collected answers.
func (a *App) Render(opts *config.Options, path string) (string, error) {
	return render.RenderFile(path, RenderContext(opts))
}

// Status lists the services of the configured stack.
func (a *App) Status(ctx context.Context, opts *config.Options) ([]stack.Service, error) {
	return a.docker(opts).StackServices(ctx, opts.StackName)
}
