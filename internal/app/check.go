package app

import (
	"context"
	"strings"

	"github.com/tacogips/stackforge/internal/config"
)

// CheckDependencies verifies that every named executable is on PATH.
func (a *App) CheckDependencies(names ...string) error {
	var missing []string
	for _, name := range names {
		path, err := a.LookPath(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		log.Debugf("found %s at %s", name, path)
	}
	if len(missing) > 0 {
		return &AppError{
			Type:    DependencyMissing,
			Message: "missing dependency: " + strings.Join(missing, ", "),
		}
	}
	return nil
}

func (a *App) checkStep() Step {
	return Step{
		Name: "check dependencies",
		Run: func(ctx context.Context, opts *config.Options) error {
			return a.CheckDependencies(opts.DockerBin)
		},
	}
}
