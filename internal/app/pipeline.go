package app

import (
	"context"

	"github.com/tacogips/stackforge/internal/config"
)

// Step is one stage of a workflow.
type Step struct {
	Name string
	Run  func(ctx context.Context, opts *config.Options) error
}

// RunSteps runs steps in order. The first failing step stops the pipeline and
// is reported as an *AppError naming the step.
func (a *App) RunSteps(ctx context.Context, opts *config.Options, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return &AppError{Type: StepFailed, Step: step.Name, Message: "cancelled", Cause: err}
		}
		if a.OnStep != nil {
			a.OnStep(step.Name)
		}
		log.Debugf("step: %s", step.Name)
		if err := step.Run(ctx, opts); err != nil {
			return &AppError{Type: StepFailed, Step: step.Name, Message: "step failed", Cause: err}
		}
	}
	return nil
}
