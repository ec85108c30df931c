package app

import (
	"context"

	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/logger"
	"assetfetch/internal/ui"
)

// Step describes a single phase of a command.
type Step struct {
	Name      string
	Operation string
	Category  apperrors.ErrorCategory
	// Spinner shows an indeterminate spinner while the step runs. Steps that
	// publish their own progress leave it off.
	Spinner bool
	Fn      func(ctx context.Context) error
}

// Pipeline executes steps sequentially, stopping at the first failure.
type Pipeline struct {
	steps   []Step
	console *ui.Console
	logger  logger.Logger
}

// NewPipeline constructs a new pipeline.
func NewPipeline(console *ui.Console, log logger.Logger, steps ...Step) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		steps:   steps,
		console: console,
		logger:  log,
	}
}

// Execute runs through all configured steps.
func (p *Pipeline) Execute(ctx context.Context) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return apperrors.Cancelled(err)
		}

		p.logger.Debug("Executing step: %s", step.Name)
		if step.Spinner && p.console != nil {
			p.console.StartProgress(step.Name)
		}

		err := step.Fn(ctx)

		if step.Spinner && p.console != nil {
			p.console.StopProgress(step.Name)
		}
		if err != nil {
			return wrapStepError(step, err)
		}
	}
	return nil
}

func wrapStepError(step Step, err error) error {
	if appErr, ok := apperrors.As(err); ok {
		if appErr.Operation == "" {
			appErr.Operation = step.Operation
		}
		return appErr
	}
	category := step.Category
	if category == "" {
		category = apperrors.ErrCategorySystem
	}
	return apperrors.New(category, genericCode(category), step.Name+" failed", err).
		WithModule("app").
		WithOperation(step.Operation)
}

func genericCode(category apperrors.ErrorCategory) string {
	switch category {
	case apperrors.ErrCategoryNetwork:
		return apperrors.CodeNetworkGeneric
	case apperrors.ErrCategoryConfig:
		return apperrors.CodeConfigGeneric
	case apperrors.ErrCategoryValidation:
		return apperrors.CodeValidationGeneric
	case apperrors.ErrCategoryDatabase:
		return apperrors.CodeDatabaseGeneric
	case apperrors.ErrCategoryDependency:
		return apperrors.CodeDependencyGeneric
	default:
		return apperrors.CodeSystemGeneric
	}
}
