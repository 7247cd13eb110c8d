package tools

import (
	"context"
	"fmt"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
)

// RunRecipe implements the Recipe tool handler: recurse into the engine via
// the RecipeRunner seam (internal/tools does not import the orchestrator,
// which avoids an import cycle). The child recipe receives only step.Params
// as its variables — it does not inherit the parent's env — and its file
// lists bubble up into this step's Outcome; its own StepResults stay
// scoped to the child run and are never exposed to parent siblings.
func RunRecipe(ctx context.Context, step recipe.Step, runner ports.RecipeRunner) (Outcome, error) {
	if runner == nil {
		return Outcome{}, fmt.Errorf("%w: no recipe runner configured", hgerrors.ErrTool)
	}

	childVariables := step.Params
	if childVariables == nil {
		childVariables = map[string]interface{}{}
	}

	run, err := runner(ctx, step.Path, childVariables)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: nested recipe %s: %v", hgerrors.ErrTool, step.Path, err)
	}
	if !run.Success {
		return Outcome{}, fmt.Errorf("%w: nested recipe %s reported failure", hgerrors.ErrTool, step.Path)
	}

	return Outcome{
		Output:        run.Output,
		FilesCreated:  run.FilesCreated,
		FilesModified: run.FilesModified,
		FilesDeleted:  run.FilesDeleted,
	}, nil
}
