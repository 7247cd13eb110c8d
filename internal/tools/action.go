package tools

import (
	"context"
	"fmt"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/logging"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
)

// RunAction implements the Action tool handler: look up step.Action in the
// registry and invoke it. Actions are trusted, unsandboxed code — there is
// no shell-command allowlisting here, unlike the teacher's Docker-specific
// generator invocation, since arbitrary sandboxing was ruled out of scope.
func RunAction(ctx context.Context, step recipe.Step, env map[string]interface{}, projectRoot string, registry ports.ActionRegistry, sink ports.FileSink) (Outcome, error) {
	fn, ok := registry.Lookup(step.Action)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", hgerrors.ErrActionNotFound, step.Action)
	}

	actx := ports.ActionContext{
		Variables:   env,
		Params:      step.Params,
		ProjectRoot: projectRoot,
		Logger:      logging.L().Sugar().Named(step.Action),
		Ports:       ports.ActionPorts{Sink: sink},
	}

	outcome, err := fn(ctx, actx)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: action %s: %v", hgerrors.ErrTool, step.Action, err)
	}

	return Outcome{
		Output:        outcome.Output,
		FilesCreated:  outcome.FilesCreated,
		FilesModified: outcome.FilesModified,
		FilesDeleted:  outcome.FilesDeleted,
	}, nil
}
