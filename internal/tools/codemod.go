package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
)

// RunCodeMod implements the CodeMod tool handler: glob step.Target under
// projectRoot and, for each match, apply the named transform. A transform
// reporting "no change" leaves the file untouched and off filesModified —
// matching set semantics, a no-op visit is invisible to the audit trail.
func RunCodeMod(ctx context.Context, step recipe.Step, env map[string]interface{}, projectRoot string, registry ports.TransformRegistry, sink ports.FileSink) (Outcome, error) {
	fn, ok := registry.Lookup(step.Transform)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", hgerrors.ErrTransformNotFound, step.Transform)
	}

	matches, err := filepath.Glob(filepath.Join(projectRoot, step.Target))
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: bad target glob %q: %v", hgerrors.ErrTool, step.Target, err)
	}

	var modified []string
	for _, abs := range matches {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		rel, err := filepath.Rel(projectRoot, abs)
		if err != nil {
			continue
		}

		source, err := os.ReadFile(abs)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: reading %s: %v", hgerrors.ErrTool, rel, err)
		}

		newSource, changed, err := fn(ctx, string(source), env, step.Params)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: transform %s on %s: %v", hgerrors.ErrTool, step.Transform, rel, err)
		}
		if !changed {
			continue
		}

		if _, _, err := sink.Write(ctx, rel, newSource, ports.WriteOverwrite); err != nil {
			return Outcome{}, err
		}
		modified = append(modified, rel)
	}

	return Outcome{FilesModified: modified}, nil
}
