package tools

import (
	"context"
	"path/filepath"

	"github.com/hypergen/hypergen/internal/condition"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
)

// Outcome is the common return shape of every tool handler.
type Outcome struct {
	Output        interface{}
	FilesCreated  []string
	FilesModified []string
	FilesDeleted  []string
}

// TemplateDeps bundles the collaborators the Template handler needs. Engine
// and Sink are required; Confirm (interactive overwrite prompt) is handled
// inside the Sink implementation and not exposed here.
type TemplateDeps struct {
	Engine      ports.TemplateEngine
	Sink        ports.FileSink
	Force       bool
	CollectMode bool
	Collector   ports.Collector
}

// RunTemplate implements the Template tool handler: render the source
// against env, then — unless the frontmatter's condition evaluates false —
// write the body to the step's `to` path, or else the frontmatter's. With
// neither set, the write is skipped entirely; such a step only populates
// the AI collector during Pass 1.
func RunTemplate(ctx context.Context, step recipe.Step, recipeDir string, env map[string]interface{}, stepResults map[string]map[string]interface{}, deps TemplateDeps) (Outcome, error) {
	sourcePath := step.Source
	if recipeDir != "" {
		sourcePath = joinUnderDir(recipeDir, sourcePath)
	}

	rendered, err := deps.Engine.Render(ctx, sourcePath, env, deps.CollectMode, deps.Collector)
	if err != nil {
		return Outcome{}, err
	}

	fm := rendered.Frontmatter
	if fm == nil {
		fm = &ports.Frontmatter{}
	}
	// The step's own `to` wins over whatever the frontmatter declared.
	if step.To != "" {
		fm.To = step.To
	}
	if fm.To == "" {
		// No write target: a bare @ai-collecting template, or a partial
		// rendered for collect-mode discovery only.
		return Outcome{}, nil
	}

	if fm.Condition != "" {
		ok, err := condition.Evaluate(fm.Condition, condition.MapEnv{Variables: env, StepResults: stepResults})
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return Outcome{}, nil
		}
	}

	if deps.CollectMode && rendered.Body == "" {
		// Collect-mode renders that produced no body have nothing to write;
		// Pass 1 never touches the filesystem.
		return Outcome{}, nil
	}

	if fm.Inject {
		modified, err := deps.Sink.Inject(ctx, fm.To, rendered.Body, fm.After, fm.Before)
		if err != nil {
			return Outcome{}, err
		}
		if !modified {
			return Outcome{}, nil
		}
		return Outcome{FilesModified: []string{fm.To}}, nil
	}

	mode := ports.WriteOverwrite
	if !deps.Force {
		mode = ports.WritePrompt
	}

	created, modified, err := deps.Sink.Write(ctx, fm.To, rendered.Body, mode)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{}
	switch {
	case created:
		out.FilesCreated = []string{fm.To}
	case modified:
		out.FilesModified = []string{fm.To}
	}
	return out, nil
}

func joinUnderDir(dir, rel string) string {
	if dir == "" {
		return rel
	}
	return filepath.Join(dir, rel)
}
