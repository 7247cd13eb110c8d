package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergen/hypergen/internal/recipe"
	"github.com/hypergen/hypergen/internal/render"
	"github.com/hypergen/hypergen/internal/sink"
)

func writeRecipeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunTemplate_WritesToFrontmatterTarget(t *testing.T) {
	recipeDir := t.TempDir()
	projectRoot := t.TempDir()
	writeRecipeTemplate(t, recipeDir, "model.tmpl", "---\nto: src/{{.name}}.go\n---\npackage {{.name}}\n")

	step := recipe.Step{Tool: recipe.ToolTemplate, Source: "model.tmpl"}
	deps := TemplateDeps{Engine: render.New(), Sink: sink.New(projectRoot, nil), Force: true}

	out, err := RunTemplate(context.Background(), step, recipeDir, map[string]interface{}{"name": "widget"}, nil, deps)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/widget.go"}, out.FilesCreated)

	content, err := os.ReadFile(filepath.Join(projectRoot, "src/widget.go"))
	require.NoError(t, err)
	assert.Equal(t, "package widget\n", string(content))
}

func TestRunTemplate_FalseConditionProducesNoFiles(t *testing.T) {
	recipeDir := t.TempDir()
	projectRoot := t.TempDir()
	writeRecipeTemplate(t, recipeDir, "model.tmpl", "---\nto: src/skip.go\nif: withTests\n---\nbody\n")

	step := recipe.Step{Tool: recipe.ToolTemplate, Source: "model.tmpl"}
	deps := TemplateDeps{Engine: render.New(), Sink: sink.New(projectRoot, nil), Force: true}

	out, err := RunTemplate(context.Background(), step, recipeDir, map[string]interface{}{"withTests": false}, nil, deps)
	require.NoError(t, err)
	assert.Empty(t, out.FilesCreated)
	assert.Empty(t, out.FilesModified)

	_, statErr := os.Stat(filepath.Join(projectRoot, "src/skip.go"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunTemplate_StepToOverridesFrontmatter(t *testing.T) {
	recipeDir := t.TempDir()
	projectRoot := t.TempDir()
	writeRecipeTemplate(t, recipeDir, "model.tmpl", "---\nto: src/default.go\n---\nbody\n")

	step := recipe.Step{Tool: recipe.ToolTemplate, Source: "model.tmpl", To: "src/override.go"}
	deps := TemplateDeps{Engine: render.New(), Sink: sink.New(projectRoot, nil), Force: true}

	out, err := RunTemplate(context.Background(), step, recipeDir, map[string]interface{}{}, nil, deps)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/override.go"}, out.FilesCreated)

	_, statErr := os.Stat(filepath.Join(projectRoot, "src/default.go"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunTemplate_StepToWithoutFrontmatterStillWrites(t *testing.T) {
	recipeDir := t.TempDir()
	projectRoot := t.TempDir()
	writeRecipeTemplate(t, recipeDir, "bare.tmpl", "plain body")

	step := recipe.Step{Tool: recipe.ToolTemplate, Source: "bare.tmpl", To: "out.txt"}
	deps := TemplateDeps{Engine: render.New(), Sink: sink.New(projectRoot, nil), Force: true}

	out, err := RunTemplate(context.Background(), step, recipeDir, map[string]interface{}{}, nil, deps)
	require.NoError(t, err)
	assert.Equal(t, []string{"out.txt"}, out.FilesCreated)
}

func TestRunTemplate_NoFrontmatterProducesNoWrite(t *testing.T) {
	recipeDir := t.TempDir()
	projectRoot := t.TempDir()
	writeRecipeTemplate(t, recipeDir, "bare.tmpl", "just text, no frontmatter")

	step := recipe.Step{Tool: recipe.ToolTemplate, Source: "bare.tmpl"}
	deps := TemplateDeps{Engine: render.New(), Sink: sink.New(projectRoot, nil), Force: true}

	out, err := RunTemplate(context.Background(), step, recipeDir, map[string]interface{}{}, nil, deps)
	require.NoError(t, err)
	assert.Empty(t, out.FilesCreated)
}
