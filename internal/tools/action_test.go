package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
	"github.com/hypergen/hypergen/internal/sink"
)

func TestRunAction_InvokesRegisteredAction(t *testing.T) {
	reg := NewActionRegistry()
	var seen ports.ActionContext
	require.NoError(t, reg.Register("initGit", func(ctx context.Context, actx ports.ActionContext) (ports.ActionOutcome, error) {
		seen = actx
		return ports.ActionOutcome{Output: "ok", FilesCreated: []string{".git/HEAD"}}, nil
	}))

	projectRoot := t.TempDir()
	step := recipe.Step{Tool: recipe.ToolAction, Action: "initGit"}
	out, err := RunAction(context.Background(), step, map[string]interface{}{}, projectRoot, reg, sink.New(projectRoot, nil))
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Output)
	assert.Equal(t, []string{".git/HEAD"}, out.FilesCreated)
	assert.NotNil(t, seen.Logger)
	assert.NotNil(t, seen.Ports.Sink)
	assert.Equal(t, projectRoot, seen.ProjectRoot)
}

func TestRunAction_UnregisteredActionErrors(t *testing.T) {
	reg := NewActionRegistry()
	step := recipe.Step{Tool: recipe.ToolAction, Action: "missing"}
	_, err := RunAction(context.Background(), step, map[string]interface{}{}, "/tmp/project", reg, nil)
	require.Error(t, err)
}
