package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/tools"
)

func TestRegisterAllNoDuplicates(t *testing.T) {
	registry := tools.NewActionRegistry()
	require.NoError(t, RegisterAll(registry))

	for _, name := range []string{"add_dependency", "run_shell", "ensure_directory"} {
		_, ok := registry.Lookup(name)
		assert.True(t, ok, "expected %s to be registered", name)
	}
}

func TestAddDependencyRequiresName(t *testing.T) {
	_, err := AddDependency(context.Background(), ports.ActionContext{Params: map[string]interface{}{}})
	assert.Error(t, err)
}

func TestAddDependencyDefaultsVersion(t *testing.T) {
	out, err := AddDependency(context.Background(), ports.ActionContext{
		Params: map[string]interface{}{"name": "react"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "react", "version": "latest"}, out.Output)
}

func TestEnsureDirectoryCreatesOnce(t *testing.T) {
	root := t.TempDir()
	out, err := EnsureDirectory(context.Background(), ports.ActionContext{
		ProjectRoot: root,
		Params:      map[string]interface{}{"path": "src/components"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/components"}, out.FilesCreated)

	info, err := os.Stat(filepath.Join(root, "src", "components"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	out2, err := EnsureDirectory(context.Background(), ports.ActionContext{
		ProjectRoot: root,
		Params:      map[string]interface{}{"path": "src/components"},
	})
	require.NoError(t, err)
	assert.Nil(t, out2.FilesCreated)
}

func TestRunShellRequiresCommand(t *testing.T) {
	_, err := RunShell(context.Background(), ports.ActionContext{Params: map[string]interface{}{}})
	assert.Error(t, err)
}

func TestRunShellExecutesCommand(t *testing.T) {
	root := t.TempDir()
	out, err := RunShell(context.Background(), ports.ActionContext{
		ProjectRoot: root,
		Params:      map[string]interface{}{"command": "echo hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Output)
}
