package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergen/hypergen/internal/tools"
)

func TestRegisterAllTransformsNoDuplicates(t *testing.T) {
	registry := tools.NewTransformRegistry()
	require.NoError(t, RegisterAllTransforms(registry))

	for _, name := range []string{"append_line", "replace_once", "insert_after_tag"} {
		_, ok := registry.Lookup(name)
		assert.True(t, ok, "expected %s to be registered", name)
	}
}

func TestAppendLineIdempotent(t *testing.T) {
	source := "node_modules\n"
	out, changed, err := AppendLine(context.Background(), source, nil, map[string]interface{}{"line": "dist"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "node_modules\ndist\n", out)

	out2, changed2, err := AppendLine(context.Background(), out, nil, map[string]interface{}{"line": "dist"})
	require.NoError(t, err)
	assert.False(t, changed2)
	assert.Equal(t, out, out2)
}

func TestReplaceOnceNoMatch(t *testing.T) {
	out, changed, err := ReplaceOnce(context.Background(), "hello world", nil, map[string]interface{}{
		"pattern": "xyz", "replacement": "abc",
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "hello world", out)
}

func TestReplaceOnceMatch(t *testing.T) {
	out, changed, err := ReplaceOnce(context.Background(), "version: 1.0.0", nil, map[string]interface{}{
		"pattern": `\d+\.\d+\.\d+`, "replacement": "2.0.0",
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "version: 2.0.0", out)
}

func TestInsertAfterTag(t *testing.T) {
	source := "// hypergen:imports\nimport a from 'a'\n"
	out, changed, err := InsertAfterTag(context.Background(), source, nil, map[string]interface{}{
		"tag": "// hypergen:imports", "content": "import b from 'b'",
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, out, "import b from 'b'")
}

func TestInsertAfterTagMissing(t *testing.T) {
	_, changed, err := InsertAfterTag(context.Background(), "no tag here", nil, map[string]interface{}{
		"tag": "// hypergen:imports", "content": "x",
	})
	require.NoError(t, err)
	assert.False(t, changed)
}
