package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergen/hypergen/internal/ports"
)

func noopAction(ctx context.Context, actx ports.ActionContext) (ports.ActionOutcome, error) {
	return ports.ActionOutcome{}, nil
}

func TestActionRegistry_RejectsDuplicateNames(t *testing.T) {
	r := NewActionRegistry()
	require.NoError(t, r.Register("scaffold", noopAction))
	err := r.Register("scaffold", noopAction)
	require.Error(t, err)
}

func TestActionRegistry_LookupMissingReturnsFalse(t *testing.T) {
	r := NewActionRegistry()
	_, ok := r.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestActionRegistry_LookupReturnsRegisteredFunc(t *testing.T) {
	r := NewActionRegistry()
	require.NoError(t, r.Register("scaffold", noopAction))
	fn, ok := r.Lookup("scaffold")
	require.True(t, ok)
	out, err := fn(context.Background(), ports.ActionContext{})
	require.NoError(t, err)
	assert.Equal(t, ports.ActionOutcome{}, out)
}

func TestTransformRegistry_RejectsDuplicateNames(t *testing.T) {
	r := NewTransformRegistry()
	noop := func(ctx context.Context, source string, vars, params map[string]interface{}) (string, bool, error) {
		return source, false, nil
	}
	require.NoError(t, r.Register("addImport", noop))
	err := r.Register("addImport", noop)
	require.Error(t, err)
}
