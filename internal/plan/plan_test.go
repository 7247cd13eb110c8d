package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergen/hypergen/internal/recipe"
)

func step(name string, deps ...string) recipe.Step {
	return recipe.Step{Name: name, Tool: recipe.ToolAction, Action: "noop", DependsOn: deps}
}

func TestPlan_LinearThreeSteps(t *testing.T) {
	steps := []recipe.Step{step("a"), step("b", "a"), step("c", "b")}
	p, err := Plan(steps, 4)
	require.NoError(t, err)
	require.Len(t, p.Phases, 3)
	assert.Equal(t, []string{"a"}, p.Phases[0].StepNames)
	assert.Equal(t, []string{"b"}, p.Phases[1].StepNames)
	assert.Equal(t, []string{"c"}, p.Phases[2].StepNames)
}

func TestPlan_DiamondIsParallelAtPhaseTwo(t *testing.T) {
	steps := []recipe.Step{step("a"), step("b", "a"), step("c", "a"), step("d", "b", "c")}
	p, err := Plan(steps, 2)
	require.NoError(t, err)
	require.Len(t, p.Phases, 3)
	assert.ElementsMatch(t, []string{"b", "c"}, p.Phases[1].StepNames)
	assert.True(t, p.Phases[1].Parallel)
	assert.False(t, p.Phases[0].Parallel, "single-step phase is never parallel")
}

func TestPlan_CycleIsRejected(t *testing.T) {
	steps := []recipe.Step{step("a", "b"), step("b", "a")}
	_, err := Plan(steps, 4)
	require.Error(t, err)
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, cycleErr.Cycle, "a")
	assert.Contains(t, cycleErr.Cycle, "b")
}

func TestPlan_SinglePhaseDegradesToSerialWhenAnyStepOptsOut(t *testing.T) {
	notParallel := false
	b := step("b", "a")
	b.Parallel = &notParallel
	steps := []recipe.Step{step("a"), b, step("c", "a")}
	p, err := Plan(steps, 4)
	require.NoError(t, err)
	require.Len(t, p.Phases, 2)
	assert.False(t, p.Phases[1].Parallel)
}

func TestPlan_PhaseOrderRespectsDeclarationOrder(t *testing.T) {
	steps := []recipe.Step{step("z"), step("y"), step("x")}
	p, err := Plan(steps, 4)
	require.NoError(t, err)
	require.Len(t, p.Phases, 1)
	assert.Equal(t, []string{"z", "y", "x"}, p.Phases[0].StepNames)
}
