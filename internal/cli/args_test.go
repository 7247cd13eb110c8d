package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDynamicArgs_SegmentsVarsAndPositionals(t *testing.T) {
	da, err := parseDynamicArgs([]string{"react", "component/button", "--name=Button", "Extra"})
	require.NoError(t, err)
	assert.Equal(t, []string{"react", "component/button"}, da.Segments)
	assert.Equal(t, "Button", da.CLIParams["name"])
	assert.Equal(t, []string{"Extra"}, da.Positionals)
}

func TestParseDynamicArgs_KnownBoolFlags(t *testing.T) {
	da, err := parseDynamicArgs([]string{"react", "--dry", "--force", "--continue-on-error"})
	require.NoError(t, err)
	assert.True(t, da.Dry)
	assert.True(t, da.Force)
	assert.True(t, da.ContinueOnError)
}

func TestParseDynamicArgs_AskAndAnswersAcceptBothForms(t *testing.T) {
	da, err := parseDynamicArgs([]string{"react", "--ask=nobody", "--answers", "answers.json"})
	require.NoError(t, err)
	assert.Equal(t, "nobody", da.AskMode)
	assert.Equal(t, "answers.json", da.AnswersFile)
}

func TestParseDynamicArgs_MaxConcurrencyBothForms(t *testing.T) {
	da, err := parseDynamicArgs([]string{"react", "--max-concurrency=8"})
	require.NoError(t, err)
	assert.Equal(t, 8, da.MaxConcurrency)

	da, err = parseDynamicArgs([]string{"react", "--max-concurrency", "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, da.MaxConcurrency)
}

func TestParseDynamicArgs_InvalidMaxConcurrency(t *testing.T) {
	_, err := parseDynamicArgs([]string{"react", "--max-concurrency=abc"})
	require.Error(t, err)
}

func TestParseDynamicArgs_BareFlagIsBooleanVariableShorthand(t *testing.T) {
	da, err := parseDynamicArgs([]string{"react", "--include-tests"})
	require.NoError(t, err)
	assert.Equal(t, "true", da.CLIParams["include-tests"])
}

func TestParseDynamicArgs_MissingValueForKnownValueFlag(t *testing.T) {
	_, err := parseDynamicArgs([]string{"react", "--answers"})
	require.Error(t, err)
}
