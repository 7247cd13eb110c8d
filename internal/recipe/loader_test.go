package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromString_ValidRecipe(t *testing.T) {
	content := `
name: make-service
description: scaffolds a service
version: "1.2.0"
variables:
  name:
    type: string
    required: true
    position: 0
  withTests:
    type: boolean
    default: true
steps:
  - name: write-main
    tool: template
    source: main.go.tmpl
  - name: write-test
    tool: template
    source: main_test.go.tmpl
    when: withTests
    dependsOn: [write-main]
`
	r, err := LoadFromString(content)
	require.NoError(t, err)
	assert.Equal(t, "make-service", r.Name)
	assert.Equal(t, []string{"name", "withTests"}, r.VariableOrder)
	assert.Len(t, r.Steps, 2)
	assert.Equal(t, "name", r.Variables["name"].Name)
}

func TestLoadFromString_RejectsUnknownDependency(t *testing.T) {
	content := `
name: broken
steps:
  - name: a
    tool: action
    action: noop
    dependsOn: [missing]
`
	_, err := LoadFromString(content)
	require.Error(t, err)
	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Contains(t, verrs.Error(), "missing")
}

func TestLoadFromString_RejectsDuplicateStepNames(t *testing.T) {
	content := `
name: dup
steps:
  - name: a
    tool: action
    action: noop
  - name: a
    tool: action
    action: noop
`
	_, err := LoadFromString(content)
	require.Error(t, err)
}

func TestLoadFromString_RejectsNonContiguousPositions(t *testing.T) {
	content := `
name: positions
variables:
  first:
    type: string
    position: 0
  second:
    type: string
    position: 2
steps:
  - name: a
    tool: action
    action: noop
`
	_, err := LoadFromString(content)
	require.Error(t, err)
}

func TestLoadFromString_RejectsBadSemver(t *testing.T) {
	content := `
name: badver
version: "not-a-version"
steps:
  - name: a
    tool: action
    action: noop
`
	_, err := LoadFromString(content)
	require.Error(t, err)
}

func TestLoadFromString_FailsFastOnUnparseableYAML(t *testing.T) {
	_, err := LoadFromString("name: [unterminated")
	require.Error(t, err)
	_, isValidationErrs := err.(ValidationErrors)
	assert.False(t, isValidationErrs, "unparseable YAML should not surface as ValidationErrors")
}

func TestLoadGroup(t *testing.T) {
	dir := t.TempDir()
	content := "name: fullstack\ndescription: api plus web\nrecipes: [api, web]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "group.yml"), []byte(content), 0o644))

	g, err := LoadGroup(dir)
	require.NoError(t, err)
	assert.Equal(t, "fullstack", g.Name)
	assert.Equal(t, []string{"api", "web"}, g.Recipes)
	assert.Equal(t, dir, g.Dir)
}

func TestLoadGroupMissingFileErrors(t *testing.T) {
	_, err := LoadGroup(t.TempDir())
	require.Error(t, err)
}

func TestLoadFromString_EnumWithoutValuesRejected(t *testing.T) {
	content := `
name: enum-test
variables:
  color:
    type: enum
steps:
  - name: a
    tool: action
    action: noop
`
	_, err := LoadFromString(content)
	require.Error(t, err)
}
