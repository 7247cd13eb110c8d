package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergen/hypergen/internal/ports"
)

func TestParseAnswers_PlainObject(t *testing.T) {
	answers, err := parseAnswers(`{"greeting": "hello", "tagline": "Ship it."}`)
	require.NoError(t, err)
	assert.Equal(t, "hello", answers["greeting"])
	assert.Equal(t, "Ship it.", answers["tagline"])
}

func TestParseAnswers_StripsMarkdownFence(t *testing.T) {
	answers, err := parseAnswers("```json\n{\"greeting\": \"hello\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "hello", answers["greeting"])
}

func TestParseAnswers_TrimsSurroundingProse(t *testing.T) {
	answers, err := parseAnswers("Here are the values:\n{\"greeting\": \"hello\"}\nHope that helps!")
	require.NoError(t, err)
	assert.Equal(t, "hello", answers["greeting"])
}

func TestParseAnswers_NonObjectErrors(t *testing.T) {
	_, err := parseAnswers(`["not", "an", "object"]`)
	require.Error(t, err)
}

func TestParseVariableAnswers_KeepsJSONTypes(t *testing.T) {
	answers, err := parseVariableAnswers(`{"name": "widget", "count": 3, "enabled": true}`)
	require.NoError(t, err)
	assert.Equal(t, "widget", answers["name"])
	assert.Equal(t, float64(3), answers["count"])
	assert.Equal(t, true, answers["enabled"])
}

func TestStdoutTransport_Defers(t *testing.T) {
	tr, err := StdoutTransport{}.Resolve(context.Background(), []ports.AiEntry{
		{Key: "greeting", Prompt: "say hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "deferred", tr.Status)
	assert.Equal(t, 2, tr.ExitCode)
	assert.Empty(t, tr.Answers)
}

func TestBuildPromptDocument_OneSectionPerEntry(t *testing.T) {
	doc := BuildPromptDocument([]ports.AiEntry{
		{Key: "greeting", Prompt: "say hello", Contexts: []string{"a CLI tool"}},
		{Key: "tagline", Prompt: "write a tagline", Examples: []string{"Just do it"}},
	})
	assert.Contains(t, doc, "## greeting")
	assert.Contains(t, doc, "say hello")
	assert.Contains(t, doc, "context: a CLI tool")
	assert.Contains(t, doc, "## tagline")
	assert.Contains(t, doc, "example: Just do it")
}

func TestBuildVariablePromptDocument_ListsResolvedAndUnresolved(t *testing.T) {
	doc := BuildVariablePromptDocument("component",
		map[string]interface{}{"name": "Button"},
		[]VariableDescriptor{
			{Name: "style", Type: "enum", Values: []string{"css", "scss"}, Suggestion: "css"},
			{Name: "withTests", Type: "boolean", Description: "generate a test file"},
		})
	assert.Contains(t, doc, `Recipe "component"`)
	assert.Contains(t, doc, "name = Button")
	assert.Contains(t, doc, "style (enum)")
	assert.Contains(t, doc, "[one of: css, scss]")
	assert.Contains(t, doc, "[suggestion: css]")
	assert.Contains(t, doc, "withTests (boolean): generate a test file")
}
