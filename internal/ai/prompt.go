package ai

import (
	"fmt"
	"strings"

	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
)

// BuildPromptDocument renders the collector's entries into a single
// human- and model-readable document: one section per key with its prompt,
// contexts and examples. Both the batch AI transports (as the user message)
// and the deferred/stdout transport (as the document a user pastes into
// --answers) share this renderer.
func BuildPromptDocument(entries []ports.AiEntry) string {
	var b strings.Builder
	b.WriteString("The following values need to be generated. Respond with a single JSON object mapping each key to its string answer.\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "## %s\n\n%s\n", e.Key, e.Prompt)
		for _, c := range e.Contexts {
			fmt.Fprintf(&b, "\ncontext: %s\n", c)
		}
		for _, ex := range e.Examples {
			fmt.Fprintf(&b, "\nexample: %s\n", ex)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// BuildVariablePromptDocument renders the batch variable-resolution prompt
// used by askMode=ai (distinct from the template-level @ai collector): one
// section per unresolved variable plus the variables already resolved, so
// the model has enough context to answer consistently.
func BuildVariablePromptDocument(recipeName string, resolved map[string]interface{}, unresolvedDesc []VariableDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recipe %q needs values for the following variables. Respond with a single JSON object mapping each variable name to its value.\n\n", recipeName)
	if len(resolved) > 0 {
		b.WriteString("Already resolved:\n")
		for k, v := range resolved {
			fmt.Fprintf(&b, "- %s = %v\n", k, v)
		}
		b.WriteString("\n")
	}
	b.WriteString("Unresolved:\n")
	for _, v := range unresolvedDesc {
		fmt.Fprintf(&b, "- %s (%s)", v.Name, v.Type)
		if v.Description != "" {
			fmt.Fprintf(&b, ": %s", v.Description)
		}
		if v.Suggestion != nil {
			fmt.Fprintf(&b, " [suggestion: %v]", v.Suggestion)
		}
		if len(v.Values) > 0 {
			fmt.Fprintf(&b, " [one of: %s]", strings.Join(v.Values, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// VariableDescriptor is the subset of recipe.VariableSpec the prompt
// builder needs.
type VariableDescriptor struct {
	Name        string
	Type        string
	Description string
	Suggestion  interface{}
	Values      []string
}

// toDescriptors projects recipe.VariableSpec values down to the descriptor
// shape the prompt builder needs.
func toDescriptors(specs []*recipe.VariableSpec) []VariableDescriptor {
	out := make([]VariableDescriptor, 0, len(specs))
	for _, s := range specs {
		out = append(out, VariableDescriptor{
			Name:        s.Name,
			Type:        string(s.Type),
			Description: s.Description,
			Suggestion:  s.Suggestion,
			Values:      s.Values,
		})
	}
	return out
}
