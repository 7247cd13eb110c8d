package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
)

// AnthropicTransport implements both ports.Transport and
// ports.AiVariableResolver over github.com/anthropics/anthropic-sdk-go,
// grounded in tsukumogami-tsuku's internal/llm/claude.go client usage.
type AnthropicTransport struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicTransport builds a transport from an API key, model name, and
// max token budget; model and maxTokens fall back to sane defaults when
// zero-valued (mirrors the teacher's NewAnthropicProvider).
func NewAnthropicTransport(apiKey, model string, maxTokens int) *AnthropicTransport {
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &AnthropicTransport{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
	}
}

func (t *AnthropicTransport) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: t.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %v", hgerrors.ErrTransport, err)
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: anthropic response carried no text block", hgerrors.ErrTransport)
}

// Resolve implements ports.Transport for the two-pass @ai collector.
func (t *AnthropicTransport) Resolve(ctx context.Context, entries []ports.AiEntry) (ports.TransportResult, error) {
	logTransportUse("anthropic", string(t.model))
	text, err := t.complete(ctx, aiSystemPrompt, BuildPromptDocument(entries))
	if err != nil {
		return ports.TransportResult{}, err
	}
	answers, err := parseAnswers(text)
	if err != nil {
		return ports.TransportResult{}, err
	}
	return ports.TransportResult{Status: "resolved", Answers: answers}, nil
}

// ResolveBatch implements ports.AiVariableResolver for askMode=ai.
func (t *AnthropicTransport) ResolveBatch(ctx context.Context, unresolved []*recipe.VariableSpec, resolved map[string]interface{}, recipeName string) (map[string]interface{}, error) {
	logTransportUse("anthropic", string(t.model))
	text, err := t.complete(ctx, variableSystemPrompt, BuildVariablePromptDocument(recipeName, resolved, toDescriptors(unresolved)))
	if err != nil {
		return nil, err
	}
	return parseVariableAnswers(text)
}

const aiSystemPrompt = `You fill in deferred values for a code-scaffolding recipe. Respond with a single flat JSON object mapping each requested key to its string answer. No markdown, no commentary, JSON only.`

const variableSystemPrompt = `You choose values for a code-scaffolding recipe's unresolved variables. Respond with a single flat JSON object mapping each variable name to its value, honoring the declared type and constraints. No markdown, no commentary, JSON only.`
