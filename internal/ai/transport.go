package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/logging"
	"github.com/hypergen/hypergen/internal/ports"
)

// deferredExitCode matches the CLI surface's "deferred by transport" exit
// code (§6): the process exits 2 and the user re-runs with --answers.
const deferredExitCode = 2

// StdoutTransport implements the "stdout" ask mode: it prints the prompt
// document to stdout and defers, rather than calling out to a model. This
// is the fallback transport when no AI provider is configured, grounded in
// the teacher's getAIProvider() falling through Anthropic -> OpenAI ->
// Ollama -> (here) nothing configured.
type StdoutTransport struct{}

func (StdoutTransport) Resolve(ctx context.Context, entries []ports.AiEntry) (ports.TransportResult, error) {
	fmt.Println(BuildPromptDocument(entries))
	fmt.Println("Re-run with --answers <file.json> containing the JSON object above, filled in.")
	return ports.TransportResult{Status: "deferred", ExitCode: deferredExitCode}, nil
}

// parseAnswers decodes a model's raw text response as the {key: answer}
// object the two-pass protocol expects. Keys that don't correspond to an
// entry are kept anyway; the resolver only looks up what it asked for.
func parseAnswers(raw string) (map[string]string, error) {
	raw = extractJSONObject(raw)
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: answer body is not a flat JSON object: %v", hgerrors.ErrTransport, err)
	}
	return out, nil
}

// extractJSONObject trims a model response down to its outermost {...}
// block, tolerating a markdown code fence around the JSON (a common model
// habit the teacher's AnthropicProvider also had to strip for Dockerfiles).
func extractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}

// parseVariableAnswers decodes a batch variable-resolution answer into a
// generic value map (values may be any JSON type, not just strings).
func parseVariableAnswers(raw string) (map[string]interface{}, error) {
	raw = extractJSONObject(raw)
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: variable batch answer is not a flat JSON object: %v", hgerrors.ErrTransport, err)
	}
	return out, nil
}

func logTransportUse(provider, model string) {
	logging.L().Sugar().Debugf("ai transport: using %s (model=%s)", provider, model)
}

// hasAPIKeyEnv returns the value of the environment variable name (empty
// when unset); callers treat a non-empty result as an available API key.
func hasAPIKeyEnv(name string) string {
	return os.Getenv(name)
}
