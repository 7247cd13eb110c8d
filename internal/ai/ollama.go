package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
)

// OllamaTransport talks to a local Ollama daemon, mirroring the teacher's
// OllamaProvider: a generate-mode request with format=json and a generous
// timeout for local model inference.
type OllamaTransport struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaTransport(baseURL, model string) *OllamaTransport {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1"
	}
	return &OllamaTransport{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

// Available reports whether the Ollama daemon answers, matching the
// teacher's IsAvailable() probe used to decide provider fallback order.
func (t *OllamaTransport) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (t *OllamaTransport) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := map[string]interface{}{
		"model":  t.model,
		"prompt": system + "\n\n" + user,
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			"temperature": 0.2,
		},
	}
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling ollama request: %v", hgerrors.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/generate", bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("%w: building ollama request: %v", hgerrors.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: ollama request failed: %v", hgerrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ollama status %d", hgerrors.ErrTransport, resp.StatusCode)
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding ollama response: %v", hgerrors.ErrTransport, err)
	}
	return result.Response, nil
}

func (t *OllamaTransport) Resolve(ctx context.Context, entries []ports.AiEntry) (ports.TransportResult, error) {
	logTransportUse("ollama", t.model)
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

func (t *OllamaTransport) ResolveBatch(ctx context.Context, unresolved []*recipe.VariableSpec, resolved map[string]interface{}, recipeName string) (map[string]interface{}, error) {
	logTransportUse("ollama", t.model)
	text, err := t.complete(ctx, variableSystemPrompt, BuildVariablePromptDocument(recipeName, resolved, toDescriptors(unresolved)))
	if err != nil {
		return nil, err
	}
	return parseVariableAnswers(text)
}
