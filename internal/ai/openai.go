package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
)

// OpenAITransport implements ports.Transport and ports.AiVariableResolver
// over the OpenAI chat completions HTTP API, kept as a plain net/http
// client in the same style as the teacher's OpenAIProvider (no SDK for
// OpenAI appears anywhere in the retrieval pack).
type OpenAITransport struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

func NewOpenAITransport(apiKey, model, baseURL string, maxTokens int) *OpenAITransport {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &OpenAITransport{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (t *OpenAITransport) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := map[string]interface{}{
		"model": t.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"max_tokens": t.maxTokens,
	}
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling openai request: %v", hgerrors.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/chat/completions", bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("%w: building openai request: %v", hgerrors.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: openai request failed: %v", hgerrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: openai status %d: %s", hgerrors.ErrTransport, resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding openai response: %v", hgerrors.ErrTransport, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", hgerrors.ErrTransport)
	}
	return result.Choices[0].Message.Content, nil
}

func (t *OpenAITransport) Resolve(ctx context.Context, entries []ports.AiEntry) (ports.TransportResult, error) {
	logTransportUse("openai", t.model)
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

func (t *OpenAITransport) ResolveBatch(ctx context.Context, unresolved []*recipe.VariableSpec, resolved map[string]interface{}, recipeName string) (map[string]interface{}, error) {
	logTransportUse("openai", t.model)
	text, err := t.complete(ctx, variableSystemPrompt, BuildVariablePromptDocument(recipeName, resolved, toDescriptors(unresolved)))
	if err != nil {
		return nil, err
	}
	return parseVariableAnswers(text)
}
