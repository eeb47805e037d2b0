// Package openai implements the completion Provider on the OpenAI API:
// chat completions for Complete, the Responses API with the
// web_search_preview tool for WebSearch.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/forgelabs/crucible/pkg/llm"
	"github.com/forgelabs/crucible/pkg/llm/provider"
)

const (
	// DefaultModel is the default chat model.
	DefaultModel = "gpt-4o-mini"

	// DefaultBaseURL is the public OpenAI API URL.
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Provider wraps the OpenAI chat and responses APIs.
type Provider struct {
	client     *goopenai.Client
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the OpenAI provider.
type Config struct {
	// APIKey authenticates against the OpenAI API. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the chat model to use. Defaults to DefaultModel.
	Model string
}

// New creates an OpenAI completion provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = baseURL

	return &Provider{
		client:  goopenai.NewClientWithConfig(clientConfig),
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Name returns the canonical provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Complete sends the conversation through the chat completions API and
// returns the reply text. Content blocks are flattened to text; the chat API
// has no structured search-result block, so injected context arrives as a
// synthesized system message upstream.
func (p *Provider) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	chatMessages := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.GetText(),
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    p.model,
		Messages: chatMessages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai chat: %v", provider.ErrCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", provider.ErrCompletion)
	}

	return resp.Choices[0].Message.Content, nil
}

// WebSearch answers the query via the Responses API with the
// web_search_preview tool. The Responses API has no go-openai client surface,
// so the request goes over plain HTTP.
func (p *Provider) WebSearch(ctx context.Context, query string) (string, error) {
	reqBody := responsesRequest{
		Model: p.model,
		Tools: []responsesTool{{Type: "web_search_preview"}},
		Input: query,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %v", provider.ErrCompletion, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/responses", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", provider.ErrCompletion, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending request: %v", provider.ErrCompletion, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: openai returned status %d: %s", provider.ErrCompletion, resp.StatusCode, string(body))
	}

	var searchResp responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", provider.ErrCompletion, err)
	}

	return searchResp.outputText(), nil
}

// Ensure Provider implements provider.Provider
var _ provider.Provider = (*Provider)(nil)
