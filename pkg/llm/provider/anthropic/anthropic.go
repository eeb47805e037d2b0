// Package anthropic implements the completion Provider on the Anthropic
// Messages API, including the native web_search server tool.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forgelabs/crucible/pkg/llm"
	"github.com/forgelabs/crucible/pkg/llm/provider"
)

const (
	// DefaultModel is the default chat model.
	DefaultModel = "claude-sonnet-4-6"

	// DefaultBaseURL is the public Anthropic API URL.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultMaxTokens bounds response length when the caller does not
	// configure one. Required by the Messages API.
	DefaultMaxTokens = 1024

	// apiVersion is the anthropic-version header value.
	apiVersion = "2023-06-01"

	// webSearchToolType is the server-tool identifier for native web search.
	webSearchToolType = "web_search_20250305"
)

// Provider wraps the Anthropic Messages API.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// Config holds configuration for the Anthropic provider.
type Config struct {
	// APIKey authenticates against the Anthropic API. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the chat model to use. Defaults to DefaultModel.
	Model string

	// MaxTokens bounds response length. Defaults to DefaultMaxTokens.
	MaxTokens int
}

// New creates an Anthropic completion provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Provider{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		model:     model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Name returns the canonical provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// Complete sends the conversation through the Messages API and returns the
// reply text. System-role messages are lifted into the top-level system
// field; search_result blocks pass through to the wire unchanged.
func (p *Provider) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	var systemParts []string
	wireMessages := make([]wireMessage, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, m.GetText())
		case llm.RoleUser, llm.RoleAssistant:
			wireMessages = append(wireMessages, wireMessage{
				Role:    m.Role,
				Content: toWireBlocks(m.Content),
			})
		}
	}

	req := messagesRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    strings.Join(systemParts, "\n"),
		Messages:  wireMessages,
	}

	resp, err := p.send(ctx, req)
	if err != nil {
		return "", err
	}

	return resp.firstText(), nil
}

// WebSearch answers the query via the native web_search server tool.
func (p *Provider) WebSearch(ctx context.Context, query string) (string, error) {
	req := messagesRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Tools:     []messagesTool{{Type: webSearchToolType, Name: "web_search"}},
		Messages: []wireMessage{
			{
				Role:    llm.RoleUser,
				Content: []wireBlock{{Type: "text", Text: query}},
			},
		},
	}

	resp, err := p.send(ctx, req)
	if err != nil {
		return "", err
	}

	return resp.firstText(), nil
}

func (p *Provider) send(ctx context.Context, reqBody messagesRequest) (*messagesResponse, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", provider.ErrCompletion, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", provider.ErrCompletion, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", provider.ErrCompletion, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: anthropic returned status %d: %s", provider.ErrCompletion, resp.StatusCode, string(body))
	}

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", provider.ErrCompletion, err)
	}

	return &msgResp, nil
}

func toWireBlocks(blocks []llm.ContentBlock) []wireBlock {
	wire := make([]wireBlock, 0, len(blocks))
	for _, b := range blocks {
		wire = append(wire, wireBlock{
			Type:    b.Type,
			Text:    b.Text,
			Source:  b.Source,
			Title:   b.Title,
			Content: toWireBlocks(b.Content),
		})
	}
	if len(wire) == 0 {
		return nil
	}
	return wire
}

// Ensure Provider implements provider.Provider
var _ provider.Provider = (*Provider)(nil)
