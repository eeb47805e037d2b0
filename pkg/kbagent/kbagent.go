// Package kbagent answers questions knowledge-base-first: retrieved chunks
// are injected into the conversation in the format the active completion
// provider understands, and queries the knowledge base cannot answer fall
// back to the provider's native web search.
package kbagent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/knowledge"
	"github.com/forgelabs/crucible/pkg/llm"
	"github.com/forgelabs/crucible/pkg/llm/provider"
)

// DefaultTopK is the number of chunks injected per query when Config leaves
// TopK unset.
const DefaultTopK = 5

// defaultSystemPrompt seeds Ask's conversation before context injection.
const defaultSystemPrompt = "You are a helpful assistant."

// Agent retrieves knowledge-base context and completes conversations through
// a single provider.
type Agent struct {
	store    knowledge.Store
	provider provider.Provider
	topK     int
	logger   *zap.Logger
}

// Config holds configuration for the agent.
type Config struct {
	// TopK is the maximum number of chunks injected per query.
	// Defaults to DefaultTopK if zero.
	TopK int
}

// New creates an agent over the given store and completion provider.
func New(cfg Config, store knowledge.Store, prov provider.Provider, logger *zap.Logger) *Agent {
	topK := cfg.TopK
	if topK == 0 {
		topK = DefaultTopK
	}

	return &Agent{
		store:    store,
		provider: prov,
		topK:     topK,
		logger:   logger,
	}
}

// CompleteWithKnowledge retrieves the topK most relevant chunks for query,
// injects them into messages in the active provider's format, and returns the
// provider's reply. The caller's message slice is never mutated. An empty
// knowledge base injects nothing and forwards the conversation as-is.
//
// Injection strategies:
//   - openai: a synthesized system message, "Relevant context:" followed by
//     one "[Source: …] …" line per chunk, prepended to the conversation.
//   - anthropic (and any other block-aware provider): search_result content
//     blocks prepended inside the first user message.
func (a *Agent) CompleteWithKnowledge(ctx context.Context, messages []llm.Message, query string) (string, error) {
	results, err := a.store.Search(ctx, query, a.topK)
	if err != nil {
		return "", err
	}

	a.logger.Debug("retrieved context",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)

	augmented := llm.Clone(messages)
	if len(results) > 0 {
		if a.provider.Name() == "openai" {
			augmented = injectSystemContext(augmented, results)
		} else {
			augmented = injectSearchResultBlocks(augmented, results)
		}
	}

	return a.provider.Complete(ctx, augmented)
}

// Ask answers a query knowledge-base-first. If the store returns results the
// answer is completed with injected context; an empty store or an unmatched
// query falls through to the provider's native web search. The store is never
// modified.
func (a *Agent) Ask(ctx context.Context, query string) (string, error) {
	results, err := a.store.Search(ctx, query, a.topK)
	if err != nil {
		return "", err
	}

	if len(results) > 0 {
		return a.CompleteWithKnowledge(ctx, []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, defaultSystemPrompt),
			llm.NewTextMessage(llm.RoleUser, query),
		}, query)
	}

	a.logger.Debug("knowledge base empty for query, falling back to web search",
		zap.String("query", query),
	)

	return a.provider.WebSearch(ctx, query)
}

// injectSystemContext prepends a system message labelling each retrieved
// chunk with its source.
func injectSystemContext(messages []llm.Message, results []knowledge.Result) []llm.Message {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("[Source: %s] %s", r.Source, r.Content))
	}
	context := "Relevant context:\n" + strings.Join(lines, "\n")

	return append([]llm.Message{llm.NewTextMessage(llm.RoleSystem, context)}, messages...)
}

// injectSearchResultBlocks prepends one search_result block per retrieved
// chunk inside the first user message.
func injectSearchResultBlocks(messages []llm.Message, results []knowledge.Result) []llm.Message {
	for i := range messages {
		if messages[i].Role != llm.RoleUser {
			continue
		}

		blocks := make([]llm.ContentBlock, 0, len(results)+len(messages[i].Content))
		for _, r := range results {
			blocks = append(blocks, llm.NewSearchResultBlock(r.Source, r.Title, r.Content))
		}
		messages[i].Content = append(blocks, messages[i].Content...)
		break
	}

	return messages
}
