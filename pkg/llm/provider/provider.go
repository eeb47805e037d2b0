// Package provider defines the chat-completion boundary consumed by the
// knowledge-base agent and the simulation optimizer.
package provider

import (
	"context"
	"errors"

	"github.com/forgelabs/crucible/pkg/llm"
)

// ErrCompletion is returned when a completion or web-search call fails at the
// transport or API level.
var ErrCompletion = errors.New("completion failed")

// Provider is a chat-completion backend. Implementations accept an ordered
// message list and return the model's reply as plain text.
type Provider interface {
	// Name returns the canonical provider name (e.g., "openai", "anthropic").
	Name() string

	// Complete sends the conversation to the provider and returns the
	// model's reply text. The message slice is never mutated.
	Complete(ctx context.Context, messages []llm.Message) (string, error)

	// WebSearch answers the query using the provider's native web-search
	// tool, with no third-party search service involved.
	WebSearch(ctx context.Context, query string) (string, error)
}
