package testutils

import (
	"context"

	"github.com/forgelabs/crucible/pkg/llm"
)

// MockProvider is a test completion provider that records the conversations
// it receives and replies from a scripted queue.
type MockProvider struct {
	// ProviderName is returned by Name. Defaults to "mock" when empty.
	ProviderName string

	// Replies are returned by Complete in order; the last entry repeats
	// once the queue is exhausted.
	Replies []string

	// WebSearchReply is returned by WebSearch.
	WebSearchReply string

	// Err, when set, is returned by Complete and WebSearch.
	Err error

	CompleteCalls  [][]llm.Message
	WebSearchCalls []string

	replyIdx int
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) Complete(_ context.Context, messages []llm.Message) (string, error) {
	m.CompleteCalls = append(m.CompleteCalls, llm.Clone(messages))

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Replies) == 0 {
		return "", nil
	}

	reply := m.Replies[m.replyIdx]
	if m.replyIdx < len(m.Replies)-1 {
		m.replyIdx++
	}
	return reply, nil
}

func (m *MockProvider) WebSearch(_ context.Context, query string) (string, error) {
	m.WebSearchCalls = append(m.WebSearchCalls, query)

	if m.Err != nil {
		return "", m.Err
	}
	return m.WebSearchReply, nil
}
