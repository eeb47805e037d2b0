// Package llm holds the provider-agnostic conversation types shared by the
// completion providers and the knowledge-base agent.
package llm

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block types.
const (
	BlockText         = "text"
	BlockSearchResult = "search_result"
)

// Message represents a single message in a conversation.
// Content is stored as an array of ContentBlocks so retrieval context can be
// injected as structured blocks where the downstream provider supports them.
type Message struct {
	Role    string         `json:"role"`    // "system", "user", "assistant"
	Content []ContentBlock `json:"content"` // Array of content blocks
}

// ContentBlock represents a single piece of content within a message.
// The Type field determines which other fields are populated.
type ContentBlock struct {
	Type string `json:"type"` // "text", "search_result"

	// Text content (type="text")
	Text string `json:"text,omitempty"`

	// Search result content (type="search_result") - a retrieved knowledge
	// base chunk injected as structured context.
	Source  string         `json:"source,omitempty"`
	Title   string         `json:"title,omitempty"`
	Content []ContentBlock `json:"content,omitempty"`
}

// NewTextMessage creates a simple text message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{Type: BlockText, Text: text},
		},
	}
}

// NewSearchResultBlock creates a search_result content block carrying one
// retrieved chunk.
func NewSearchResultBlock(source, title, text string) ContentBlock {
	return ContentBlock{
		Type:   BlockSearchResult,
		Source: source,
		Title:  title,
		Content: []ContentBlock{
			{Type: BlockText, Text: text},
		},
	}
}

// GetText returns the concatenated text content from all text blocks in the message.
// This is a convenience method for simple text-only messages.
func (m *Message) GetText() string {
	var result string
	for _, block := range m.Content {
		if block.Type == BlockText {
			result += block.Text
		}
	}
	return result
}

// Clone returns a deep copy of the message slice so injection never mutates
// the caller's conversation.
func Clone(messages []Message) []Message {
	cloned := make([]Message, len(messages))
	for i, m := range messages {
		cloned[i] = Message{Role: m.Role, Content: cloneBlocks(m.Content)}
	}
	return cloned
}

func cloneBlocks(blocks []ContentBlock) []ContentBlock {
	if blocks == nil {
		return nil
	}
	cloned := make([]ContentBlock, len(blocks))
	for i, b := range blocks {
		cloned[i] = b
		cloned[i].Content = cloneBlocks(b.Content)
	}
	return cloned
}
