package llm_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/forgelabs/crucible/pkg/llm"
)

func TestLLM(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "LLM Suite")
}

var _ = Describe("Message", func() {
	Describe("NewTextMessage", func() {
		It("creates a single text block", func() {
			msg := llm.NewTextMessage(llm.RoleUser, "hello")
			Expect(msg.Role).To(Equal(llm.RoleUser))
			Expect(msg.Content).To(HaveLen(1))
			Expect(msg.Content[0].Type).To(Equal(llm.BlockText))
			Expect(msg.Content[0].Text).To(Equal("hello"))
		})
	})

	Describe("NewSearchResultBlock", func() {
		It("nests the chunk text inside the block", func() {
			block := llm.NewSearchResultBlock("notes.md", "Notes", "some chunk")
			Expect(block.Type).To(Equal(llm.BlockSearchResult))
			Expect(block.Source).To(Equal("notes.md"))
			Expect(block.Title).To(Equal("Notes"))
			Expect(block.Content).To(HaveLen(1))
			Expect(block.Content[0].Text).To(Equal("some chunk"))
		})
	})

	Describe("GetText", func() {
		It("concatenates text blocks", func() {
			msg := llm.Message{
				Role: llm.RoleUser,
				Content: []llm.ContentBlock{
					{Type: llm.BlockText, Text: "one "},
					{Type: llm.BlockText, Text: "two"},
				},
			}
			Expect(msg.GetText()).To(Equal("one two"))
		})

		It("skips non-text blocks", func() {
			msg := llm.Message{
				Role: llm.RoleUser,
				Content: []llm.ContentBlock{
					llm.NewSearchResultBlock("src", "title", "chunk"),
					{Type: llm.BlockText, Text: "question"},
				},
			}
			Expect(msg.GetText()).To(Equal("question"))
		})
	})

	Describe("Clone", func() {
		It("deep copies nested blocks", func() {
			original := []llm.Message{
				{
					Role: llm.RoleUser,
					Content: []llm.ContentBlock{
						llm.NewSearchResultBlock("src", "title", "chunk"),
					},
				},
			}

			cloned := llm.Clone(original)
			cloned[0].Content[0].Source = "changed"
			cloned[0].Content[0].Content[0].Text = "changed"

			Expect(original[0].Content[0].Source).To(Equal("src"))
			Expect(original[0].Content[0].Content[0].Text).To(Equal("chunk"))
		})

		It("preserves nil content", func() {
			cloned := llm.Clone([]llm.Message{{Role: llm.RoleUser}})
			Expect(cloned[0].Content).To(BeNil())
		})
	})
})
