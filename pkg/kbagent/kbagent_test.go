package kbagent_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/kbagent"
	"github.com/forgelabs/crucible/pkg/knowledge/inmemory"
	"github.com/forgelabs/crucible/pkg/llm"
	testutils "github.com/forgelabs/crucible/pkg/utils/test"
)

func TestKBAgent(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "KB Agent Suite")
}

var _ = Describe("Agent", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		store    *inmemory.Store
		prov     *testutils.MockProvider
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		store = inmemory.NewStore(inmemory.Config{}, embedder, zap.NewNop())
		prov = &testutils.MockProvider{
			Replies:        []string{"completion answer"},
			WebSearchReply: "web answer",
		}
	})

	newAgent := func() *kbagent.Agent {
		return kbagent.New(kbagent.Config{}, store, prov, zap.NewNop())
	}

	Describe("Ask", func() {
		It("falls back to web search when the store is empty", func() {
			answer, err := newAgent().Ask(ctx, "anything at all")
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("web answer"))

			Expect(prov.WebSearchCalls).To(Equal([]string{"anything at all"}))
			Expect(prov.CompleteCalls).To(BeEmpty())
		})

		It("completes with injected context when the store has chunks", func() {
			Expect(store.Index(ctx, []string{"magnesium alloy notes"})).To(Succeed())

			answer, err := newAgent().Ask(ctx, "what about magnesium?")
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("completion answer"))

			Expect(prov.WebSearchCalls).To(BeEmpty())
			Expect(prov.CompleteCalls).To(HaveLen(1))
		})
	})

	Describe("CompleteWithKnowledge", func() {
		BeforeEach(func() {
			Expect(store.Index(ctx, []string{"magnesium alloy notes"})).To(Succeed())
		})

		Context("with an openai provider", func() {
			BeforeEach(func() {
				prov.ProviderName = "openai"
			})

			It("prepends a labelled system message", func() {
				messages := []llm.Message{llm.NewTextMessage(llm.RoleUser, "question")}

				_, err := newAgent().CompleteWithKnowledge(ctx, messages, "question")
				Expect(err).NotTo(HaveOccurred())

				sent := prov.CompleteCalls[0]
				Expect(sent).To(HaveLen(2))
				Expect(sent[0].Role).To(Equal(llm.RoleSystem))
				Expect(sent[0].GetText()).To(HavePrefix("Relevant context:\n"))
				Expect(sent[0].GetText()).To(ContainSubstring("[Source: inline] magnesium alloy notes"))
				Expect(sent[1].Role).To(Equal(llm.RoleUser))
			})
		})

		Context("with an anthropic provider", func() {
			BeforeEach(func() {
				prov.ProviderName = "anthropic"
			})

			It("prepends search_result blocks inside the first user message", func() {
				messages := []llm.Message{
					llm.NewTextMessage(llm.RoleSystem, "be terse"),
					llm.NewTextMessage(llm.RoleUser, "question"),
				}

				_, err := newAgent().CompleteWithKnowledge(ctx, messages, "question")
				Expect(err).NotTo(HaveOccurred())

				sent := prov.CompleteCalls[0]
				Expect(sent).To(HaveLen(2))

				userMsg := sent[1]
				Expect(userMsg.Role).To(Equal(llm.RoleUser))
				Expect(userMsg.Content).To(HaveLen(2))
				Expect(userMsg.Content[0].Type).To(Equal(llm.BlockSearchResult))
				Expect(userMsg.Content[0].Source).To(Equal("inline"))
				Expect(userMsg.Content[0].Content[0].Text).To(Equal("magnesium alloy notes"))
				Expect(userMsg.Content[1].Text).To(Equal("question"))
			})
		})

		It("never mutates the caller's messages", func() {
			messages := []llm.Message{llm.NewTextMessage(llm.RoleUser, "question")}

			_, err := newAgent().CompleteWithKnowledge(ctx, messages, "question")
			Expect(err).NotTo(HaveOccurred())

			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Content).To(HaveLen(1))
			Expect(messages[0].Content[0].Text).To(Equal("question"))
		})

		It("forwards the conversation unchanged when nothing matches", func() {
			Expect(store.Clear(ctx)).To(Succeed())

			messages := []llm.Message{llm.NewTextMessage(llm.RoleUser, "question")}

			_, err := newAgent().CompleteWithKnowledge(ctx, messages, "question")
			Expect(err).NotTo(HaveOccurred())

			sent := prov.CompleteCalls[0]
			Expect(sent).To(HaveLen(1))
			Expect(sent[0].GetText()).To(Equal("question"))
		})

		It("limits injected chunks to topK", func() {
			Expect(store.Clear(ctx)).To(Succeed())
			Expect(store.Index(ctx, []string{"one", "two", "three"})).To(Succeed())

			limited := kbagent.New(kbagent.Config{TopK: 2}, store, prov, zap.NewNop())
			prov.ProviderName = "anthropic"

			messages := []llm.Message{llm.NewTextMessage(llm.RoleUser, "question")}
			_, err := limited.CompleteWithKnowledge(ctx, messages, "question")
			Expect(err).NotTo(HaveOccurred())

			userMsg := prov.CompleteCalls[0][0]
			searchBlocks := 0
			for _, b := range userMsg.Content {
				if b.Type == llm.BlockSearchResult {
					searchBlocks++
				}
			}
			Expect(searchBlocks).To(Equal(2))
		})
	})
})
