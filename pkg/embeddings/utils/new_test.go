package embeddingutils_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	embeddingutils "github.com/forgelabs/crucible/pkg/embeddings/utils"
)

func TestEmbeddingUtils(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Embedding Utils Suite")
}

var _ = Describe("NewEmbedder", func() {
	It("builds an ollama embedder", func() {
		embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "ollama",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(embedder).NotTo(BeNil())
	})

	It("builds an openai embedder", func() {
		embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "openai",
			APIKey:       "test-key",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(embedder).NotTo(BeNil())
	})

	It("surfaces provider construction errors", func() {
		_, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "openai",
		})
		Expect(err).To(MatchError(ContainSubstring("api key")))
	})

	It("rejects unknown providers", func() {
		_, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "cohere",
		})
		Expect(err).To(MatchError(ContainSubstring("unsupported embedding provider: cohere")))
	})
})
