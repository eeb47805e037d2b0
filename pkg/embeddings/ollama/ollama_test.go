package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/forgelabs/crucible/pkg/embeddings/ollama"
	"github.com/forgelabs/crucible/pkg/knowledge"
)

func TestOllama(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ollama Embedder Suite")
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

func newEmbedServer(embeddings [][]float32, captured *embedRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer GinkgoRecover()
		Expect(r.URL.Path).To(Equal("/api/embed"))
		Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(json.NewDecoder(r.Body).Decode(captured)).To(Succeed())

		w.Header().Set("Content-Type", "application/json")
		Expect(json.NewEncoder(w).Encode(map[string]any{
			"embeddings": embeddings,
		})).To(Succeed())
	}))
}

var _ = Describe("Embedder", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("defaults the base URL and model", func() {
		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(embedder).NotTo(BeNil())
		Expect(embedder.Close()).To(Succeed())
	})

	It("embeds a batch in a single request", func() {
		var captured embedRequest
		server := newEmbedServer([][]float32{{0.1, 0.2}, {0.3, 0.4}}, &captured)
		defer server.Close()

		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		vectors, err := embedder.Embed(ctx, []string{"first", "second"})
		Expect(err).NotTo(HaveOccurred())
		Expect(vectors).To(Equal([][]float32{{0.1, 0.2}, {0.3, 0.4}}))

		Expect(captured.Model).To(Equal(ollama.DefaultEmbeddingModel))
		Expect(captured.Input).To(Equal([]string{"first", "second"}))
	})

	It("sends the configured model", func() {
		var captured embedRequest
		server := newEmbedServer([][]float32{{0.5}}, &captured)
		defer server.Close()

		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: server.URL,
			Model:   "all-minilm",
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = embedder.Embed(ctx, []string{"text"})
		Expect(err).NotTo(HaveOccurred())
		Expect(captured.Model).To(Equal("all-minilm"))
	})

	It("rejects an empty batch", func() {
		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{})
		Expect(err).NotTo(HaveOccurred())

		_, err = embedder.Embed(ctx, nil)
		Expect(err).To(MatchError(knowledge.ErrEmbedding))
	})

	It("wraps HTTP failures", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = embedder.Embed(ctx, []string{"text"})
		Expect(err).To(MatchError(knowledge.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("status 404"))
	})

	It("rejects a response with the wrong vector count", func() {
		var captured embedRequest
		server := newEmbedServer([][]float32{{0.1}}, &captured)
		defer server.Close()

		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = embedder.Embed(ctx, []string{"first", "second"})
		Expect(err).To(MatchError(knowledge.ErrEmbedding))
	})
})
