package providerutils_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	providerutils "github.com/forgelabs/crucible/pkg/llm/provider/utils"
)

func TestProviderUtils(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Provider Utils Suite")
}

var _ = Describe("NewProvider", func() {
	It("builds an openai provider", func() {
		prov, err := providerutils.NewProvider(&providerutils.NewProviderOpts{
			ProviderType: "openai",
			APIKey:       "test-key",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(prov.Name()).To(Equal("openai"))
	})

	It("builds an anthropic provider", func() {
		prov, err := providerutils.NewProvider(&providerutils.NewProviderOpts{
			ProviderType: "anthropic",
			APIKey:       "test-key",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(prov.Name()).To(Equal("anthropic"))
	})

	It("surfaces provider construction errors", func() {
		_, err := providerutils.NewProvider(&providerutils.NewProviderOpts{
			ProviderType: "anthropic",
		})
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown providers", func() {
		_, err := providerutils.NewProvider(&providerutils.NewProviderOpts{
			ProviderType: "mistral",
		})
		Expect(err).To(MatchError(ContainSubstring("unsupported completion provider: mistral")))
	})
})
