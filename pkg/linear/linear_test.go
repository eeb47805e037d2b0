package linear_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/linear"
	"github.com/forgelabs/crucible/pkg/llm"
	testutils "github.com/forgelabs/crucible/pkg/utils/test"
)

func TestLinear(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Linear Pipeline Suite")
}

const extractionReply = `{"material_system": {"material_name": "Inconel 718"}}`

var _ = Describe("Pipeline", func() {
	var (
		ctx  context.Context
		prov *testutils.MockProvider
	)

	BeforeEach(func() {
		ctx = context.Background()
		prov = &testutils.MockProvider{Replies: []string{extractionReply}}
	})

	newPipeline := func() *linear.Pipeline {
		return linear.New(prov, zap.NewNop())
	}

	Describe("Extract", func() {
		It("returns a plain JSON reply as-is", func() {
			extraction, err := newPipeline().Extract(ctx, "simulate Inconel 718 creep")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(extraction)).To(Equal(extractionReply))
		})

		It("strips a markdown fence from the reply", func() {
			prov.Replies = []string{"```json\n" + extractionReply + "\n```"}

			extraction, err := newPipeline().Extract(ctx, "simulate Inconel 718 creep")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(extraction)).To(Equal(extractionReply))
		})

		It("sends the schema-bearing system prompt and the raw input", func() {
			_, err := newPipeline().Extract(ctx, "simulate Inconel 718 creep")
			Expect(err).NotTo(HaveOccurred())

			Expect(prov.CompleteCalls).To(HaveLen(1))
			sent := prov.CompleteCalls[0]
			Expect(sent).To(HaveLen(2))
			Expect(sent[0].Role).To(Equal(llm.RoleSystem))
			Expect(sent[0].GetText()).To(ContainSubstring("Return ONLY valid JSON"))
			Expect(sent[0].GetText()).To(ContainSubstring("material_system"))
			Expect(sent[1].Role).To(Equal(llm.RoleUser))
			Expect(sent[1].GetText()).To(Equal("simulate Inconel 718 creep"))
		})

		It("rejects a reply that is not JSON", func() {
			prov.Replies = []string{"Sure! Here is the extraction you asked for."}

			_, err := newPipeline().Extract(ctx, "simulate Inconel 718 creep")
			Expect(err).To(MatchError(linear.ErrBadReply))
		})

		It("propagates provider errors", func() {
			prov.Err = errors.New("rate limited")

			_, err := newPipeline().Extract(ctx, "simulate Inconel 718 creep")
			Expect(err).To(MatchError(ContainSubstring("rate limited")))
		})
	})

	Describe("Process", func() {
		extraction := json.RawMessage(extractionReply)

		It("sends the task prompt with the indented extraction", func() {
			prov.Replies = []string{`{"valid": true, "issues": []}`}

			result, err := newPipeline().Process(ctx, extraction, linear.TaskSchemaValidation)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(result)).To(Equal(`{"valid": true, "issues": []}`))

			Expect(prov.CompleteCalls).To(HaveLen(1))
			sent := prov.CompleteCalls[0]
			Expect(sent[0].Role).To(Equal(llm.RoleSystem))
			Expect(sent[0].GetText()).To(ContainSubstring("You validate material/simulation extraction data"))
			Expect(sent[1].Role).To(Equal(llm.RoleUser))
			Expect(sent[1].GetText()).To(Equal("{\n  \"material_system\": {\n    \"material_name\": \"Inconel 718\"\n  }\n}"))
		})

		It("rejects an unknown task name", func() {
			_, err := newPipeline().Process(ctx, extraction, "sentiment_analysis")
			Expect(err).To(MatchError(linear.ErrUnknownTask))
			Expect(prov.CompleteCalls).To(BeEmpty())
		})

		It("rejects a non-JSON task reply", func() {
			prov.Replies = []string{"the data looks valid to me"}

			_, err := newPipeline().Process(ctx, extraction, linear.TaskRiskRanking)
			Expect(err).To(MatchError(linear.ErrBadReply))
		})
	})

	Describe("Run", func() {
		BeforeEach(func() {
			prov.Replies = []string{
				extractionReply,
				`{"valid": true, "issues": []}`,
				`{"plausible": true, "warnings": []}`,
				`{"alloy_class": "superalloy"}`,
				`{"material_system": {}}`,
				`{"property_ranking": [], "processing_ranking": []}`,
				"A nickel superalloy task was extracted and checked.",
			}
		})

		It("runs every task when none are selected", func() {
			result, err := newPipeline().Run(ctx, "simulate Inconel 718 creep", nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(prov.CompleteCalls).To(HaveLen(7))
			Expect(result.Summary).To(Equal("A nickel superalloy task was extracted and checked."))
			Expect(string(result.Extraction)).To(Equal(extractionReply))
			Expect(result.Processing).To(HaveLen(len(linear.Tasks())))
			for _, task := range linear.Tasks() {
				Expect(result.Processing).To(HaveKey(task))
			}
		})

		It("runs only the selected tasks", func() {
			prov.Replies = []string{
				extractionReply,
				`{"property_ranking": ["yield_strength_MPa"], "processing_ranking": []}`,
				"Ranked the risks.",
			}

			result, err := newPipeline().Run(ctx, "simulate Inconel 718 creep", []string{linear.TaskRiskRanking})
			Expect(err).NotTo(HaveOccurred())

			Expect(prov.CompleteCalls).To(HaveLen(3))
			Expect(result.Processing).To(HaveLen(1))
			Expect(result.Processing).To(HaveKey(linear.TaskRiskRanking))
		})

		It("hands the summarizer the full run record", func() {
			_, err := newPipeline().Run(ctx, "simulate Inconel 718 creep", nil)
			Expect(err).NotTo(HaveOccurred())

			summaryCall := prov.CompleteCalls[len(prov.CompleteCalls)-1]
			Expect(summaryCall[0].Role).To(Equal(llm.RoleSystem))
			Expect(summaryCall[0].GetText()).To(ContainSubstring("You summarize the execution of a material/simulation pipeline"))
			Expect(summaryCall[1].Role).To(Equal(llm.RoleUser))
			Expect(summaryCall[1].GetText()).To(ContainSubstring(`"original_input": "simulate Inconel 718 creep"`))
			Expect(summaryCall[1].GetText()).To(ContainSubstring(`"extraction"`))
			Expect(summaryCall[1].GetText()).To(ContainSubstring(`"processing_results"`))
		})

		It("aborts on the first failing task", func() {
			prov.Replies = []string{
				extractionReply,
				"not even close to JSON",
			}

			_, err := newPipeline().Run(ctx, "simulate Inconel 718 creep", nil)
			Expect(err).To(MatchError(linear.ErrBadReply))
			Expect(err.Error()).To(ContainSubstring("processing " + linear.TaskSchemaValidation))
			Expect(prov.CompleteCalls).To(HaveLen(2))
		})
	})
})
