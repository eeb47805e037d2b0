package sim_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/llm"
	"github.com/forgelabs/crucible/pkg/sim"
	testutils "github.com/forgelabs/crucible/pkg/utils/test"
)

func TestSim(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sim Suite")
}

var _ = Describe("Run", func() {
	It("succeeds at the reference cooling rate", func() {
		outcome := sim.Run(sim.Params{CoolingRateKPerMin: sim.DefaultCoolingRate})

		Expect(outcome.Success).To(BeTrue())
		Expect(outcome.YieldStrengthMPa).To(BeNumerically(">", 200.0))
	})

	It("is deterministic", func() {
		p := sim.Params{CoolingRateKPerMin: 22.5}
		Expect(sim.Run(p)).To(Equal(sim.Run(p)))
	})

	It("applies defaults to zero-value fields", func() {
		implicit := sim.Run(sim.Params{CoolingRateKPerMin: 15})
		explicit := sim.Run(sim.Params{
			CoolingRateKPerMin: 15,
			DurationHours:      4,
			InitialGrainSizeNM: sim.InitialGrainSizeNM,
			NumSteps:           sim.NumEvolutionSteps,
		})

		Expect(implicit).To(Equal(explicit))
	})

	It("yields higher strength at faster cooling", func() {
		slow := sim.Run(sim.Params{CoolingRateKPerMin: 5})
		fast := sim.Run(sim.Params{CoolingRateKPerMin: 30})

		Expect(fast.YieldStrengthMPa).To(BeNumerically(">", slow.YieldStrengthMPa))
	})

	It("clamps the cooling factor at the low end", func() {
		// Rates at or below 3 K/min hit the same refinement floor.
		floor := sim.Run(sim.Params{CoolingRateKPerMin: 3})
		below := sim.Run(sim.Params{CoolingRateKPerMin: 0.5})

		Expect(below.YieldStrengthMPa).To(Equal(floor.YieldStrengthMPa))
	})

	It("fails the part when porosity crosses the threshold", func() {
		outcome := sim.Run(sim.Params{
			CoolingRateKPerMin: 15,
			DurationHours:      200,
		})

		Expect(outcome.Success).To(BeFalse())
		Expect(outcome.YieldStrengthMPa).To(BeNumerically(">", 200.0))
	})
})

var _ = Describe("Agent", func() {
	var (
		ctx  context.Context
		prov *testutils.MockProvider
	)

	BeforeEach(func() {
		ctx = context.Background()
		prov = &testutils.MockProvider{}
	})

	newAgent := func(cfg sim.AgentConfig) *sim.Agent {
		return sim.NewAgent(cfg, prov, zap.NewNop())
	}

	Describe("Suggest", func() {
		It("parses a plain numeric reply", func() {
			prov.Replies = []string{"18.5"}

			rate, err := newAgent(sim.AgentConfig{}).Suggest(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(Equal(18.5))
			Expect(prov.CompleteCalls).To(HaveLen(1))
		})

		It("sends the system prompt and a first-attempt history prompt", func() {
			prov.Replies = []string{"15"}

			_, err := newAgent(sim.AgentConfig{}).Suggest(ctx)
			Expect(err).NotTo(HaveOccurred())

			sent := prov.CompleteCalls[0]
			Expect(sent).To(HaveLen(2))
			Expect(sent[0].Role).To(Equal(llm.RoleSystem))
			Expect(sent[0].GetText()).To(ContainSubstring("Materials Informatics Specialist"))
			Expect(sent[1].Role).To(Equal(llm.RoleUser))
			Expect(sent[1].GetText()).To(ContainSubstring("No previous attempts"))
		})

		It("tolerates trailing units", func() {
			prov.Replies = []string{"12 K/min"}

			rate, err := newAgent(sim.AgentConfig{}).Suggest(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(Equal(12.0))
		})

		It("clamps suggestions to the physical range", func() {
			prov.Replies = []string{"500"}

			rate, err := newAgent(sim.AgentConfig{}).Suggest(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(Equal(100.0))
		})

		It("retries a non-numeric reply once", func() {
			prov.Replies = []string{"let me think about it", "17"}

			rate, err := newAgent(sim.AgentConfig{}).Suggest(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(Equal(17.0))
			Expect(prov.CompleteCalls).To(HaveLen(2))
		})

		It("falls back after repeated non-numeric replies", func() {
			prov.Replies = []string{"slower, probably", "definitely slower"}

			rate, err := newAgent(sim.AgentConfig{}).Suggest(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(Equal(sim.FallbackCoolingRate))
			Expect(prov.CompleteCalls).To(HaveLen(2))
		})

		It("propagates provider errors", func() {
			prov.Err = errors.New("provider down")

			_, err := newAgent(sim.AgentConfig{}).Suggest(ctx)
			Expect(err).To(MatchError("provider down"))
		})
	})

	Describe("RunLoop", func() {
		It("records one history entry per iteration", func() {
			prov.Replies = []string{"20"}

			agent := newAgent(sim.AgentConfig{MaxIterations: 3})
			history, err := agent.RunLoop(ctx, sim.DefaultCoolingRate)
			Expect(err).NotTo(HaveOccurred())

			Expect(history).To(HaveLen(3))
			Expect(history[0].CoolingRateKPerMin).To(Equal(15.0))
			Expect(history[1].CoolingRateKPerMin).To(Equal(20.0))
			Expect(history[2].CoolingRateKPerMin).To(Equal(20.0))
			Expect(agent.History()).To(Equal(history))
		})

		It("feeds earlier attempts back into the prompt", func() {
			prov.Replies = []string{"20"}

			_, err := newAgent(sim.AgentConfig{MaxIterations: 2}).RunLoop(ctx, 15)
			Expect(err).NotTo(HaveOccurred())

			Expect(prov.CompleteCalls).To(HaveLen(2))
			second := prov.CompleteCalls[1][1].GetText()
			Expect(second).To(ContainSubstring("Previous attempts:"))
			Expect(second).To(ContainSubstring("cooling_rate_K_per_min=15"))
			Expect(second).To(ContainSubstring("success=True"))
		})

		It("returns the partial history on provider failure", func() {
			prov.Err = errors.New("provider down")

			history, err := newAgent(sim.AgentConfig{MaxIterations: 5}).RunLoop(ctx, 15)
			Expect(err).To(HaveOccurred())
			Expect(history).To(HaveLen(1))
		})
	})

	Describe("Report", func() {
		It("names the best successful attempt", func() {
			prov.Replies = []string{"30"}

			agent := newAgent(sim.AgentConfig{MaxIterations: 2})
			_, err := agent.RunLoop(ctx, 15)
			Expect(err).NotTo(HaveOccurred())

			report := agent.Report()
			Expect(report).To(ContainSubstring("Optimization history:"))
			Expect(report).To(ContainSubstring("success=true"))
			Expect(report).To(ContainSubstring("Best: cooling_rate_K_per_min=30.00"))
		})

		It("says so when every run failed", func() {
			prov.Replies = []string{"15"}

			agent := newAgent(sim.AgentConfig{DurationHours: 200, MaxIterations: 2})
			_, err := agent.RunLoop(ctx, 15)
			Expect(err).NotTo(HaveOccurred())

			Expect(agent.Report()).To(ContainSubstring("No successful attempt"))
		})
	})
})
