package sim

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/llm"
	"github.com/forgelabs/crucible/pkg/llm/provider"
)

const (
	// DefaultCoolingRate is the starting cooling rate for an optimization
	// loop.
	DefaultCoolingRate = 15.0

	// FallbackCoolingRate is used when the model keeps returning
	// non-numeric text.
	FallbackCoolingRate = 12.0

	// DefaultMaxIterations bounds the optimization loop.
	DefaultMaxIterations = 10

	// maxParseAttempts is the total number of completion calls allowed per
	// suggestion before falling back.
	maxParseAttempts = 2

	minCoolingRate = 0.1
	maxCoolingRate = 100.0
)

const materialContext = "Material system: Nickel-based superalloy, Ni-60, Cr-20, Co-10, Al-10 (dual-phase). " +
	"Goal: maximize yield_strength_MPa while keeping porosity_percent below 5.0. " +
	"Cooling rate (cooling_rate_K_per_min) affects grain refinement (higher strength at faster cooling) " +
	"but very high cooling can increase porosity and cause failure (success=False)."

const systemPrompt = `You are a Materials Informatics Specialist optimizing heat treatment for a nickel-based superalloy.

` + materialContext + `

You will receive a history of previous attempts: each line gives cooling_rate_K_per_min, yield_strength_MPa, and success (True/False). Use this to suggest the next cooling_rate_K_per_min to try.

Respond with ONLY a single number: the next cooling_rate_K_per_min in K/min (e.g. 15 or 12.5). No units, no explanation, no markdown, no other text. Typical range: about 5 to 50 K/min; going too high risks porosity > 5% and failure.`

// numberPattern matches the first decimal or scientific-notation number in a
// reply, tolerating trailing units like "K/min".
var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// HistoryEntry records one optimization attempt.
type HistoryEntry struct {
	CoolingRateKPerMin float64
	YieldStrengthMPa   float64
	Success            bool
}

// Agent drives the simulate -> log -> suggest loop, asking the completion
// provider for the next cooling rate given the history so far.
type Agent struct {
	provider      provider.Provider
	durationHours float64
	maxIterations int
	logger        *zap.Logger

	history []HistoryEntry
}

// AgentConfig holds configuration for the optimizer agent.
type AgentConfig struct {
	// DurationHours is the heat-treatment duration passed to every run.
	// Defaults to 4.
	DurationHours float64

	// MaxIterations bounds the loop. Defaults to DefaultMaxIterations.
	MaxIterations int
}

// NewAgent creates an optimizer over the given completion provider.
func NewAgent(cfg AgentConfig, prov provider.Provider, logger *zap.Logger) *Agent {
	durationHours := cfg.DurationHours
	if durationHours == 0 {
		durationHours = optimalDurationHours
	}

	maxIterations := cfg.MaxIterations
	if maxIterations == 0 {
		maxIterations = DefaultMaxIterations
	}

	return &Agent{
		provider:      prov,
		durationHours: durationHours,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// History returns the attempts recorded by the last optimization loop.
func (a *Agent) History() []HistoryEntry {
	return a.history
}

// Suggest asks the provider for the next cooling rate given the current
// history, clamped to the physical range. Non-numeric replies are retried
// once, then FallbackCoolingRate is used.
func (a *Agent) Suggest(ctx context.Context) (float64, error) {
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		raw, err := a.provider.Complete(ctx, []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, systemPrompt),
			llm.NewTextMessage(llm.RoleUser, a.formatHistoryPrompt()),
		})
		if err != nil {
			return 0, err
		}

		if value, ok := parseCoolingRate(raw); ok {
			return clampCoolingRate(value), nil
		}

		a.logger.Warn("non-numeric cooling rate suggestion",
			zap.String("raw", raw),
			zap.Int("attempt", attempt+1),
		)
	}

	return FallbackCoolingRate, nil
}

// RunLoop runs simulate -> log -> suggest for the configured number of
// iterations, starting from initialCoolingRate, and returns the full history.
func (a *Agent) RunLoop(ctx context.Context, initialCoolingRate float64) ([]HistoryEntry, error) {
	a.history = nil
	coolingRate := initialCoolingRate

	for i := 0; i < a.maxIterations; i++ {
		outcome := Run(Params{
			CoolingRateKPerMin: coolingRate,
			DurationHours:      a.durationHours,
		})

		a.history = append(a.history, HistoryEntry{
			CoolingRateKPerMin: coolingRate,
			YieldStrengthMPa:   outcome.YieldStrengthMPa,
			Success:            outcome.Success,
		})

		a.logger.Debug("simulation attempt",
			zap.Float64("cooling_rate_K_per_min", coolingRate),
			zap.Float64("yield_strength_MPa", outcome.YieldStrengthMPa),
			zap.Bool("success", outcome.Success),
		)

		next, err := a.Suggest(ctx)
		if err != nil {
			return a.history, err
		}
		coolingRate = next
	}

	return a.history, nil
}

// Report renders the history and the best successful attempt.
func (a *Agent) Report() string {
	var b strings.Builder
	b.WriteString("Optimization history:\n")

	best := -1
	for i, entry := range a.history {
		fmt.Fprintf(&b, "  %2d. cooling_rate_K_per_min=%.2f yield_strength_MPa=%.2f success=%v\n",
			i+1, entry.CoolingRateKPerMin, entry.YieldStrengthMPa, entry.Success)
		if entry.Success && (best < 0 || entry.YieldStrengthMPa > a.history[best].YieldStrengthMPa) {
			best = i
		}
	}

	if best < 0 {
		b.WriteString("No successful attempt (porosity over threshold in every run).\n")
	} else {
		fmt.Fprintf(&b, "Best: cooling_rate_K_per_min=%.2f -> yield_strength_MPa=%.2f\n",
			a.history[best].CoolingRateKPerMin, a.history[best].YieldStrengthMPa)
	}

	return b.String()
}

func (a *Agent) formatHistoryPrompt() string {
	if len(a.history) == 0 {
		return "No previous attempts. Suggest the first cooling_rate_K_per_min (one number only)."
	}

	lines := make([]string, 0, len(a.history))
	for _, entry := range a.history {
		success := "False"
		if entry.Success {
			success = "True"
		}
		lines = append(lines, fmt.Sprintf("cooling_rate_K_per_min=%g, yield_strength_MPa=%.2f, success=%s",
			entry.CoolingRateKPerMin, entry.YieldStrengthMPa, success))
	}

	return "Previous attempts:\n" + strings.Join(lines, "\n") +
		"\n\nNext cooling_rate_K_per_min (reply with one number only):"
}

func parseCoolingRate(raw string) (float64, bool) {
	match := numberPattern.FindString(strings.TrimSpace(raw))
	if match == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func clampCoolingRate(v float64) float64 {
	if v < minCoolingRate {
		return minCoolingRate
	}
	if v > maxCoolingRate {
		return maxCoolingRate
	}
	return v
}
