// Package sim models a toy heat treatment of a nickel-based superalloy:
// twenty microstructure evolution steps where faster cooling refines grains
// (raising Hall-Petch yield strength) but drives up porosity, with anything
// over 5% porosity counted as a failed part. An LLM-in-the-loop optimizer
// (Agent) searches the cooling-rate space against this model.
package sim

import "math"

// Material system baseline.
const (
	MaterialName = "Nickel-based superalloy"

	TemperatureK       = 1200.0
	InitialGrainSizeNM = 850.0

	// Hall-Petch: sigmaY = sigma0 + k / sqrt(grainSizeNM)
	sigma0MPa         = 200.0
	kHallPetchMPaNM05 = 5000.0

	// PorosityFailureThresholdPercent is the porosity above which the part
	// is considered failed.
	PorosityFailureThresholdPercent = 5.0

	// NumEvolutionSteps is the default number of microstructure evolution
	// steps.
	NumEvolutionSteps = 20

	baselinePorosityPercent = 1.5
	referenceCoolingRate    = 15.0
	optimalDurationHours    = 4.0
)

// Composition is the alloy composition in weight percent.
var Composition = map[string]float64{
	"Ni": 60,
	"Cr": 20,
	"Co": 10,
	"Al": 10,
}

// Params holds the processing conditions for one simulation run. Zero-value
// fields take the schema baselines.
type Params struct {
	// CoolingRateKPerMin is the primary modifiable input. Faster cooling
	// refines grains (higher strength) but can increase porosity.
	CoolingRateKPerMin float64

	// DurationHours is the heat-treatment duration. Very short or long
	// durations increase porosity. Defaults to 4.
	DurationHours float64

	// InitialGrainSizeNM is the starting grain size. Defaults to 850.
	InitialGrainSizeNM float64

	// NumSteps is the number of evolution steps. Defaults to 20.
	NumSteps int
}

// Outcome is the result of one simulation run.
type Outcome struct {
	// YieldStrengthMPa is the Hall-Petch yield strength at the final grain
	// size.
	YieldStrengthMPa float64

	// Success is false when porosity exceeded the failure threshold.
	Success bool
}

// Run evolves the microstructure and returns the final yield strength and
// whether the part stayed under the porosity failure threshold. The model is
// deterministic in its parameters.
func Run(p Params) Outcome {
	if p.DurationHours == 0 {
		p.DurationHours = optimalDurationHours
	}
	if p.InitialGrainSizeNM == 0 {
		p.InitialGrainSizeNM = InitialGrainSizeNM
	}
	if p.NumSteps == 0 {
		p.NumSteps = NumEvolutionSteps
	}

	grainSizeNM := p.InitialGrainSizeNM
	porosityPercent := baselinePorosityPercent

	coolingFactor := math.Min(2.0, math.Max(0.2, p.CoolingRateKPerMin/referenceCoolingRate))
	durationDeviation := math.Abs(p.DurationHours - optimalDurationHours)

	for step := 0; step < p.NumSteps; step++ {
		// Higher cooling rate refines grains.
		refinement := 1.0 + 0.03*float64(step+1)*math.Log1p(coolingFactor)
		grainSizeNM = p.InitialGrainSizeNM / refinement
		grainSizeNM = math.Max(50.0, math.Min(p.InitialGrainSizeNM, grainSizeNM))

		// Porosity grows with very fast cooling (thermal stress, trapped
		// gas) and with duration mismatch.
		porosityDeltaCooling := 0.08 * math.Log1p(math.Max(0, p.CoolingRateKPerMin-10))
		porosityDeltaDuration := 0.02 * durationDeviation
		porosityPercent += (porosityDeltaCooling + porosityDeltaDuration) / float64(p.NumSteps)
		porosityPercent = math.Max(0.0, math.Min(10.0, porosityPercent))

		if porosityPercent > PorosityFailureThresholdPercent {
			// Failed part: yield strength still reflects the grain size
			// reached so far.
			break
		}
	}

	return Outcome{
		YieldStrengthMPa: sigma0MPa + kHallPetchMPaNM05/math.Sqrt(grainSizeNM),
		Success:          porosityPercent <= PorosityFailureThresholdPercent,
	}
}
