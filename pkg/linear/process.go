package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/forgelabs/crucible/pkg/llm"
)

// Reasoning task names.
const (
	TaskSchemaValidation       = "schema_validation"
	TaskConstraintVerification = "constraint_verification"
	TaskFeatureExtraction      = "feature_extraction"
	TaskNormalization          = "normalization"
	TaskRiskRanking            = "risk_ranking"
)

// Tasks returns every reasoning task in pipeline order.
func Tasks() []string {
	return []string{
		TaskSchemaValidation,
		TaskConstraintVerification,
		TaskFeatureExtraction,
		TaskNormalization,
		TaskRiskRanking,
	}
}

var taskPrompts = map[string]string{
	TaskSchemaValidation: "You validate material/simulation extraction data. " +
		"Check: composition percentages sum to ~100% (or note if missing); missing required fields; " +
		"unit plausibility; contradictory fields (e.g. porosity 0% vs 'highly porous'). " +
		`Reply with ONLY a JSON object: {"valid": boolean, "issues": [list of strings]}. No markdown, no explanation.`,

	TaskConstraintVerification: "You verify physics/constraint plausibility of material/simulation data. " +
		"Consider: temperature vs melting point; realistic strain rate; " +
		"model vs scale (e.g. DFT for macroscopic grain is inconsistent). " +
		`Reply with ONLY a JSON object: {"plausible": boolean, "warnings": [list of strings]}. No markdown, no explanation.`,

	TaskFeatureExtraction: "You classify the material/simulation from the extraction data. " +
		"Infer: alloy_class (e.g. superalloy, composite, cathode); functional_category (e.g. structural, energy material); " +
		"dominant_mechanism (e.g. dislocation, diffusion, phonon scattering); dimensionality (e.g. bulk, layered). " +
		"Reply with ONLY a JSON object with keys: alloy_class, functional_category, dominant_mechanism, dimensionality (strings). " +
		"No markdown, no explanation.",

	TaskNormalization: "You normalize/reformat the extraction data: convert composition percentages to fractions (e.g. 60 -> 0.6); " +
		"expand temperature_range_K {min, max, step} into an array of temperatures; keep units standardized. " +
		"Return a single JSON object with the same top-level keys (material_system, processing_conditions, " +
		"simulation_parameters, computed_properties, uncertainty_estimates) and normalized values. " +
		"For composition use a list of {element, fraction}. For temperature range include a temperatures_K array. " +
		"No markdown, no explanation.",

	TaskRiskRanking: "You rank by sensitivity/impact. From the extraction data: " +
		"(1) Rank which computed properties are most sensitive to compositional variation " +
		"(list property names from most to least sensitive). " +
		"(2) Rank processing parameters by expected impact (list parameter names). " +
		`Reply with ONLY a JSON object: {"property_ranking": [strings], "processing_ranking": [strings]}. No markdown, no explanation.`,
}

// Process runs one reasoning task against an extraction and returns the
// task's JSON result.
func (p *Pipeline) Process(ctx context.Context, extraction json.RawMessage, task string) (json.RawMessage, error) {
	prompt, ok := taskPrompts[task]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, task)
	}

	reply, err := p.provider.Complete(ctx, []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, prompt),
		llm.NewTextMessage(llm.RoleUser, indentJSON(extraction)),
	})
	if err != nil {
		return nil, err
	}

	return parseJSONReply(reply)
}

// indentJSON pretty-prints raw JSON for a prompt; malformed input is passed
// through as-is.
func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
