package linear

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/forgelabs/crucible/pkg/llm"
)

const pipelineStructure = `
The pipeline has two stages:
1. Extractor: parses raw task descriptions into structured data with keys:
   material_system, processing_conditions, simulation_parameters, computed_properties, uncertainty_estimates.
2. Processor: runs one of these tasks on the extraction:
   schema_validation (valid, issues), constraint_verification (plausible, warnings),
   feature_extraction (alloy_class, functional_category, dominant_mechanism, dimensionality),
   normalization (same keys with normalized values: fractions, temperatures_K array),
   risk_ranking (property_ranking, processing_ranking).
`

const summaryPrompt = "You summarize the execution of a material/simulation pipeline. " +
	"You are aware of the pipeline structure:\n" + pipelineStructure +
	"\nWrite a concise, human-readable summary that: (1) states what the original input was; " +
	"(2) lists the actions taken (extraction, then each processing task that was run); " +
	"(3) states what was obtained from each step (key findings, valid/plausible flags, rankings, etc.). " +
	"Use plain language and short paragraphs or bullet points. No raw JSON in the summary."

// summaryPayload is the run record handed to the summarizer.
type summaryPayload struct {
	OriginalInput     string                     `json:"original_input"`
	Extraction        json.RawMessage            `json:"extraction"`
	ProcessingResults map[string]json.RawMessage `json:"processing_results"`
}

// Summarize renders a human-readable account of a pipeline run: the input,
// the actions taken, and what each produced.
func (p *Pipeline) Summarize(ctx context.Context, input string, extraction json.RawMessage, processing map[string]json.RawMessage) (string, error) {
	payload, err := json.MarshalIndent(summaryPayload{
		OriginalInput:     input,
		Extraction:        extraction,
		ProcessingResults: processing,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding run record: %w", err)
	}

	return p.provider.Complete(ctx, []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, summaryPrompt),
		llm.NewTextMessage(llm.RoleUser, string(payload)),
	})
}
