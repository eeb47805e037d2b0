package linear

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/forgelabs/crucible/pkg/llm"
	"github.com/forgelabs/crucible/pkg/utils"
)

const extractionInstruction = "Extract structured data from the task description that follows. " +
	"Return ONLY valid JSON. Do not include explanations. Do not summarize. " +
	"Do not restate the task. Do not include markdown. " +
	"If a value is missing and cannot be reasonably inferred, return null."

// extractionSchema is the shape every extraction must take. It is embedded in
// the system prompt; replies are validated as JSON, not against the schema
// itself.
const extractionSchema = `{
  "type": "object",
  "properties": {
    "material_system": {
      "type": "object",
      "properties": {
        "material_name": {"type": ["string", "null"]},
        "composition": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "element": {"type": "string"},
              "percentage": {"type": "number"}
            },
            "required": ["element", "percentage"]
          }
        },
        "phase_type": {"type": ["string", "null"]},
        "microstructure": {
          "type": "object",
          "properties": {
            "grain_size_nm": {"type": ["number", "null"]},
            "porosity_percent": {"type": ["number", "null"]},
            "crystal_structure": {"type": ["string", "null"]}
          },
          "required": ["grain_size_nm", "porosity_percent", "crystal_structure"]
        }
      },
      "required": ["material_name", "composition", "phase_type", "microstructure"]
    },
    "processing_conditions": {
      "type": "object",
      "properties": {
        "synthesis_method": {"type": ["string", "null"]},
        "heat_treatment": {
          "type": "object",
          "properties": {
            "temperature_K": {"type": ["number", "null"]},
            "duration_hours": {"type": ["number", "null"]},
            "cooling_rate_K_per_min": {"type": ["number", "null"]}
          },
          "required": ["temperature_K", "duration_hours", "cooling_rate_K_per_min"]
        },
        "pressure_GPa": {"type": ["number", "null"]}
      },
      "required": ["synthesis_method", "heat_treatment", "pressure_GPa"]
    },
    "simulation_parameters": {
      "type": "object",
      "properties": {
        "temperature_range_K": {
          "type": "object",
          "properties": {
            "min": {"type": ["number", "null"]},
            "max": {"type": ["number", "null"]},
            "step": {"type": ["number", "null"]}
          },
          "required": ["min", "max", "step"]
        },
        "strain_rate_s_inverse": {"type": ["number", "null"]},
        "boundary_conditions": {"type": ["string", "null"]},
        "model_type": {"type": ["string", "null"]}
      },
      "required": ["temperature_range_K", "strain_rate_s_inverse", "boundary_conditions", "model_type"]
    },
    "computed_properties": {
      "type": "object",
      "properties": {
        "thermal_conductivity_W_per_mK": {"type": ["number", "null"]},
        "yield_strength_MPa": {"type": ["number", "null"]},
        "youngs_modulus_GPa": {"type": ["number", "null"]},
        "poissons_ratio": {"type": ["number", "null"]},
        "thermal_expansion_coefficient_per_K": {"type": ["number", "null"]},
        "specific_heat_J_per_kgK": {"type": ["number", "null"]},
        "electrical_conductivity_S_per_m": {"type": ["number", "null"]},
        "density_kg_per_m3": {"type": ["number", "null"]}
      },
      "required": [
        "thermal_conductivity_W_per_mK",
        "yield_strength_MPa",
        "youngs_modulus_GPa",
        "poissons_ratio",
        "thermal_expansion_coefficient_per_K",
        "specific_heat_J_per_kgK",
        "electrical_conductivity_S_per_m",
        "density_kg_per_m3"
      ]
    },
    "uncertainty_estimates": {
      "type": "object",
      "properties": {
        "property_uncertainty_percent": {"type": ["number", "null"]},
        "model_confidence_level": {"type": ["number", "null"]}
      },
      "required": ["property_uncertainty_percent", "model_confidence_level"]
    }
  },
  "required": [
    "material_system",
    "processing_conditions",
    "simulation_parameters",
    "computed_properties",
    "uncertainty_estimates"
  ]
}`

const extractionPrompt = extractionInstruction +
	"\n\nThe JSON must conform to this JSON Schema:\n" + extractionSchema

// fencePattern matches a markdown code fence (optionally tagged json) so
// fenced replies can still be parsed.
var fencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Extract parses a raw task description into the structured extraction shape
// via one completion call.
func (p *Pipeline) Extract(ctx context.Context, text string) (json.RawMessage, error) {
	reply, err := p.provider.Complete(ctx, []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, extractionPrompt),
		llm.NewTextMessage(llm.RoleUser, text),
	})
	if err != nil {
		return nil, err
	}

	return parseJSONReply(reply)
}

// parseJSONReply strips an optional markdown fence and validates the
// remainder as JSON.
func parseJSONReply(reply string) (json.RawMessage, error) {
	s := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("%w: %s", ErrBadReply, utils.Truncate(s, 120))
	}

	return json.RawMessage(s), nil
}
