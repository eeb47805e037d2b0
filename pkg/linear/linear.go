// Package linear implements a staged analysis pipeline over a completion
// provider: a raw task description is extracted into structured
// material/simulation data, one or more reasoning tasks are run against the
// extraction, and the actions and findings are condensed into a
// human-readable summary.
package linear

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/llm/provider"
)

// ErrBadReply is returned when a completion reply cannot be parsed as the
// JSON the pipeline stage asked for.
var ErrBadReply = errors.New("malformed pipeline reply")

// ErrUnknownTask is returned for a task name outside the pipeline's
// repertoire.
var ErrUnknownTask = errors.New("unknown pipeline task")

// Pipeline runs extract -> process -> summarize against one completion
// provider.
type Pipeline struct {
	provider provider.Provider
	logger   *zap.Logger
}

// New creates a pipeline over the given completion provider.
func New(prov provider.Provider, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		provider: prov,
		logger:   logger,
	}
}

// Result is the output of a full pipeline run.
type Result struct {
	// Summary is the human-readable account of the run.
	Summary string `json:"summary"`

	// Extraction is the structured data extracted from the input.
	Extraction json.RawMessage `json:"extraction"`

	// Processing maps task name to that task's result.
	Processing map[string]json.RawMessage `json:"processing"`
}

// Run executes the full pipeline on a raw task description: extraction, the
// given reasoning tasks (all of Tasks() when tasks is nil), and the closing
// summary. Tasks run sequentially and a failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, input string, tasks []string) (*Result, error) {
	extraction, err := p.Extract(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("extracting: %w", err)
	}

	if tasks == nil {
		tasks = Tasks()
	}

	processing := make(map[string]json.RawMessage, len(tasks))
	for _, task := range tasks {
		result, err := p.Process(ctx, extraction, task)
		if err != nil {
			return nil, fmt.Errorf("processing %s: %w", task, err)
		}
		processing[task] = result

		p.logger.Debug("pipeline task complete", zap.String("task", task))
	}

	summary, err := p.Summarize(ctx, input, extraction, processing)
	if err != nil {
		return nil, fmt.Errorf("summarizing: %w", err)
	}

	return &Result{
		Summary:    summary,
		Extraction: extraction,
		Processing: processing,
	}, nil
}
