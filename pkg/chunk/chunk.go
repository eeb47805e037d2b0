// Package chunk splits document text into overlapping fixed-size chunks for
// embedding and retrieval.
package chunk

import (
	"fmt"

	"github.com/forgelabs/crucible/pkg/knowledge"
)

const (
	// DefaultSize is the default chunk width in runes.
	DefaultSize = 800

	// DefaultOverlap is the default number of runes shared between
	// consecutive chunks.
	DefaultOverlap = 100
)

// Config holds chunking parameters. The zero value selects the defaults.
type Config struct {
	// Size is the maximum chunk width in runes.
	Size int

	// Overlap is the number of runes shared between consecutive chunks.
	// Must be smaller than Size.
	Overlap int
}

// DefaultConfig returns the default chunking parameters.
func DefaultConfig() Config {
	return Config{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Split walks a window of cfg.Size runes over text, emitting one chunk per
// window and advancing by cfg.Size-cfg.Overlap, so every rune of text is
// covered and consecutive chunks share exactly cfg.Overlap runes. The final
// chunk may be shorter and share less with its predecessor when the
// remaining text is short. Windows are measured in runes so multi-byte UTF-8
// text never splits mid-character.
//
// Split is pure and deterministic: the returned chunks carry Source, Title,
// and their zero-based ChunkIndex, with Vector left nil for the store to
// fill in.
func Split(text, source, title string, cfg Config) ([]knowledge.Chunk, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}

	if text == "" {
		return nil, fmt.Errorf("%w: text must not be empty", knowledge.ErrInvalidArgument)
	}
	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", knowledge.ErrInvalidArgument, cfg.Overlap)
	}
	if cfg.Size <= cfg.Overlap {
		return nil, fmt.Errorf("%w: chunk size %d must be greater than overlap %d", knowledge.ErrInvalidArgument, cfg.Size, cfg.Overlap)
	}

	runes := []rune(text)
	chunks := make([]knowledge.Chunk, 0, 1+len(runes)/(cfg.Size-cfg.Overlap))

	i := 0
	idx := 0
	for i < len(runes) {
		end := min(i+cfg.Size, len(runes))
		chunks = append(chunks, knowledge.Chunk{
			Content:    string(runes[i:end]),
			Source:     source,
			Title:      title,
			ChunkIndex: idx,
		})

		// A window that reached the end terminates iteration; stepping
		// back by the overlap there would re-emit covered text forever.
		if end == len(runes) {
			break
		}
		i = end - cfg.Overlap
		idx++
	}

	return chunks, nil
}
