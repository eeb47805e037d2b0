// Package inmemory provides the reference knowledge.Store: an append-only
// in-process slice of embedded chunks searched by brute-force cosine
// similarity. No index structure is kept; scoring is O(n·d) per query, which
// is fine for the target corpus sizes of hundreds to low thousands of chunks.
package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/chunk"
	"github.com/forgelabs/crucible/pkg/embeddings"
	"github.com/forgelabs/crucible/pkg/knowledge"
)

// DefaultTopK is the number of results Search returns when the caller passes
// no explicit limit through higher layers.
const DefaultTopK = 5

// Store implements knowledge.Store with an in-process chunk sequence.
type Store struct {
	embedder embeddings.Embedder
	chunking chunk.Config
	logger   *zap.Logger

	// mu guards chunks. Embedding calls are blocking network I/O and are
	// issued outside the lock so unrelated queries never serialize behind
	// provider latency; only the append/clear/scan of the slice is held.
	mu     sync.RWMutex
	chunks []knowledge.Chunk
}

// Config holds configuration for the in-memory store.
type Config struct {
	// Chunking sets the chunk width and overlap used by Index.
	// The zero value selects chunk.DefaultConfig().
	Chunking chunk.Config
}

// NewStore creates an empty in-memory store that embeds with the given
// embedder. Every vector the store holds must come from the same provider
// configuration; mixed dimensionalities are rejected at Index time.
func NewStore(cfg Config, embedder embeddings.Embedder, logger *zap.Logger) *Store {
	chunking := cfg.Chunking
	if chunking == (chunk.Config{}) {
		chunking = chunk.DefaultConfig()
	}

	return &Store{
		embedder: embedder,
		chunking: chunking,
		logger:   logger,
	}
}

// Clear empties the store unconditionally. Idempotent.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = nil
	return nil
}

// Size returns the current chunk count.
func (s *Store) Size(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.chunks), nil
}

// Index ingests each input sequentially: a path naming a readable file is
// read as UTF-8 text (source=path, title=basename), anything else is treated
// as inline text. Each document is chunked and embedded in one batched
// provider call, then its chunks are appended in order.
//
// A failure aborts the remaining inputs, but chunks appended from earlier
// inputs stay in the store. Ingestion is best-effort, not a transaction.
func (s *Store) Index(ctx context.Context, inputs []string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no inputs to index", knowledge.ErrInvalidArgument)
	}

	for _, input := range inputs {
		if err := s.indexOne(ctx, input); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) indexOne(ctx context.Context, input string) error {
	text, source, title, err := knowledge.ResolveInput(input)
	if err != nil {
		return err
	}

	chunks, err := chunk.Split(text, source, title, s.chunking)
	if err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	// One provider call per document, issued before taking the lock.
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d chunks but %d vectors", knowledge.ErrEmbedding, len(chunks), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range chunks {
		if len(s.chunks) > 0 && len(vectors[i]) != len(s.chunks[0].Vector) {
			return fmt.Errorf("%w: store holds %d-dim vectors, provider returned %d",
				knowledge.ErrDimensionMismatch, len(s.chunks[0].Vector), len(vectors[i]))
		}
		chunks[i].Vector = vectors[i]
		s.chunks = append(s.chunks, chunks[i])
	}

	s.logger.Debug("indexed document",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)),
		zap.Int("store_size", len(s.chunks)),
	)

	return nil
}

// Search embeds the query and scores it against every stored vector, returning
// up to topK results in descending cosine-similarity order. Ties keep store
// order (stable sort) so repeated identical queries are deterministic. The
// store is never mutated.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]knowledge.Result, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", knowledge.ErrInvalidArgument)
	}
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k %d must be positive", knowledge.ErrInvalidArgument, topK)
	}

	// An empty corpus answers immediately rather than wasting an embedding
	// request on a query nothing can match.
	s.mu.RLock()
	empty := len(s.chunks) == 0
	s.mu.RUnlock()
	if empty {
		return []knowledge.Result{}, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", knowledge.ErrEmbedding, len(vectors))
	}
	queryVec := vectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]knowledge.Result, 0, len(s.chunks))
	for _, c := range s.chunks {
		results = append(results, knowledge.Result{
			Content: c.Content,
			Source:  c.Source,
			Title:   c.Title,
			Score:   CosineSimilarity(c.Vector, queryVec),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK < len(results) {
		results = results[:topK]
	}

	return results, nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return s.embedder.Close()
}

// CosineSimilarity returns the cosine of the angle between two vectors, in
// [-1, 1]. A zero-norm vector (or mismatched lengths) scores 0: maximally
// dissimilar by convention, never a division error.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Ensure Store implements knowledge.Store
var _ knowledge.Store = (*Store)(nil)
