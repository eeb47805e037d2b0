// Package knowledge provides the shared types and contracts for the crucible
// knowledge base: documents are split into overlapping text chunks, embedded
// into vectors, and retrieved by cosine similarity against a query embedding.
package knowledge

import "context"

// Chunk is a contiguous piece of a source document paired with its embedding
// once stored. A chunk's position in the store is its only identity; there is
// no secondary index.
type Chunk struct {
	// Content is the chunk text, a substring of the source document.
	Content string `json:"content"`

	// Source identifies the origin document: a file path, or SourceInline
	// when the ingested input was raw text rather than a path.
	Source string `json:"source"`

	// Title is a human-readable label: the file basename, or TitleInline
	// for inline input.
	Title string `json:"title"`

	// ChunkIndex is the zero-based position of this chunk within its source
	// document. It is a per-document sequence number, not globally unique.
	ChunkIndex int `json:"chunk_index"`

	// Vector is the embedding of Content. Nil until the chunk is stored;
	// every vector in a store has the same dimensionality.
	Vector []float32 `json:"vector,omitempty"`
}

// Result is a single retrieval hit. It is derived at search time, never
// stored.
type Result struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Title   string  `json:"title"`
	Score   float32 `json:"score"`
}

// Sentinel source and title values for inputs ingested as literal text.
const (
	SourceInline = "inline"
	TitleInline  = "Inline Text"
)

// Store holds embedded chunks and answers top-k similarity queries.
// Implementations own the embedding-provider invocation for both ingestion
// and querying.
type Store interface {
	// Clear empties the store unconditionally. Idempotent.
	Clear(ctx context.Context) error

	// Size returns the current chunk count.
	Size(ctx context.Context) (int, error)

	// Index ingests each input: inputs naming a readable file are read as
	// UTF-8 text, anything else is treated as inline text. Each document is
	// chunked, embedded in one batched provider call, and appended in
	// arrival order. Ingestion is sequential; a failure aborts the remaining
	// inputs but chunks already stored from earlier inputs are kept.
	Index(ctx context.Context, inputs []string) error

	// Search embeds the query and returns up to topK results ordered by
	// descending cosine similarity. An empty store returns no results and
	// makes no provider call. The store is never mutated.
	Search(ctx context.Context, query string, topK int) ([]Result, error)

	// Close releases any resources held by the store.
	Close() error
}
