// Package sqlitevec provides a knowledge.Store backed by SQLite with the
// sqlite-vec extension. KNN queries run inside the vec0 virtual table with
// cosine distance; chunk metadata lives in a companion table joined by rowid.
//
// The default ":memory:" database keeps the store process-local like the
// in-memory reference store. Retrieval is exact KNN, not approximate, but tie
// ordering among equal scores is engine-defined rather than insertion-stable.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/chunk"
	"github.com/forgelabs/crucible/pkg/embeddings"
	"github.com/forgelabs/crucible/pkg/knowledge"
)

// Store implements knowledge.Store on SQLite with sqlite-vec.
type Store struct {
	db         *sql.DB
	embedder   embeddings.Embedder
	chunking   chunk.Config
	dimensions uint
	logger     *zap.Logger
}

// Config holds configuration for the sqlite-vec store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Defaults to ":memory:" so nothing outlives the process.
	DBPath string

	// Dimensions is the embedding dimensionality. Required; vec0 tables are
	// declared with a fixed vector width.
	Dimensions uint

	// Chunking sets the chunk width and overlap used by Index.
	// The zero value selects chunk.DefaultConfig().
	Chunking chunk.Config
}

// NewStore creates a sqlite-vec backed knowledge store.
func NewStore(cfg Config, embedder embeddings.Embedder, logger *zap.Logger) (*Store, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = ":memory:"
	}

	if cfg.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	chunking := cfg.Chunking
	if chunking == (chunk.Config{}) {
		chunking = chunk.DefaultConfig()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kb_chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			chunk_index INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	// vec0 virtual table for vector storage and KNN queries. Cosine distance
	// keeps scoring aligned with the in-memory store's similarity metric.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS kb_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		cfg.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec knowledge store initialized",
		zap.String("db_path", dbPath),
		zap.Uint("dimensions", cfg.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Store{
		db:         db,
		embedder:   embedder,
		chunking:   chunking,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB format
// sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Clear empties the store unconditionally. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kb_chunks`); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kb_embeddings`); err != nil {
		return fmt.Errorf("clearing embeddings: %w", err)
	}
	return nil
}

// Size returns the current chunk count.
func (s *Store) Size(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kb_chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Index ingests each input sequentially with one batched embedding call per
// document. A failure aborts the remaining inputs; documents already
// committed stay in the store.
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

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d chunks but %d vectors", knowledge.ErrEmbedding, len(chunks), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, c := range chunks {
		if uint(len(vectors[i])) != s.dimensions {
			return fmt.Errorf("%w: store holds %d-dim vectors, provider returned %d",
				knowledge.ErrDimensionMismatch, s.dimensions, len(vectors[i]))
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO kb_chunks(content, source, title, chunk_index) VALUES (?, ?, ?, ?)`,
			c.Content, c.Source, c.Title, c.ChunkIndex,
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %d of %s: %w", c.ChunkIndex, source, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for chunk %d of %s: %w", c.ChunkIndex, source, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kb_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(vectors[i]),
		); err != nil {
			return fmt.Errorf("inserting embedding for chunk %d of %s: %w", c.ChunkIndex, source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("indexed document",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)),
	)

	return nil
}

// Search embeds the query and runs a KNN query inside vec0, returning up to
// topK results by descending cosine similarity. An empty store returns no
// results and makes no provider call.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]knowledge.Result, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", knowledge.ErrInvalidArgument)
	}
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k %d must be positive", knowledge.ErrInvalidArgument, topK)
	}

	size, err := s.Size(ctx)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return []knowledge.Result{}, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", knowledge.ErrEmbedding, len(vectors))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.content,
			c.source,
			c.title,
			ve.distance
		FROM kb_embeddings ve
		INNER JOIN kb_chunks c ON c.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, serializeFloat32(vectors[0]), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []knowledge.Result
	for rows.Next() {
		var r knowledge.Result
		var distance float64
		if err := rows.Scan(&r.Content, &r.Source, &r.Title, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		// Cosine distance is 1 - cosine similarity.
		r.Score = float32(1.0 - distance)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	s.logger.Debug("queried sqlite-vec",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Close releases the database handle and the embedder.
func (s *Store) Close() error {
	if err := s.embedder.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

// Ensure Store implements knowledge.Store
var _ knowledge.Store = (*Store)(nil)
